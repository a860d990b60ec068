package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/flowforge/pkg/collaborator"
)

const (
	producerAttempts  = 3
	producerBaseDelay = 500 * time.Millisecond
)

// NewProducer returns the Gemini producer wrapped with logging and retries, or nil when no API
// key is configured.
func NewProducer(ctx context.Context, logger *slog.Logger, apiKey, model string) (collaborator.Producer, error) {
	if apiKey == "" {
		logger.Warn("No Gemini API key configured, enriched generation is disabled")

		return nil, nil
	}

	gemini, err := collaborator.NewGeminiProducer(ctx, apiKey, model)
	if err != nil {
		return nil, err
	}

	logger.Info("Using Gemini producer", "model", gemini.Model())

	return collaborator.Wrap(gemini,
		collaborator.WithLogging(logger),
		collaborator.Retry(producerAttempts, producerBaseDelay),
	), nil
}
