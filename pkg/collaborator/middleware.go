package collaborator

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Middleware decorates a Producer with a cross-cutting concern.
type Middleware func(Producer) Producer

// Wrap applies middlewares so that the first one is outermost: Wrap(p, A, B) == A(B(p)).
func Wrap(inner Producer, middlewares ...Middleware) Producer {
	out := inner
	for i := len(middlewares) - 1; i >= 0; i-- {
		out = middlewares[i](out)
	}

	return out
}

// WithLogging logs prompt sizes, latencies and failures.
func WithLogging(logger *slog.Logger) Middleware {
	return func(next Producer) Producer {
		return ProducerFunc(func(ctx context.Context, prompt string) (string, error) {
			started := time.Now()

			text, err := next.Produce(ctx, prompt)
			if err != nil {
				logger.WarnContext(ctx, "Collaborator call failed",
					"prompt_bytes", len(prompt),
					"duration", time.Since(started),
					"error", err)

				return "", err
			}

			logger.DebugContext(ctx, "Collaborator call completed",
				"prompt_bytes", len(prompt),
				"response_bytes", len(text),
				"duration", time.Since(started))

			return text, nil
		})
	}
}

// Retry retries failed calls up to maxAttempts with exponential backoff starting at baseDelay.
// Empty responses and context cancellation are not retried.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}

	return func(next Producer) Producer {
		return ProducerFunc(func(ctx context.Context, prompt string) (string, error) {
			var last error

			for attempt := range maxAttempts {
				text, err := next.Produce(ctx, prompt)
				if err == nil {
					return text, nil
				}

				if errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrNotConfigured) || ctx.Err() != nil {
					return "", err
				}

				last = err

				if attempt == maxAttempts-1 {
					break
				}

				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(baseDelay * time.Duration(1<<attempt)):
				}
			}

			return "", last
		})
	}
}
