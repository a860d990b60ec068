// Package collaborator abstracts the external text producer used to enrich generated artifacts.
package collaborator

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotConfigured is returned when enriched generation is requested without a producer.
	ErrNotConfigured = errors.New("collaborator not configured")
	// ErrEmptyResponse is returned when the producer answers with no content.
	ErrEmptyResponse = errors.New("collaborator returned an empty response")
	// ErrMalformedOutput is returned when the produced text cannot be used as requested.
	ErrMalformedOutput = errors.New("collaborator returned malformed output")
)

// Producer turns a prompt into text. Implementations must honor ctx cancellation.
type Producer interface {
	Produce(ctx context.Context, prompt string) (string, error)
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc func(ctx context.Context, prompt string) (string, error)

func (f ProducerFunc) Produce(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

const fence = "```"

// ExtractBlock returns the interior of the first code block fenced with "```<hint>", else of the
// first "```" block, else the whole response. The result is always trimmed. A block without a
// closing fence runs to the end of the response.
func ExtractBlock(response, hint string) string {
	if hint != "" {
		if body, ok := fencedBody(response, fence+hint); ok {
			return body
		}
	}

	if body, ok := fencedBody(response, fence); ok {
		return body
	}

	return strings.TrimSpace(response)
}

func fencedBody(response, opening string) (string, bool) {
	start := strings.Index(response, opening)
	if start < 0 {
		return "", false
	}

	rest := response[start+len(opening):]
	if end := strings.Index(rest, fence); end >= 0 {
		rest = rest[:end]
	}

	return strings.TrimSpace(rest), true
}
