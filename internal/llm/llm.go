// Package llm provides single-shot text generation against hosted models.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyPrompt is returned when a request carries no prompt text.
var ErrEmptyPrompt = errors.New("empty prompt")

// Request is one generation call.
type Request struct {
	// System is an optional system instruction.
	System string
	// Prompt is the user content.
	Prompt string
}

// Generator produces a text completion for a request.
// An empty string with a nil error means the model returned no text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}
