// Package llms provides the LLM provider abstraction used by analyzers.
// Providers are plain HTTP clients around the vendor chat APIs; the only
// operation the runtime needs is single-shot text generation.
package llms

import (
	"context"
)

// GenerateRequest is a single-shot completion request.
type GenerateRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Provider is implemented by every LLM backend.
type Provider interface {
	// Generate performs a non-streaming completion and returns the text
	// and the total tokens consumed.
	Generate(ctx context.Context, req GenerateRequest) (text string, tokens int, err error)

	// ModelName returns the default model for this provider.
	ModelName() string

	Close() error
}
