// Package llm provides model streaming client interfaces and implementations.
package llm

import (
	"context"
	"errors"
)

// ErrModelUnavailable marks a model call that failed before producing any
// output. Mid-stream failures are returned unwrapped; the tokens already
// delivered through the callback stand as the final text.
var ErrModelUnavailable = errors.New("model unavailable")

// TokenFunc receives each incremental text fragment, in order. Returning an
// error stops the stream; no further fragments are delivered.
type TokenFunc func(token string) error

// Client is the interface for model providers. A stream is finite and not
// restartable; a new prompt requires a fresh call.
type Client interface {
	// Stream sends a prompt and delivers incremental text fragments to fn.
	// Concatenating the fragments in order reconstructs the full response.
	Stream(ctx context.Context, prompt string, fn TokenFunc) error

	// Complete sends a prompt and returns the full response text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of model provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Options configure a provider client.
type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// NewClient creates a model client for the given provider.
func NewClient(provider Provider, opts Options) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(opts)
	case ProviderAnthropic:
		return NewAnthropicClient(opts)
	default:
		return nil, errors.New("unknown LLM provider: " + string(provider))
	}
}
