// Package llm provides the language-model collaborator boundary: provider
// clients, error classification, and the resilience controls (rate limit,
// circuit breaker) applied to outbound model calls.
package llm

import (
	"context"
)

// Client defines the synchronous completion contract consumed by the
// intent translator and the SEO service. Use this interface for dependency
// injection to enable mocking in tests.
type Client interface {
	// Complete sends a prompt and returns the raw model text.
	// Output length and sampling temperature are bounded by the caller.
	Complete(ctx context.Context, prompt string, systemMessage string, temperature float64, maxTokens int) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure the provider clients implement Client at compile time.
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*AnthropicClient)(nil)
)
