package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewClient creates the provider client selected by cfg.Provider.
// An empty provider defaults to the OpenAI-compatible client, which also
// covers self-hosted endpoints (vLLM, Ollama and friends).
func NewClient(cfg *Config, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
