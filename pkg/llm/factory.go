package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewClient creates a chat+embedding client for the given provider.
//
// For "openai" the config endpoint serves both chat and embeddings (any
// OpenAI-compatible server works). For "anthropic" the API key goes to the
// Anthropic API for chat; if the config endpoint is non-empty it is used
// to build an OpenAI-compatible embedding fallback, since Anthropic has no
// embedding endpoint.
func NewClient(provider string, cfg *Config, logger *zap.Logger) (Client, error) {
	switch provider {
	case "", "openai":
		return NewOpenAIClient(cfg, logger)
	case "anthropic":
		var fallback Client
		if cfg.Endpoint != "" {
			fb, err := NewOpenAIClient(cfg, logger)
			if err != nil {
				return nil, fmt.Errorf("create embedding fallback: %w", err)
			}
			fallback = fb
		}
		return NewAnthropicClient(cfg.APIKey, cfg.Model, fallback, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}
