package llm

import (
	"context"
	"fmt"
)

// Client sends one prompt to a completion model and returns its text.
// Implementations must be safe for concurrent use by independent runs.
type Client interface {
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON asks for a JSON response and strips any code fence around it.
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	GetModel(tier ModelTier) string
	Close() error
}

// NewClient opens a client for config.Provider. Every call made through it is
// bounded by the configured timeout and fails with *CompletionError.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	var (
		inner Client
		err   error
	)
	switch config.Provider {
	case ProviderGenAI:
		inner, err = NewGenAIClient(ctx, config, apiKey)
	case ProviderGemini, "":
		inner, err = NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", config.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithTimeout(inner, config.CallTimeout()), nil
}
