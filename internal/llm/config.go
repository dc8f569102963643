// Package llm provides the completion-service client abstraction and its
// Gemini-backed implementations.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: short classification or extraction
	TierLite ModelTier = "lite"
	// TierStandard is for section rewriting and structured output
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning when quality matters more than latency
	TierAdvanced ModelTier = "advanced"
)

// Provider represents a completion SDK
type Provider string

// Provider constants define supported completion SDKs
const (
	// ProviderGemini uses github.com/google/generative-ai-go
	ProviderGemini Provider = "gemini"
	// ProviderGenAI uses google.golang.org/genai
	ProviderGenAI Provider = "genai"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 30 * time.Second

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// Timeout bounds every call; zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Timeout: DefaultTimeout,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string),
		Timeout:  c.Timeout,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}

// WithProvider returns a copy of the Config using another provider.
func (c *Config) WithProvider(p Provider) *Config {
	newConfig := c.WithModel(TierStandard, c.GetModel(TierStandard))
	newConfig.Provider = p
	return newConfig
}

// CallTimeout returns the configured per-call timeout.
func (c *Config) CallTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
