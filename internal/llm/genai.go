package llm

import (
	"context"
	"fmt"
	"strings"

	genaisdk "google.golang.org/genai"
)

// GenAIClient implements Client on the Google GenAI SDK.
type GenAIClient struct {
	client *genaisdk.Client
	config *Config
}

// NewGenAIClient creates a client for the Gemini API backend.
func NewGenAIClient(ctx context.Context, config *Config, apiKey string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genaisdk.NewClient(ctx, &genaisdk.ClientConfig{
		APIKey:  apiKey,
		Backend: genaisdk.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: connect: %w", err)
	}

	return &GenAIClient{client: client, config: config}, nil
}

// GenerateContent generates text content using the specified model tier
func (c *GenAIClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, prompt, tier, "")
}

// GenerateJSON generates JSON content using the specified model tier
func (c *GenAIClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, prompt, tier, "application/json")
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *GenAIClient) generate(ctx context.Context, prompt string, tier ModelTier, mimeType string) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("genai: no model configured for tier %s", tier)
	}

	cfg := &genaisdk.GenerateContentConfig{
		Temperature:      genaisdk.Ptr[float32](rewriteTemperature),
		ResponseMIMEType: mimeType,
	}
	resp, err := c.client.Models.GenerateContent(ctx, modelName, genaisdk.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("genai: generate with %s: %w", modelName, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GetModel returns the model name for a tier
func (c *GenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op for the GenAI SDK client.
func (c *GenAIClient) Close() error {
	return nil
}
