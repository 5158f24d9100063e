// Package llm sends single-shot text generation requests to hosted language models.
package llm

import (
	"context"
	"fmt"

	"example.com/daywell/internal/config"
)

// Sampling parameters used for suggestion requests.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Request is one generation request. An empty Model selects the client's default.
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client generates text for a prompt. Implementations make exactly one upstream call per
// invocation and never retry.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// UpstreamError reports a non-success answer from the provider. Message is the provider's short
// status text, never the response body.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s upstream error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s upstream error: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// New builds the client selected by cfg.LLMProvider. It returns nil, nil when the provider's API
// key is not configured, which callers treat as "no generator".
func New(ctx context.Context, cfg config.Config) (Client, error) {
	switch cfg.LLMProvider {
	case ProviderOpenAI, "":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return NewOpenAIClient(OpenAIConfig{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.LLMModel,
		}), nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, nil
		}
		client, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.LLMModel,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
