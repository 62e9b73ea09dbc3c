package llm

import (
	"context"
	"fmt"
)

// Options selects and configures a generation backend.
type Options struct {
	Provider string // "anthropic", "openai", "google" or "ollama"
	Model    string
	APIKey   string // cloud providers only
	BaseURL  string // ollama, or an OpenAI-compatible endpoint
	// RequestsPerMinute wraps the provider in a rate limiter when positive.
	RequestsPerMinute int
}

// NewProvider creates a generation provider. Cloud providers require an
// API key; construction never contacts the backend.
func NewProvider(ctx context.Context, opts Options) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch opts.Provider {
	case "anthropic":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("anthropic: API key is not set")
		}
		p = NewAnthropicProvider(opts.APIKey, opts.Model)
	case "openai":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai: API key is not set")
		}
		p = NewOpenAIProvider(opts.APIKey, opts.Model, opts.BaseURL)
	case "google":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("google: API key is not set")
		}
		p, err = NewGoogleProvider(ctx, opts.APIKey, opts.Model)
		if err != nil {
			return nil, err
		}
	case "ollama":
		p = NewOllamaProvider(opts.BaseURL, opts.Model)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", opts.Provider)
	}

	if opts.RequestsPerMinute > 0 {
		p = NewRateLimitedProvider(p, opts.RequestsPerMinute)
	}
	return p, nil
}
