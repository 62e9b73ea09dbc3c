package embeddings

import (
	"context"
	"fmt"
)

// Options selects and configures an embedding backend.
type Options struct {
	Provider   string // "openai", "google" or "ollama"
	Model      string
	APIKey     string // cloud providers only
	BaseURL    string // ollama, or an OpenAI-compatible endpoint
	Dimensions int    // ollama only; cloud models know their width
}

// New creates an Embedder. Construction never contacts the backend.
func New(ctx context.Context, opts Options) (Embedder, error) {
	switch opts.Provider {
	case "openai":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai: API key is not set")
		}
		return NewOpenAIEmbedder(opts.APIKey, OpenAIModel(opts.Model), opts.BaseURL), nil
	case "google":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("google: API key is not set")
		}
		return NewGoogleEmbedder(ctx, opts.APIKey, GoogleModel(opts.Model))
	case "ollama":
		return NewOllamaEmbedder(opts.Model, opts.Dimensions, opts.BaseURL), nil
	case "anthropic":
		return nil, fmt.Errorf("anthropic does not offer an embedding API")
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", opts.Provider)
	}
}
