// Package provider binds the generation model and embedder for a session:
// the configured cloud backend when it is reachable, the local Ollama
// backend otherwise.
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/docchat/internal/config"
	"github.com/ziadkadry99/docchat/internal/embeddings"
	"github.com/ziadkadry99/docchat/internal/llm"
)

// probeText is embedded once to confirm the cloud backend answers.
const probeText = "ping test"

// Backend says where a binding's models run.
type Backend string

const (
	BackendCloud Backend = "cloud"
	BackendLocal Backend = "local"
)

// Binding is the resolved pair of models used for a session. It is not
// changed after resolution.
type Binding struct {
	Provider   llm.Provider
	Model      string
	Embedder   embeddings.Embedder
	Backend    Backend
	ResolvedAt time.Time
}

// CloudFactory builds the cloud generation provider and embedder.
type CloudFactory func(ctx context.Context, cfg *config.Config, genKey, embedKey string) (llm.Provider, embeddings.Embedder, error)

// LocalFactory builds the local fallback pair.
type LocalFactory func(cfg *config.Config) (llm.Provider, embeddings.Embedder)

// Resolver picks the model binding from configuration.
type Resolver struct {
	cfg      *config.Config
	getenv   func(string) string
	newCloud CloudFactory
	newLocal LocalFactory
	now      func() time.Time
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithEnv replaces os.Getenv for API key lookup.
func WithEnv(getenv func(string) string) Option {
	return func(r *Resolver) { r.getenv = getenv }
}

// WithCloudFactory replaces the cloud constructor.
func WithCloudFactory(f CloudFactory) Option {
	return func(r *Resolver) { r.newCloud = f }
}

// WithLocalFactory replaces the local constructor.
func WithLocalFactory(f LocalFactory) Option {
	return func(r *Resolver) { r.newLocal = f }
}

// NewResolver creates a Resolver for cfg.
func NewResolver(cfg *config.Config, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:      cfg,
		getenv:   os.Getenv,
		newCloud: DefaultCloudFactory,
		newLocal: DefaultLocalFactory,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveCloud binds the configured cloud backend. It checks that the API
// keys are present, constructs the clients and embeds a probe string once.
// Failures are returned as *ProviderError.
func (r *Resolver) ResolveCloud(ctx context.Context) (*Binding, error) {
	name := string(r.cfg.Provider)
	if r.cfg.Provider == config.ProviderOllama {
		return nil, &ProviderError{Kind: CredentialsMissing, Provider: name, Err: errors.New("no cloud provider configured")}
	}

	genEnv := config.APIKeyEnvVar(r.cfg.Provider)
	genKey := r.getenv(genEnv)
	if genKey == "" {
		return nil, &ProviderError{Kind: CredentialsMissing, Provider: name, Err: fmt.Errorf("%s is not set", genEnv)}
	}

	embedProvider := r.cfg.ResolvedEmbeddingProvider()
	embedKey := genKey
	if embedProvider != r.cfg.Provider {
		embedKey = ""
		if embedEnv := config.APIKeyEnvVar(embedProvider); embedEnv != "" {
			embedKey = r.getenv(embedEnv)
			if embedKey == "" {
				return nil, &ProviderError{Kind: CredentialsMissing, Provider: string(embedProvider), Err: fmt.Errorf("%s is not set", embedEnv)}
			}
		}
	}

	gen, emb, err := r.newCloud(ctx, r.cfg, genKey, embedKey)
	if err != nil {
		return nil, &ProviderError{Kind: ProbeFailed, Provider: name, Err: err}
	}

	if _, err := emb.Embed(ctx, []string{probeText}); err != nil {
		return nil, &ProviderError{Kind: classifyProbeError(err), Provider: name, Err: err}
	}

	return &Binding{
		Provider:   gen,
		Model:      r.cfg.ResolvedModel(),
		Embedder:   emb,
		Backend:    BackendCloud,
		ResolvedAt: r.now(),
	}, nil
}

// ResolveLocal binds the local backend without contacting it.
func (r *Resolver) ResolveLocal() *Binding {
	gen, emb := r.newLocal(r.cfg)
	model := r.cfg.Local.Model
	if model == "" {
		model = config.DefaultLocalModel
	}
	return &Binding{
		Provider:   gen,
		Model:      model,
		Embedder:   emb,
		Backend:    BackendLocal,
		ResolvedAt: r.now(),
	}
}

// Resolve returns the cloud binding when available and the local binding
// otherwise. It never fails.
func (r *Resolver) Resolve(ctx context.Context) *Binding {
	var b *Binding
	if r.cfg.Provider == config.ProviderOllama {
		b = r.ResolveLocal()
	} else if cloud, err := r.ResolveCloud(ctx); err == nil {
		b = cloud
	} else {
		var pe *ProviderError
		if errors.As(err, &pe) {
			log.Warn().
				Str("provider", pe.Provider).
				Str("kind", pe.Kind.String()).
				Err(pe.Err).
				Msg("cloud provider unavailable, falling back to local model")
		} else {
			log.Warn().Err(err).Msg("cloud provider unavailable, falling back to local model")
		}
		b = r.ResolveLocal()
	}

	log.Info().
		Str("backend", string(b.Backend)).
		Str("provider", b.Provider.Name()).
		Str("model", b.Model).
		Str("embedder", b.Embedder.Name()).
		Msg("model binding resolved")
	return b
}

// DefaultCloudFactory builds the cloud pair from configuration.
func DefaultCloudFactory(ctx context.Context, cfg *config.Config, genKey, embedKey string) (llm.Provider, embeddings.Embedder, error) {
	gen, err := llm.NewProvider(ctx, llm.Options{
		Provider:          string(cfg.Provider),
		Model:             cfg.ResolvedModel(),
		APIKey:            genKey,
		BaseURL:           baseURLFor(cfg, cfg.Provider),
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	if err != nil {
		return nil, nil, err
	}
	emb, err := embeddings.New(ctx, embeddings.Options{
		Provider:   string(cfg.ResolvedEmbeddingProvider()),
		Model:      cfg.ResolvedEmbeddingModel(),
		APIKey:     embedKey,
		BaseURL:    baseURLFor(cfg, cfg.ResolvedEmbeddingProvider()),
		Dimensions: cfg.Local.Dimensions,
	})
	if err != nil {
		return nil, nil, err
	}
	return gen, emb, nil
}

// baseURLFor returns the endpoint override for p, if any.
func baseURLFor(cfg *config.Config, p config.ProviderType) string {
	switch p {
	case config.ProviderOpenAI:
		return cfg.OpenAIBaseURL
	case config.ProviderOllama:
		return cfg.Local.BaseURL
	}
	return ""
}

// DefaultLocalFactory builds the Ollama pair from configuration.
func DefaultLocalFactory(cfg *config.Config) (llm.Provider, embeddings.Embedder) {
	model := cfg.Local.Model
	if model == "" {
		model = config.DefaultLocalModel
	}
	embedModel := cfg.Local.EmbeddingModel
	if embedModel == "" {
		embedModel = model
	}
	dims := cfg.Local.Dimensions
	if dims <= 0 {
		dims = config.DefaultLocalDimensions
	}
	return llm.NewOllamaProvider(cfg.Local.BaseURL, model).WithContextWindow(cfg.Local.ContextWindow),
		embeddings.NewOllamaEmbedder(embedModel, dims, cfg.Local.BaseURL)
}
