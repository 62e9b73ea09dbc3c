package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/ziadkadry99/docchat/internal/config"
	"github.com/ziadkadry99/docchat/internal/embeddings"
	"github.com/ziadkadry99/docchat/internal/llm"
)

type fakeEmbedder struct {
	name  string
	err   error
	calls [][]string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 2 }
func (f *fakeEmbedder) Name() string    { return f.name }

type fakeProvider struct{ name string }

func (f *fakeProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: "ok"}, nil
}
func (f *fakeProvider) Name() string { return f.name }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func newTestResolver(cfg *config.Config, env map[string]string, cloudEmb *fakeEmbedder, cloudCalls *int) *Resolver {
	cloud := func(ctx context.Context, c *config.Config, genKey, embedKey string) (llm.Provider, embeddings.Embedder, error) {
		*cloudCalls++
		return &fakeProvider{name: string(c.Provider)}, cloudEmb, nil
	}
	local := func(c *config.Config) (llm.Provider, embeddings.Embedder) {
		return &fakeProvider{name: "ollama"}, &fakeEmbedder{name: "ollama/" + c.Local.EmbeddingModel}
	}
	return NewResolver(cfg, WithEnv(envMap(env)), WithCloudFactory(cloud), WithLocalFactory(local))
}

func TestResolveCloudSuccess(t *testing.T) {
	cfg := config.DefaultConfig()
	emb := &fakeEmbedder{name: "text-embedding-3-small"}
	calls := 0
	r := newTestResolver(cfg, map[string]string{"ANTHROPIC_API_KEY": "a", "OPENAI_API_KEY": "o"}, emb, &calls)

	b, err := r.ResolveCloud(context.Background())
	if err != nil {
		t.Fatalf("ResolveCloud() error: %v", err)
	}
	if b.Backend != BackendCloud || b.Provider.Name() != "anthropic" || b.Model != cfg.ResolvedModel() {
		t.Errorf("binding = %+v", b)
	}
	if len(emb.calls) != 1 || emb.calls[0][0] != "ping test" {
		t.Errorf("probe calls = %v", emb.calls)
	}
	if b.ResolvedAt.IsZero() {
		t.Error("ResolvedAt not set")
	}
}

func TestResolveCloudCredentialsMissing(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"generation key", map[string]string{"OPENAI_API_KEY": "o"}},
		{"embedding key", map[string]string{"ANTHROPIC_API_KEY": "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			r := newTestResolver(config.DefaultConfig(), tt.env, &fakeEmbedder{}, &calls)
			_, err := r.ResolveCloud(context.Background())
			var pe *ProviderError
			if !errors.As(err, &pe) || pe.Kind != CredentialsMissing {
				t.Fatalf("expected CredentialsMissing, got %v", err)
			}
			if calls != 0 {
				t.Error("cloud factory should not run without credentials")
			}
		})
	}
}

func TestResolveCloudProbeClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "api.openai.com"}, NetworkUnreachable},
		{"url", &url.Error{Op: "Post", URL: "https://api.openai.com", Err: errors.New("connection refused")}, NetworkUnreachable},
		{"wrapped op", fmt.Errorf("embed: %w", &net.OpError{Op: "dial", Err: errors.New("refused")}), NetworkUnreachable},
		{"api", errors.New("401 invalid api key"), ProbeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Provider = config.ProviderOpenAI
			cfg.EmbeddingProvider = config.ProviderOpenAI
			calls := 0
			r := newTestResolver(cfg, map[string]string{"OPENAI_API_KEY": "o"}, &fakeEmbedder{err: tt.err}, &calls)
			_, err := r.ResolveCloud(context.Background())
			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if pe.Kind != tt.want {
				t.Errorf("kind = %s, want %s", pe.Kind, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Error("ProviderError should unwrap to the probe error")
			}
		})
	}
}

func TestResolveFallsBackToLocal(t *testing.T) {
	cfg := config.DefaultConfig()
	calls := 0
	r := newTestResolver(cfg, map[string]string{}, &fakeEmbedder{}, &calls)

	b := r.Resolve(context.Background())
	if b == nil {
		t.Fatal("Resolve() returned nil")
	}
	if b.Backend != BackendLocal || b.Provider.Name() != "ollama" || b.Model != "llama3.2" {
		t.Errorf("binding = %+v", b)
	}
	if b.Embedder.Name() != "ollama/llama3.2" {
		t.Errorf("embedder = %s", b.Embedder.Name())
	}
}

func TestResolveFallsBackOnNetworkError(t *testing.T) {
	cfg := config.DefaultConfig()
	calls := 0
	emb := &fakeEmbedder{err: &net.DNSError{Err: "no such host", Name: "x"}}
	r := newTestResolver(cfg, map[string]string{"ANTHROPIC_API_KEY": "a", "OPENAI_API_KEY": "o"}, emb, &calls)

	b := r.Resolve(context.Background())
	if b.Backend != BackendLocal {
		t.Errorf("backend = %s, want local", b.Backend)
	}
	if calls != 1 {
		t.Errorf("cloud factory calls = %d, want 1", calls)
	}
}

func TestResolveOllamaSkipsCloud(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = config.ProviderOllama
	calls := 0
	r := newTestResolver(cfg, map[string]string{"ANTHROPIC_API_KEY": "a"}, &fakeEmbedder{}, &calls)

	b := r.Resolve(context.Background())
	if b.Backend != BackendLocal {
		t.Errorf("backend = %s, want local", b.Backend)
	}
	if calls != 0 {
		t.Error("cloud factory should not be called for ollama")
	}
}

func TestDefaultLocalFactory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Local.BaseURL = "http://gpu-box:11434"
	gen, emb := DefaultLocalFactory(cfg)
	if gen.Name() != "ollama" {
		t.Errorf("provider = %s", gen.Name())
	}
	if emb.Name() != "ollama/llama3.2" || emb.Dimensions() != config.DefaultLocalDimensions {
		t.Errorf("embedder = %s/%d", emb.Name(), emb.Dimensions())
	}
}

func TestErrorKindString(t *testing.T) {
	if CredentialsMissing.String() != "credentials_missing" || NetworkUnreachable.String() != "network_unreachable" || ProbeFailed.String() != "probe_failed" {
		t.Error("unexpected ErrorKind strings")
	}
}

func TestDefaultCloudFactory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = config.ProviderOpenAI
	cfg.Model = "gpt-4o-mini"
	cfg.EmbeddingProvider = config.ProviderOpenAI
	cfg.EmbeddingModel = "text-embedding-3-small"

	gen, emb, err := DefaultCloudFactory(context.Background(), cfg, "gen-key", "gen-key")
	if err != nil {
		t.Fatalf("DefaultCloudFactory() error: %v", err)
	}
	if gen.Name() != "openai" || emb.Name() != "openai/text-embedding-3-small" {
		t.Errorf("pair = %s / %s", gen.Name(), emb.Name())
	}
}

func TestDefaultCloudFactory_ProviderOnlyOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = config.ProviderOpenAI

	gen, emb, err := DefaultCloudFactory(context.Background(), cfg, "gen-key", "gen-key")
	if err != nil {
		t.Fatalf("DefaultCloudFactory() error: %v", err)
	}
	if gen.Name() != "openai" || emb.Name() != "openai/text-embedding-3-small" {
		t.Errorf("pair = %s / %s", gen.Name(), emb.Name())
	}
}

func TestBaseURLFor(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OpenAIBaseURL = "http://vllm:8000/v1"
	cfg.Local.BaseURL = "http://gpu-box:11434"

	tests := []struct {
		provider config.ProviderType
		want     string
	}{
		{config.ProviderOpenAI, "http://vllm:8000/v1"},
		{config.ProviderOllama, "http://gpu-box:11434"},
		{config.ProviderGoogle, ""},
		{config.ProviderAnthropic, ""},
	}
	for _, tt := range tests {
		if got := baseURLFor(cfg, tt.provider); got != tt.want {
			t.Errorf("baseURLFor(%s) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}
