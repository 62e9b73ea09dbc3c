package config

// Preset describes the default models for a cloud provider.
type Preset struct {
	Model             string
	EmbeddingProvider ProviderType
	EmbeddingModel    string
}

// presets maps each provider to its default generation and embedding models.
// Anthropic has no embedding API, so it pairs with OpenAI embeddings.
var presets = map[ProviderType]Preset{
	ProviderAnthropic: {Model: "claude-sonnet-4-5-20250929", EmbeddingProvider: ProviderOpenAI, EmbeddingModel: "text-embedding-3-small"},
	ProviderOpenAI:    {Model: "gpt-4o-mini", EmbeddingProvider: ProviderOpenAI, EmbeddingModel: "text-embedding-3-small"},
	ProviderGoogle:    {Model: "gemini-2.0-flash", EmbeddingProvider: ProviderGoogle, EmbeddingModel: "gemini-embedding-001"},
	ProviderOllama:    {Model: DefaultLocalModel, EmbeddingProvider: ProviderOllama, EmbeddingModel: DefaultLocalModel},
}

const (
	// DefaultLocalBaseURL is where the local-inference server listens by default.
	DefaultLocalBaseURL = "http://localhost:11434"
	// DefaultLocalModel serves both generation and embeddings on the fallback path.
	DefaultLocalModel = "llama3.2"
	// DefaultLocalDimensions is the embedding width of DefaultLocalModel.
	DefaultLocalDimensions = 3072

	DefaultChunkSize    = 10000
	DefaultChunkOverlap = 1000
	DefaultTopK         = 4
	DefaultIndexName    = "doc_index"
	DefaultDataDir      = ".docchat"
	DefaultMaxRows      = 200
)

// DefaultInclude are the glob patterns used when a directory is processed.
var DefaultInclude = []string{"**/*.pdf", "**/*.docx", "**/*.csv"}

// DefaultConfig returns a Config with sensible defaults. The generation
// and embedding models are left empty so they follow the provider's
// preset when only the provider is overridden.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderAnthropic,
		Local: LocalConfig{
			BaseURL:        DefaultLocalBaseURL,
			Model:          DefaultLocalModel,
			EmbeddingModel: DefaultLocalModel,
			Dimensions:     DefaultLocalDimensions,
		},
		Chunking:  ChunkingConfig{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap},
		Retrieval: RetrievalConfig{TopK: DefaultTopK},
		Tabular:   TabularConfig{MaxRows: DefaultMaxRows},
		DataDir:   DefaultDataDir,
		IndexName: DefaultIndexName,
		Include:   DefaultInclude,
		Log:       LogConfig{Level: "info"},
		Server:    ServerConfig{Port: 8080},
	}
}

// GetPreset returns the preset for the given provider.
// Returns the Anthropic preset if the provider is unknown.
func GetPreset(provider ProviderType) Preset {
	if p, ok := presets[provider]; ok {
		return p
	}
	return presets[ProviderAnthropic]
}
