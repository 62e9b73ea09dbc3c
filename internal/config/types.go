package config

// ProviderType identifies a model backend.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level docchat configuration, corresponding to .docchat.yml.
type Config struct {
	// Provider is the primary (cloud) generation backend. "ollama" skips
	// the cloud attempt and binds the local backend directly.
	Provider          ProviderType    `yaml:"provider" koanf:"provider"`
	Model             string          `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType    `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string          `yaml:"embedding_model" koanf:"embedding_model"`
	Local             LocalConfig     `yaml:"local" koanf:"local"`
	Chunking          ChunkingConfig  `yaml:"chunking" koanf:"chunking"`
	Retrieval         RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	Tabular           TabularConfig   `yaml:"tabular" koanf:"tabular"`
	DataDir           string          `yaml:"data_dir" koanf:"data_dir"`
	IndexName         string          `yaml:"index_name" koanf:"index_name"`
	StagingDir        string          `yaml:"staging_dir" koanf:"staging_dir"`
	Include           []string        `yaml:"include" koanf:"include"`
	RequestsPerMinute int             `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	// OpenAIBaseURL points the openai provider and embedder at an
	// OpenAI-compatible server instead of api.openai.com.
	OpenAIBaseURL string `yaml:"openai_base_url,omitempty" koanf:"openai_base_url"`
	Log               LogConfig       `yaml:"log" koanf:"log"`
	Server            ServerConfig    `yaml:"server" koanf:"server"`
}

// LocalConfig describes the local-inference fallback backend.
type LocalConfig struct {
	BaseURL        string `yaml:"base_url" koanf:"base_url"`
	Model          string `yaml:"model" koanf:"model"`
	EmbeddingModel string `yaml:"embedding_model" koanf:"embedding_model"`
	Dimensions     int    `yaml:"dimensions" koanf:"dimensions"`
	// ContextWindow is the num_ctx requested from Ollama; 0 keeps the
	// provider default.
	ContextWindow int `yaml:"context_window,omitempty" koanf:"context_window"`
}

// ChunkingConfig controls how extracted text is split before embedding.
type ChunkingConfig struct {
	Size    int `yaml:"size" koanf:"size"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// RetrievalConfig controls similarity search.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" koanf:"top_k"`
}

// TabularConfig controls the CSV question path.
type TabularConfig struct {
	MaxRows int `yaml:"max_rows" koanf:"max_rows"`
}

// LogConfig controls the structured log stream.
type LogConfig struct {
	Level string `yaml:"level" koanf:"level"`
	File  string `yaml:"file" koanf:"file"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}
