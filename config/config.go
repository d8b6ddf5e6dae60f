package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the retrieval tool.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Cache     CacheConfig     `yaml:"cache"`
	Context   ContextConfig   `yaml:"context"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IngestConfig holds document discovery configuration.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// ChunkingConfig holds semantic chunking configuration. Sizes are in
// words.
type ChunkingConfig struct {
	TargetSize        int  `yaml:"target_size"`
	MinSize           int  `yaml:"min_size"`
	MaxSize           int  `yaml:"max_size"`
	Overlap           int  `yaml:"overlap"`
	MaxChunks         int  `yaml:"max_chunks"`
	DetectTopicShifts bool `yaml:"detect_topic_shifts"`
	PreserveStructure bool `yaml:"preserve_structure"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "openai" or "mock"
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`    // Override for OpenAI-compatible endpoints
	BatchSize int    `yaml:"batch_size"`
}

// RetrieveConfig holds retrieval pipeline configuration.
type RetrieveConfig struct {
	TopK          int     `yaml:"top_k"`
	CandidateK    int     `yaml:"candidate_k"`
	MMRLambda     float64 `yaml:"mmr_lambda"`
	HybridEnabled bool    `yaml:"hybrid_enabled"`
	VectorWeight  float64 `yaml:"vector_weight"`
	DocumentOrder bool    `yaml:"document_order"`
}

// CacheConfig holds search cache configuration.
type CacheConfig struct {
	Size       int `yaml:"size"`
	TTLSeconds int `yaml:"ttl_seconds"`
}

// ContextConfig holds context assembly configuration.
type ContextConfig struct {
	CharBudget int `yaml:"char_budget"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Ingest: IngestConfig{
			Includes: []string{"**/*.md", "**/*.txt"},
			Excludes: []string{"**/node_modules/**", "**/.git/**", "**/.docrag/**"},
		},
		Chunking: ChunkingConfig{
			TargetSize:        400,
			MinSize:           100,
			MaxSize:           800,
			Overlap:           75,
			MaxChunks:         100,
			DetectTopicShifts: true,
			PreserveStructure: true,
		},
		Embedding: EmbeddingConfig{
			Provider:  "mock", // works offline; switch to "openai" for real embeddings
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			BatchSize: 100,
		},
		Retrieve: RetrieveConfig{
			TopK:          5,
			CandidateK:    15,
			MMRLambda:     0.7,
			HybridEnabled: true,
			VectorWeight:  0.7,
		},
		Cache: CacheConfig{
			Size:       128,
			TTLSeconds: 300,
		},
		Context: ContextConfig{
			CharBudget: 4000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for
// docrag.yaml, then .docrag/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return Default(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StorePath returns the path to the vector store database.
func StorePath(dir string) string {
	return filepath.Join(dir, ".docrag", "vectors.db")
}

// EnsureDataDir ensures the .docrag directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".docrag"), 0755)
}
