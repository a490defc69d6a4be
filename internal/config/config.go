package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables that override credentials from the config file.
const (
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvOllamaHost    = "OLLAMA_HOST"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
	defaultTopK         = 4
	defaultCollection   = "webrag"
	defaultDBPath       = "./chromemdb"
)

type LLMConfig struct {
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Key      string `yaml:"key"`
	Provider string `yaml:"provider"` // "ollama" or "openrouter"
}

type DatabaseConfig struct {
	URL   string `yaml:"url"`
	Key   string `yaml:"key"`
	Debug bool   `yaml:"debug"`
}

type RAGConfig struct {
	ChunkSize     int      `yaml:"chunk_size"`
	ChunkOverlap  int      `yaml:"chunk_overlap"`
	TopK          int      `yaml:"top_k"`
	MinSimilarity float32  `yaml:"min_similarity"`
	Store         string   `yaml:"store"` // "chromem" or "postgres"
	Collection    string   `yaml:"collection"`
	DBPath        string   `yaml:"db_path"`
	InMemory      bool     `yaml:"in_memory"`
	EncryptionKey string   `yaml:"encryption_key"`
	Tags          []string `yaml:"tags"`
}

type Config struct {
	EmbedLLM     LLMConfig      `yaml:"embed_llm"`
	InferenceLLM LLMConfig      `yaml:"inference_llm"`
	Database     DatabaseConfig `yaml:"database"`
	RAG          RAGConfig      `yaml:"rag"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// applyEnv lets credentials from the environment win over the file, so the
// file can be committed without secrets.
func applyEnv(cfg *Config) {
	if key := os.Getenv(EnvOpenRouterKey); key != "" {
		cfg.InferenceLLM.Key = key
		if cfg.EmbedLLM.Provider == "openrouter" {
			cfg.EmbedLLM.Key = key
		}
	}
	if host := os.Getenv(EnvOllamaHost); host != "" {
		if cfg.EmbedLLM.Provider == "ollama" || cfg.EmbedLLM.Provider == "" {
			cfg.EmbedLLM.BaseURL = host
		}
		if cfg.InferenceLLM.Provider == "ollama" {
			cfg.InferenceLLM.BaseURL = host
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = defaultTopK
	}
	if cfg.RAG.Collection == "" {
		cfg.RAG.Collection = defaultCollection
	}
	if cfg.RAG.DBPath == "" {
		cfg.RAG.DBPath = defaultDBPath
	}
	if cfg.RAG.Store == "" {
		cfg.RAG.Store = "chromem"
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "ollama"
	}
	if cfg.InferenceLLM.Provider == "" {
		cfg.InferenceLLM.Provider = "openrouter"
	}
}
