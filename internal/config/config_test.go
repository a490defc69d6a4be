package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
embed_llm:
  base_url: http://localhost:11434
  model: nomic-embed-text
inference_llm:
  base_url: https://openrouter.ai/api
  model: meta-llama/llama-3-8b-instruct
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, defaultChunkSize, cfg.RAG.ChunkSize)
	assert.Equal(t, defaultChunkOverlap, cfg.RAG.ChunkOverlap)
	assert.Equal(t, defaultTopK, cfg.RAG.TopK)
	assert.Equal(t, defaultCollection, cfg.RAG.Collection)
	assert.Equal(t, "chromem", cfg.RAG.Store)
	assert.Equal(t, "ollama", cfg.EmbedLLM.Provider)
	assert.Equal(t, "openrouter", cfg.InferenceLLM.Provider)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv(EnvOpenRouterKey, "sk-or-from-env")
	t.Setenv(EnvOllamaHost, "http://ollama.internal:11434")

	path := writeConfig(t, `
embed_llm:
  provider: ollama
  base_url: http://localhost:11434
  model: nomic-embed-text
inference_llm:
  provider: openrouter
  base_url: https://openrouter.ai/api
  model: meta-llama/llama-3-8b-instruct
  key: sk-or-from-file
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-or-from-env", cfg.InferenceLLM.Key)
	assert.Equal(t, "http://ollama.internal:11434", cfg.EmbedLLM.BaseURL)
	// OpenRouter inference endpoint is not an Ollama host.
	assert.Equal(t, "https://openrouter.ai/api", cfg.InferenceLLM.BaseURL)
}

func TestLoadConfigExplicitValuesKept(t *testing.T) {
	path := writeConfig(t, `
rag:
  chunk_size: 500
  chunk_overlap: 50
  top_k: 8
  store: postgres
  collection: docs
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 8, cfg.RAG.TopK)
	assert.Equal(t, "postgres", cfg.RAG.Store)
	assert.Equal(t, "docs", cfg.RAG.Collection)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
