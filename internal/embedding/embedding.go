package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"webrag/internal/config"
)

// NewEmbedder builds an embedder for the configured provider.
func NewEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	switch llmConfig.Provider {
	case "ollama", "":
		return NewOllamaEmbedder(llmConfig)
	case "openrouter", "openai":
		return NewOpenAIEmbedder(llmConfig)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", llmConfig.Provider)
	}
}

// NewOllamaEmbedder embeds through a local Ollama server.
func NewOllamaEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(llmConfig.BaseURL),
		ollama.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing ollama client: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// NewOpenAIEmbedder embeds through an OpenAI-compatible endpoint such as
// OpenRouter.
func NewOpenAIEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing openai client: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// EmbedDocuments returns one vector per document, in input order.
func EmbedDocuments(ctx context.Context, embedder *embeddings.EmbedderImpl, docs []schema.Document) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d documents: %w", len(docs), err)
	}
	return vectors, nil
}
