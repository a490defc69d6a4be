package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"webrag/internal/config"
)

// Generator produces an answer for a rendered prompt, invoking fn once per
// streamed token fragment. The full answer is returned after the stream ends.
type Generator interface {
	Stream(ctx context.Context, renderedPrompt string, fn func(ctx context.Context, token string) error) (string, error)
}

// modelGenerator adapts any langchaingo model to Generator.
type modelGenerator struct {
	model llms.Model
}

// NewModelGenerator wraps a langchaingo model.
func NewModelGenerator(model llms.Model) Generator {
	return &modelGenerator{model: model}
}

// NewGenerator builds the generator for the configured inference provider.
func NewGenerator(llmConfig *config.LLMConfig) (Generator, error) {
	switch llmConfig.Provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(llmConfig.BaseURL),
			ollama.WithModel(llmConfig.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing ollama client: %w", err)
		}
		return NewModelGenerator(llm), nil
	case "openrouter", "":
		return NewOpenRouterGenerator(llmConfig), nil
	case "openai":
		llm, err := openai.New(
			openai.WithBaseURL(llmConfig.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing openai client: %w", err)
		}
		return NewModelGenerator(llm), nil
	default:
		return nil, fmt.Errorf("unknown inference provider: %s", llmConfig.Provider)
	}
}

func (g *modelGenerator) Stream(ctx context.Context, renderedPrompt string, fn func(ctx context.Context, token string) error) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, renderedPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, messages,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return fn(ctx, string(chunk))
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
