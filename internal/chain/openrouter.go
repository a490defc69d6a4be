package chain

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"webrag/internal/config"
)

// OpenRouterGenerator streams chat completions from an OpenAI-compatible
// endpoint over SSE.
type OpenRouterGenerator struct {
	baseURL string
	key     string
	model   string
	client  *http.Client
}

func NewOpenRouterGenerator(llmConfig *config.LLMConfig) *OpenRouterGenerator {
	return &OpenRouterGenerator{
		baseURL: llmConfig.BaseURL,
		key:     llmConfig.Key,
		model:   llmConfig.Model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatDelta struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (g *OpenRouterGenerator) Stream(ctx context.Context, renderedPrompt string, fn func(ctx context.Context, token string) error) (string, error) {
	payload := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "user", Content: renderedPrompt},
		},
		Stream: true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	key := g.key
	if !strings.HasPrefix(key, "Bearer ") {
		key = "Bearer " + key
	}
	req.Header.Set("Authorization", key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completions request failed: %d, %s", resp.StatusCode, string(body))
	}

	var answer strings.Builder
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if line == "data: [DONE]" {
			break
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var chunk chatDelta
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		token := chunk.Choices[0].Delta.Content
		answer.WriteString(token)
		if fn != nil {
			if err := fn(ctx, token); err != nil {
				return answer.String(), err
			}
		}
	}

	return answer.String(), nil
}
