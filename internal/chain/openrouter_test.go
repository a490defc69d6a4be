package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webrag/internal/config"
)

func sseServer(t *testing.T, tokens []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		require.Len(t, req.Messages, 1)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": ping\n\n")
		for _, token := range tokens {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", token)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func newTestOpenRouter(url string) *OpenRouterGenerator {
	return NewOpenRouterGenerator(&config.LLMConfig{
		BaseURL: url,
		Key:     "test-key",
		Model:   "meta-llama/llama-3-8b-instruct",
	})
}

func TestOpenRouterStream(t *testing.T) {
	srv := sseServer(t, []string{"Hello", " ", "world"})
	defer srv.Close()

	var tokens []string
	answer, err := newTestOpenRouter(srv.URL).Stream(context.Background(), "hi", func(_ context.Context, token string) error {
		tokens = append(tokens, token)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", answer)
	assert.Equal(t, []string{"Hello", " ", "world"}, tokens)
}

func TestOpenRouterStreamNilCallback(t *testing.T) {
	srv := sseServer(t, []string{"ok"})
	defer srv.Close()

	answer, err := newTestOpenRouter(srv.URL).Stream(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
}

func TestOpenRouterStreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no credit", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	_, err := newTestOpenRouter(srv.URL).Stream(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
}

func TestOpenRouterStreamCallbackStops(t *testing.T) {
	srv := sseServer(t, []string{"a", "b", "c"})
	defer srv.Close()

	stop := fmt.Errorf("enough")
	partial, err := newTestOpenRouter(srv.URL).Stream(context.Background(), "hi", func(_ context.Context, _ string) error {
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, "a", partial)
}
