package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>LLM Powered Agents</title><style>body { color: red; }</style></head>
<body>
<script>trackPageView();</script>
<h1>LLM Powered Agents</h1>
<p>Agents combine planning &amp; memory.</p>
<!-- nav -->
<div>Task decomposition breaks a task into steps.</div>
</body>
</html>`

func TestStripHTML(t *testing.T) {
	text := StripHTML(samplePage)

	assert.Contains(t, text, "LLM Powered Agents")
	assert.Contains(t, text, "Agents combine planning & memory.")
	assert.Contains(t, text, "Task decomposition breaks a task into steps.")
	assert.NotContains(t, text, "trackPageView")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "<p>")
	assert.NotContains(t, text, "nav")
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "LLM Powered Agents", ExtractTitle(samplePage, "https://example.com/x"))
	assert.Equal(t, "agent post", ExtractTitle("<p>no title</p>", "https://example.com/blog/agent-post/"))
	assert.Equal(t, "notes", ExtractTitle("", "https://example.com/notes.html?ref=1"))
}

func TestWebLoaderLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	l := NewWebLoaderWithClient(srv.Client())
	docs, err := l.Load(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, srv.URL, docs[0].Metadata["source"])
	assert.Equal(t, "LLM Powered Agents", docs[0].Metadata["title"])
	assert.Contains(t, docs[0].PageContent, "Task decomposition")
}

func TestWebLoaderLoadStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	l := NewWebLoaderWithClient(srv.Client())
	_, err := l.Load(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestWebLoaderLoadEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><head><script>x()</script></head><body></body></html>"))
	}))
	defer srv.Close()

	l := NewWebLoaderWithClient(srv.Client())
	_, err := l.Load(context.Background(), srv.URL)
	require.Error(t, err)
}
