package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/schema"
)

const (
	// Cap on the fetched page body.
	maxPageBytes = 10 << 20

	defaultTimeout = 30 * time.Second
)

// WebLoader fetches a single web page and turns it into a document whose
// metadata carries the source URL.
type WebLoader struct {
	client *http.Client
}

func NewWebLoader() *WebLoader {
	return &WebLoader{client: &http.Client{Timeout: defaultTimeout}}
}

// NewWebLoaderWithClient is used by tests and by callers that need custom
// transport settings.
func NewWebLoaderWithClient(client *http.Client) *WebLoader {
	return &WebLoader{client: client}
}

// Load fetches the page at url and returns one document with the readable
// text and a "source" metadata entry.
func (l *WebLoader) Load(ctx context.Context, url string) ([]schema.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "webrag/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	page := string(body)
	title := ExtractTitle(page, url)
	text := StripHTML(page)
	if text == "" {
		return nil, fmt.Errorf("no readable text at %s", url)
	}

	log.Debug().Str("url", url).Str("title", title).Int("chars", len(text)).Msg("Loaded page")

	return []schema.Document{{
		PageContent: text,
		Metadata: map[string]any{
			"source": url,
			"title":  title,
		},
	}}, nil
}
