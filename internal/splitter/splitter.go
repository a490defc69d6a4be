package splitter

import (
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"

	"webrag/internal/config"
)

// Splitter cuts loaded documents into indexable chunks, keeping the source
// metadata and adding the chunk index.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

func New(cfg *config.Config) *Splitter {
	return &Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.RAG.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.RAG.ChunkOverlap),
		),
	}
}

// SplitDocuments splits each document's text and fans the parent metadata out
// to every resulting chunk.
func (s *Splitter) SplitDocuments(docs []schema.Document) ([]schema.Document, error) {
	var out []schema.Document
	for _, doc := range docs {
		pieces, err := s.inner.SplitText(doc.PageContent)
		if err != nil {
			return nil, fmt.Errorf("splitting document: %w", err)
		}
		for i, piece := range pieces {
			meta := make(map[string]any, len(doc.Metadata)+1)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta["chunk"] = i
			out = append(out, schema.Document{PageContent: piece, Metadata: meta})
		}
	}
	return out, nil
}
