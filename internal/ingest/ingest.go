package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"

	"webrag/internal/config"
	"webrag/internal/embedding"
	"webrag/internal/loader"
	"webrag/internal/models"
	"webrag/internal/parser"
	"webrag/internal/splitter"
)

// Writer persists embedded chunks. Implementations exist for the chromem and
// postgres backends.
type Writer interface {
	WriteDocuments(ctx context.Context, docs []schema.Document, vectors [][]float32) error
}

// Ingestor runs the load, split, embed, store pipeline for one source.
type Ingestor struct {
	web      *loader.WebLoader
	files    *parser.Parser
	splitter *splitter.Splitter
	embedder *embeddings.EmbedderImpl
	writer   Writer
}

func New(cfg *config.Config, embedder *embeddings.EmbedderImpl, writer Writer) *Ingestor {
	return &Ingestor{
		web:      loader.NewWebLoader(),
		files:    parser.New(cfg),
		splitter: splitter.New(cfg),
		embedder: embedder,
		writer:   writer,
	}
}

// LoadURL loads one web page and splits it into chunks, without storing.
func (ing *Ingestor) LoadURL(ctx context.Context, url string) ([]schema.Document, error) {
	docs, err := ing.web.Load(ctx, url)
	if err != nil {
		return nil, err
	}
	return ing.splitter.SplitDocuments(docs)
}

// LoadFile parses a local file into chunks with the file path as the source,
// without storing.
func (ing *Ingestor) LoadFile(ctx context.Context, filePath string) ([]schema.Document, error) {
	fileChunks, err := ing.files.ParseFile(filePath)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.Document, len(fileChunks))
	for i, c := range fileChunks {
		docs[i] = chunkToDocument(filePath, c)
	}
	return docs, nil
}

// IngestURL loads one web page, splits it, embeds the chunks and stores them.
// Returns the number of chunks stored.
func (ing *Ingestor) IngestURL(ctx context.Context, url string) (int, error) {
	docs, err := ing.LoadURL(ctx, url)
	if err != nil {
		return 0, err
	}
	return ing.Store(ctx, docs)
}

// IngestFile parses a local file into chunks, embeds and stores them.
func (ing *Ingestor) IngestFile(ctx context.Context, filePath string) (int, error) {
	docs, err := ing.LoadFile(ctx, filePath)
	if err != nil {
		return 0, err
	}
	return ing.Store(ctx, docs)
}

// Store embeds the chunks and hands them to the writer.
func (ing *Ingestor) Store(ctx context.Context, docs []schema.Document) (int, error) {
	if len(docs) == 0 {
		log.Warn().Msg("Nothing to ingest")
		return 0, nil
	}

	vectors, err := embedding.EmbedDocuments(ctx, ing.embedder, docs)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(docs) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	if err := ing.writer.WriteDocuments(ctx, docs, vectors); err != nil {
		return 0, err
	}

	log.Info().Int("chunks", len(docs)).Msg("Ingested documents")
	return len(docs), nil
}

func chunkToDocument(filePath string, c models.Chunk) schema.Document {
	return schema.Document{
		PageContent: c.Content,
		Metadata: map[string]any{
			"source": filePath,
			"page":   c.PageNumber,
			"chunk":  c.ChunkID,
		},
	}
}
