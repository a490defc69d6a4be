package ingest

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/schema"
	"github.com/uptrace/bun"

	"webrag/internal/chromemdb"
	"webrag/internal/db"
	"webrag/internal/helper"
)

// chromemWriter stores chunks in the embedded chromem collection.
type chromemWriter struct {
	store *chromemdb.Store
}

func NewChromemWriter(store *chromemdb.Store) Writer {
	return &chromemWriter{store: store}
}

func (w *chromemWriter) WriteDocuments(ctx context.Context, docs []schema.Document, vectors [][]float32) error {
	out := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		meta := make(map[string]string, len(doc.Metadata))
		for k, v := range doc.Metadata {
			meta[k] = fmt.Sprint(v)
		}
		out[i] = chromem.Document{
			ID:        id,
			Content:   doc.PageContent,
			Metadata:  meta,
			Embedding: vectors[i],
		}
	}
	return w.store.AddDocuments(ctx, out)
}

// pgWriter stores chunks in the pgvector documents table.
type pgWriter struct {
	db *bun.DB
}

func NewPgWriter(bunDB *bun.DB) Writer {
	return &pgWriter{db: bunDB}
}

func (w *pgWriter) WriteDocuments(ctx context.Context, docs []schema.Document, vectors [][]float32) error {
	rows := make([]db.Document, len(docs))
	for i, doc := range docs {
		source, _ := doc.Metadata["source"].(string)
		chunkID, _ := doc.Metadata["chunk"].(int)
		rows[i] = db.Document{
			Content:   doc.PageContent,
			Embedding: vectors[i],
			Source:    source,
			ChunkID:   chunkID,
		}
	}
	return db.StoreDocuments(ctx, w.db, rows)
}
