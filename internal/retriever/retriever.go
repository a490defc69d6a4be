package retriever

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/uptrace/bun"

	"webrag/internal/chromemdb"
	"webrag/internal/db"
)

// Retriever returns the documents most relevant to a query.
type Retriever interface {
	GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error)
}

// VectorSearcher is the slice of a vector store the retriever needs.
type VectorSearcher interface {
	Search(ctx context.Context, queryEmbedding []float32, limit int) ([]schema.Document, error)
}

// Options bound the result set.
type Options struct {
	TopK          int
	MinSimilarity float32
}

// vectorRetriever embeds the query and searches a vector store.
type vectorRetriever struct {
	searcher VectorSearcher
	embedder *embeddings.EmbedderImpl
	opts     Options
}

// New builds a retriever over any vector searcher.
func New(searcher VectorSearcher, embedder *embeddings.EmbedderImpl, opts Options) Retriever {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	return &vectorRetriever{searcher: searcher, embedder: embedder, opts: opts}
}

func (r *vectorRetriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	docs, err := r.searcher.Search(ctx, queryEmbedding, r.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("searching store: %w", err)
	}

	if r.opts.MinSimilarity > 0 {
		kept := docs[:0]
		for _, doc := range docs {
			if doc.Score >= r.opts.MinSimilarity {
				kept = append(kept, doc)
			}
		}
		docs = kept
	}

	log.Debug().Str("query", query).Int("docs", len(docs)).Msg("Retrieved documents")
	return docs, nil
}

// chromem store already satisfies VectorSearcher.
var _ VectorSearcher = (*chromemdb.Store)(nil)

// pgSearcher adapts the bun backend to VectorSearcher.
type pgSearcher struct {
	db *bun.DB
}

func NewPgSearcher(bunDB *bun.DB) VectorSearcher {
	return &pgSearcher{db: bunDB}
}

func (s *pgSearcher) Search(ctx context.Context, queryEmbedding []float32, limit int) ([]schema.Document, error) {
	return db.SearchDocuments(ctx, s.db, queryEmbedding, limit)
}
