package db

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/tmc/langchaingo/schema"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"webrag/internal/config"
)

// Document is one indexed chunk in the pgvector-backed documents table.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
	Source        string    `bun:"source"`
	ChunkID       int       `bun:"chunk_id"`
	Distance      float64   `bun:"distance,scanonly"`
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.URL + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Key))), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	return err
}

func DropDocuments(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}

func StoreDocuments(ctx context.Context, db *bun.DB, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&docs).Exec(ctx)
	return err
}

// SearchDocuments orders by L2 distance to the query embedding and maps rows
// onto schema documents carrying their source URL and a similarity score.
func SearchDocuments(ctx context.Context, db *bun.DB, queryEmbedding []float32, limit int) ([]schema.Document, error) {
	var rows []Document
	err := db.NewSelect().
		Model(&rows).
		Column("id", "content", "source", "chunk_id").
		ColumnExpr("embedding <-> ? AS distance", queryEmbedding).
		OrderExpr("embedding <-> ?", queryEmbedding).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return RowsToDocuments(rows), nil
}

// RowsToDocuments maps table rows onto schema documents. The L2 distance is
// converted into a similarity in (0, 1] so the retriever's min-similarity
// threshold applies to both store backends.
func RowsToDocuments(rows []Document) []schema.Document {
	docs := make([]schema.Document, len(rows))
	for i, row := range rows {
		docs[i] = schema.Document{
			PageContent: row.Content,
			Metadata: map[string]any{
				"source": row.Source,
				"chunk":  row.ChunkID,
			},
			Score: DistanceToSimilarity(row.Distance),
		}
	}
	return docs
}

// DistanceToSimilarity maps an L2 distance onto (0, 1], with 1 for an exact
// match and values decaying towards 0 as the distance grows.
func DistanceToSimilarity(distance float64) float32 {
	return float32(1 / (1 + distance))
}
