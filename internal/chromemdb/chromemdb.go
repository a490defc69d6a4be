package chromemdb

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/schema"
)

const compress = false

// Store wraps a chromem-go database holding one collection of page chunks.
type Store struct {
	db            *chromem.DB
	collection    *chromem.Collection
	dbPath        string
	encryptionKey string
	exportPath    string
}

// New opens (or creates) the database. With inMemory set the data lives only
// for the process and can be exported with Export.
func New(dbPath, collectionName string, inMemory bool, encryptionKey string) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("opening chromem database: %w", err)
		}
	}

	s := &Store{
		db:            db,
		dbPath:        dbPath,
		encryptionKey: encryptionKey,
		exportPath:    dbPath + "/" + collectionName + ".chromem",
	}
	if s.collection, err = db.GetOrCreateCollection(collectionName, nil, nil); err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", collectionName, err)
	}
	return s, nil
}

// AddDocuments indexes pre-embedded chunks. IDs must be unique per chunk.
func (s *Store) AddDocuments(ctx context.Context, docs []chromem.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding %d documents: %w", len(docs), err)
	}
	return nil
}

// Count returns the number of indexed chunks.
func (s *Store) Count() int {
	return s.collection.Count()
}

// Search runs a similarity query with a pre-computed query embedding and maps
// the results onto schema documents with their similarity as the score.
func (s *Store) Search(ctx context.Context, queryEmbedding []float32, limit int) ([]schema.Document, error) {
	if limit > s.collection.Count() {
		limit = s.collection.Count()
	}
	if limit == 0 {
		return nil, nil
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	docs := make([]schema.Document, len(results))
	for i, res := range results {
		meta := make(map[string]any, len(res.Metadata))
		for k, v := range res.Metadata {
			meta[k] = v
		}
		docs[i] = schema.Document{
			PageContent: res.Content,
			Metadata:    meta,
			Score:       res.Similarity,
		}
	}
	return docs, nil
}

// DeleteCollection drops the collection and its chunks.
func (s *Store) DeleteCollection() error {
	if err := s.db.DeleteCollection(s.collection.Name); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}
	return nil
}

// Export writes an in-memory collection to an encrypted file.
func (s *Store) Export(ctx context.Context) error {
	if s.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	log.Debug().Str("collection", s.collection.Name).Str("path", s.exportPath).Msg("Exporting collection")
	if err := s.db.ExportToFile(s.exportPath, compress, s.encryptionKey, s.collection.Name); err != nil {
		return fmt.Errorf("exporting collection: %w", err)
	}
	return nil
}

// Import restores a previously exported collection and rebinds the store to
// the restored copy.
func (s *Store) Import(ctx context.Context) error {
	if s.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	if err := s.db.ImportFromFile(s.exportPath, s.encryptionKey, s.collection.Name); err != nil {
		return fmt.Errorf("importing collection: %w", err)
	}
	c, err := s.db.GetOrCreateCollection(s.collection.Name, nil, nil)
	if err != nil {
		return fmt.Errorf("reopening collection %s: %w", s.collection.Name, err)
	}
	s.collection = c
	return nil
}

// HasExport reports whether an exported collection file exists.
func (s *Store) HasExport() bool {
	_, err := os.Stat(s.exportPath)
	return err == nil
}
