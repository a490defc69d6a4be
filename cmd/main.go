package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/schema"
	"github.com/uptrace/bun"

	"webrag/internal/chain"
	"webrag/internal/chromemdb"
	"webrag/internal/config"
	"webrag/internal/db"
	"webrag/internal/embedding"
	"webrag/internal/helper"
	"webrag/internal/ingest"
	"webrag/internal/retriever"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	url := flag.String("url", "", "Web page URL to ingest")
	filePath := flag.String("file", "", "Path to a local document file to ingest")
	query := flag.String("query", "", "Question to answer over the indexed documents")
	events := flag.Bool("events", false, "Consume the event stream instead of the chunk stream")
	pick := flag.String("pick", "", "Only print stream chunks with this key (input, context, answer)")
	tag := flag.String("tag", "", "Only print events carrying this tag")
	dryRun := flag.Bool("dry-run", false, "Parse and split only, do not embed or store")
	flag.Parse()

	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx := context.Background()

	switch {
	case *url != "" || *filePath != "":
		runIngest(ctx, cfg, *url, *filePath, *dryRun)
	case *query != "":
		runQuery(ctx, cfg, *query, *events, *pick, *tag)
	default:
		log.Fatal().Msg("Provide -url or -file to ingest, or -query to ask a question")
	}
}

func runIngest(ctx context.Context, cfg *config.Config, url, filePath string, dryRun bool) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	if dryRun {
		ing := ingest.New(cfg, embedder, nil)
		docs, err := loadOnly(ctx, ing, url, filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Error parsing document")
		}
		helper.PrettyPrint(docs)
		return
	}

	writer, store := newWriter(ctx, cfg)
	ing := ingest.New(cfg, embedder, writer)

	var count int
	if url != "" {
		count, err = ing.IngestURL(ctx, url)
	} else {
		count, err = ing.IngestFile(ctx, filePath)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}

	// an in-memory collection only survives the process via its export file
	if store != nil && cfg.RAG.InMemory {
		if err := store.Export(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error exporting collection")
		}
	}
	log.Info().Int("chunks", count).Msg("Done")
}

func loadOnly(ctx context.Context, ing *ingest.Ingestor, url, filePath string) ([]schema.Document, error) {
	if url != "" {
		return ing.LoadURL(ctx, url)
	}
	return ing.LoadFile(ctx, filePath)
}

func runQuery(ctx context.Context, cfg *config.Config, query string, events bool, pick, tag string) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	searcher := newSearcher(ctx, cfg)
	r := retriever.New(searcher, embedder, retriever.Options{
		TopK:          cfg.RAG.TopK,
		MinSimilarity: cfg.RAG.MinSimilarity,
	})

	generator, err := chain.NewGenerator(&cfg.InferenceLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generator")
	}

	qa := chain.New(r, generator, chain.WithName("retrieval_chain"), chain.WithTags(cfg.RAG.Tags...))

	if events {
		consumeEvents(ctx, qa, query, tag)
		return
	}
	consumeChunks(ctx, qa, query, pick)
}

// consumeChunks iterates the chunk stream, printing each key as it arrives.
func consumeChunks(ctx context.Context, qa *chain.Chain, query, pick string) {
	stream := qa.Stream(ctx, query)
	if pick != "" {
		stream = chain.PickKey(stream, pick)
	}

	for chunk := range stream {
		switch {
		case chunk.Err != nil:
			log.Fatal().Err(chunk.Err).Msg("Error querying")
		case chunk.Input != nil:
			log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
			fmt.Printf("%s\n\n", *chunk.Input)
		case chunk.Context != nil:
			log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
			for _, doc := range chunk.Context {
				fmt.Printf("- %v\n", doc.Metadata["source"])
			}
			fmt.Println()
			log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		case chunk.Answer != nil:
			fmt.Print(*chunk.Answer)
		}
	}
	fmt.Println()
}

// consumeEvents iterates the event stream, optionally filtered by tag.
func consumeEvents(ctx context.Context, qa *chain.Chain, query, tag string) {
	stream := qa.StreamEvents(ctx, query)
	if tag != "" {
		stream = chain.FilterEvents(stream, chain.ByTag(tag))
	}

	for ev := range stream {
		helper.PrettyPrint(ev)
	}
}

// newWriter picks the configured store backend for ingestion. The chromem
// store handle is returned too so an in-memory run can be exported.
func newWriter(ctx context.Context, cfg *config.Config) (ingest.Writer, *chromemdb.Store) {
	switch cfg.RAG.Store {
	case "postgres":
		bunDB := connectPostgres(ctx, cfg)
		if err := db.InitDB(ctx, bunDB); err != nil {
			log.Fatal().Err(err).Msg("Error initializing database")
		}
		return ingest.NewPgWriter(bunDB), nil
	default:
		store := openChromem(cfg)
		return ingest.NewChromemWriter(store), store
	}
}

// newSearcher picks the configured store backend for retrieval. An in-memory
// chromem store is restored from its export file first.
func newSearcher(ctx context.Context, cfg *config.Config) retriever.VectorSearcher {
	switch cfg.RAG.Store {
	case "postgres":
		return retriever.NewPgSearcher(connectPostgres(ctx, cfg))
	default:
		store := openChromem(cfg)
		if cfg.RAG.InMemory && store.HasExport() {
			if err := store.Import(ctx); err != nil {
				log.Fatal().Err(err).Msg("Error importing collection")
			}
		}
		return store
	}
}

func openChromem(cfg *config.Config) *chromemdb.Store {
	// the export file for in-memory collections lives under DBPath too
	if err := helper.CreateFolder(cfg.RAG.DBPath); err != nil {
		log.Fatal().Err(err).Msg("Error creating database folder")
	}
	store, err := chromemdb.New(cfg.RAG.DBPath, cfg.RAG.Collection, cfg.RAG.InMemory, cfg.RAG.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector database")
	}
	return store
}

func connectPostgres(_ context.Context, cfg *config.Config) *bun.DB {
	sqldb, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	return db.NewDB(sqldb, cfg.Database.Debug)
}
