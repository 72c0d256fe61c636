package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/techleadershub/gita-counsellor/internal/setup"
	"github.com/techleadershub/gita-counsellor/internal/setup/logger"
)

// Loads a verses JSON export into SQLite and indexes every verse in Qdrant.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	cfg := setup.LoadConfig()

	versesPath := flag.String("verses", cfg.VersesPath, "Path to the verses JSON export")
	reindexOnly := flag.Bool("reindex", false, "Skip loading, only re-embed stored verses into Qdrant")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps, err := setup.Wire(ctx, cfg, logger.New(cfg.LogLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer deps.Store.Close()

	progress := func(done, total int) {
		if done%100 == 0 || done == total {
			log.Info().Int("done", done).Int("total", total).Msg("Indexing verses")
		}
	}

	if *reindexOnly {
		indexed, err := deps.Ingestor.Reindex(ctx, progress)
		if err != nil {
			log.Fatal().Err(err).Msg("Reindex failed")
		}
		log.Info().Int("indexed", indexed).Msg("Reindex complete")
		return
	}

	if err := deps.Ingestor.Start(ctx, *versesPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to start ingestion")
	}

	// Ingestion runs in the background; poll until it finishes.
	for {
		st := deps.Ingestor.Status()
		switch st.Status {
		case "completed":
			log.Info().Str("message", st.Message).Msg("Ingestion complete")
			return
		case "error":
			log.Fatal().Str("message", st.Message).Msg("Ingestion failed")
		}
		select {
		case <-ctx.Done():
			log.Fatal().Msg("Ingestion interrupted")
		case <-time.After(500 * time.Millisecond):
		}
	}
}
