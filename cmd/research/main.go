package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/techleadershub/gita-counsellor/internal/research"
	"github.com/techleadershub/gita-counsellor/internal/setup"
	"github.com/techleadershub/gita-counsellor/internal/setup/logger"
)

// One-shot research from the command line: prints progress to stderr and the
// final markdown answer to stdout.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	query := flag.String("query", "", "Life question to research")
	queryContext := flag.String("context", "", "Optional context about the situation")
	flag.Parse()

	if *query == "" {
		log.Fatal().Msg("-query is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := setup.LoadConfig()
	deps, err := setup.Wire(ctx, cfg, logger.New(cfg.LogLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer deps.Store.Close()

	events := deps.Agent.Research(ctx, research.Request{
		Query:   *query,
		Context: *queryContext,
	})

	for ev := range events {
		switch ev.Step {
		case research.StepCompleted:
			result, ok := ev.Details.(research.Result)
			if !ok {
				log.Fatal().Msg("Malformed pipeline result")
			}
			fmt.Println(result.Answer)
			return
		case research.StepError:
			log.Fatal().Str("message", ev.Message).Msg("Research failed")
		default:
			log.Info().Str("step", string(ev.Step)).Msg(ev.Message)
		}
	}

	log.Fatal().Msg("Research cancelled")
}
