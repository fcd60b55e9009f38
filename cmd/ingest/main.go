package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/finance-ledger/internal/adapters"
	"github.com/dvloznov/finance-ledger/internal/config"
	"github.com/dvloznov/finance-ledger/internal/domain"
	infraBQ "github.com/dvloznov/finance-ledger/internal/infra/bigquery"
	"github.com/dvloznov/finance-ledger/internal/ingest"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/mailbox"
	"github.com/dvloznov/finance-ledger/internal/notify"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	var (
		configPath = flag.String("config", "ledger.yaml", "Path to the ledger.yaml configuration file")
		emailPath  = flag.String("email", "", "Path to a raw .eml file to ingest")
	)
	flag.Parse()

	if *emailPath == "" {
		log.Fatal().Msg("Error: --email is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.Default()
		} else {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var store ledger.Store
	switch cfg.Storage.Backend {
	case "bigquery":
		bqStore, err := infraBQ.NewStore(ctx, cfg.Storage.Project, cfg.Storage.Dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery ledger store")
		}
		defer bqStore.Close()
		store = bqStore
	default:
		// Without a durable backend this is a parse dry run; nothing survives
		// the process.
		store = ledger.NewMemory()
		log.Warn().Msg("In-memory backend: records are discarded on exit")
	}

	email, err := mailbox.ReadFile(*emailPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read email file")
	}

	log.Info().Str("file", *emailPath).Str("sender", email.Sender).Msg("Starting ingestion")

	pipeline := ingest.New(adapters.DefaultRegistry(), store, &notify.LogNotifier{})
	result, err := pipeline.IngestEmails(ctx, []domain.RawEmail{email})
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Printf("Run %s: %d accepted, %d duplicates, %d unmatched, %d failures\n",
		result.RunID, len(result.Accepted), result.Duplicates, result.Unmatched, result.Failures)
}
