package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-ledger/internal/adapters"
	"github.com/dvloznov/finance-ledger/internal/config"
	"github.com/dvloznov/finance-ledger/internal/exchange"
	infraBQ "github.com/dvloznov/finance-ledger/internal/infra/bigquery"
	"github.com/dvloznov/finance-ledger/internal/ingest"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/mailbox"
	"github.com/dvloznov/finance-ledger/internal/notify"
	"github.com/dvloznov/finance-ledger/internal/rawstore"
	"github.com/dvloznov/finance-ledger/internal/schedule"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", "ledger.yaml", "Path to the ledger.yaml configuration file")
		kick       = flag.Bool("kick", false, "Fire every job once at startup instead of waiting for its cadence")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", *configPath).Msg("No config file found, using defaults")
			cfg = config.Default()
		} else {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	// Select the ledger store backend
	var store ledger.Store
	switch cfg.Storage.Backend {
	case "bigquery":
		bqStore, err := infraBQ.NewStore(ctx, cfg.Storage.Project, cfg.Storage.Dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery ledger store")
		}
		defer bqStore.Close()
		store = bqStore
		log.Info().
			Str("project", cfg.Storage.Project).
			Str("dataset", cfg.Storage.Dataset).
			Msg("Using BigQuery ledger store")
	default:
		store = ledger.NewMemory()
		log.Warn().Msg("Using in-memory ledger store - data is lost on restart")
	}

	// Stack notification channels
	notifier := notify.Notifier(&notify.LogNotifier{})
	if cfg.Notion.Token != "" {
		notionClient := notify.NewNotionClient(cfg.Notion.Token)
		notifier = &notify.Fanout{Notifiers: []notify.Notifier{
			&notify.LogNotifier{},
			notify.NewNotionNotifier(notionClient, cfg.Notion.DatabaseID),
		}}
		log.Info().Str("database_id", cfg.Notion.DatabaseID).Msg("Notion batch notifications enabled")
	}

	registry := adapters.NewRegistry()
	registry.RegisterEmail(&adapters.BanescoAdapter{})
	registry.RegisterEmail(&adapters.MercantilAdapter{})
	registry.RegisterEmail(&adapters.BNCAdapter{})
	registry.RegisterTrade(adapters.NewBinanceTradeAdapter(cfg.Exchange.TradeType))

	pipeline := ingest.New(registry, store, notifier)

	if cfg.Archive.Bucket != "" {
		archive, err := rawstore.New(ctx, cfg.Archive.Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create raw payload archive")
		}
		defer archive.Close()
		pipeline = pipeline.WithArchiver(archive)
		log.Info().Str("bucket", cfg.Archive.Bucket).Msg("Raw payload archiving enabled")
	}

	// Register jobs
	scheduler := schedule.NewScheduler(ctx)
	var jobs []schedule.Job

	emailJob := &schedule.EmailSyncJob{
		Source:   mailbox.NewDirSource(cfg.Mailbox.Dir),
		Pipeline: pipeline,
	}
	if err := scheduler.Add(cfg.Mailbox.Cron, emailJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule email sync")
	}
	jobs = append(jobs, emailJob)

	if cfg.Exchange.Enabled() {
		tradeJob := &schedule.TradeSyncJob{
			Fetcher:  exchange.NewClient(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.TradeType),
			Pipeline: pipeline,
			PageSize: cfg.Exchange.PageSize,
		}
		if err := scheduler.Add(cfg.Exchange.Cron, tradeJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule trade sync")
		}
		jobs = append(jobs, tradeJob)
	} else {
		log.Info().Msg("No exchange credentials configured - trade sync disabled")
	}

	for _, sub := range cfg.Subscriptions {
		amount, err := decimal.NewFromString(sub.Amount)
		if err != nil {
			log.Fatal().Err(err).Str("origin", sub.Origin).Msg("Invalid subscription amount")
		}
		subJob := &schedule.SubscriptionJob{
			Origin:      sub.Origin,
			Description: sub.Description,
			Amount:      amount,
			Currency:    sub.Currency,
			DayOfMonth:  sub.DayOfMonth,
			Store:       store,
		}
		if err := scheduler.Add(sub.Cron, subJob); err != nil {
			log.Fatal().Err(err).Str("origin", sub.Origin).Msg("Failed to schedule subscription")
		}
		jobs = append(jobs, subJob)
	}

	scheduler.Start()
	log.Info().Int("jobs", len(jobs)).Msg("Sync daemon started")

	if *kick {
		for _, job := range jobs {
			scheduler.Kick(job)
		}
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down sync daemon...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Sync daemon exited")
}
