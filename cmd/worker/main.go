// The worker binary periodically sweeps verified transactions and replays
// them through the export pipeline. It backfills exports the API's in-process
// worker missed (crashes, sink outages) and can be run as a one-shot backfill
// with -once.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/numa-labs/numa/internal/analytics"
	"github.com/numa-labs/numa/internal/config"
	"github.com/numa-labs/numa/internal/export"
	"github.com/numa-labs/numa/internal/finance"
	"github.com/numa-labs/numa/internal/jobs"
	"github.com/numa-labs/numa/internal/logger"
	"github.com/numa-labs/numa/internal/notionsync"
	"github.com/numa-labs/numa/internal/store/postgres"
)

func main() {
	var (
		interval = flag.Duration("interval", 15*time.Minute, "sweep interval")
		lookback = flag.Duration("lookback", 24*time.Hour, "how far back to sweep for verified transactions")
		once     = flag.Bool("once", false, "run a single sweep and exit")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	financeSvc := finance.NewService(postgres.NewStore(pool))

	var ledger analytics.Exporter
	if cfg.BigQueryProject != "" {
		exporter, err := analytics.NewBigQueryExporter(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create analytics exporter")
		}
		defer exporter.Close()
		ledger = exporter
	}

	var notion *notionsync.Syncer
	if cfg.NotionAPIKey != "" && cfg.NotionDatabaseID != "" {
		notion = notionsync.NewSyncer(notionsync.NewNotionClient(cfg.NotionAPIKey), cfg.NotionDatabaseID)
	}

	if ledger == nil && notion == nil {
		log.Fatal().Msg("No export sinks configured, nothing to do")
	}

	handler := export.NewHandler(financeSvc, ledger, notion)
	userStore := postgres.NewUserStore(pool)

	log.Info().Dur("interval", *interval).Msg("Starting export sweep worker")

	if *once {
		sweep(ctx, log, financeSvc, userStore, handler, *lookback)
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	sweep(ctx, log, financeSvc, userStore, handler, *lookback)
	for {
		select {
		case <-ticker.C:
			sweep(ctx, log, financeSvc, userStore, handler, *lookback)
		case <-quit:
			log.Info().Msg("Worker service exited")
			return
		}
	}
}

// sweep replays verified transactions created within the lookback window
// through the export handler. Sinks are idempotent per transaction id, so
// re-exporting a transaction the API already pushed is harmless.
func sweep(ctx context.Context, log zerolog.Logger, financeSvc *finance.Service, users *postgres.UserStore, handler *export.Handler, lookback time.Duration) {
	since := time.Now().Add(-lookback)

	userIDs, err := users.ListUserIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users for sweep")
		return
	}

	var exported, failed int
	for _, userID := range userIDs {
		txs, err := financeSvc.List(ctx, userID, finance.Filter{
			Statuses:  []finance.Status{finance.StatusVerified, finance.StatusVerifiedManual},
			StartDate: &since,
		})
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions for sweep")
			continue
		}

		for _, tx := range txs {
			job := &jobs.ExportTransactionJob{
				JobID:         "sweep-" + tx.ID,
				TransactionID: tx.ID,
				UserID:        tx.UserID,
			}
			if err := handler.Handle(ctx, job); err != nil {
				log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Sweep export failed")
				failed++
				continue
			}
			exported++
		}
	}

	log.Info().Int("exported", exported).Int("failed", failed).Msg("Sweep completed")
}
