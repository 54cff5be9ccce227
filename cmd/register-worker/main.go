package main

import (
	"context"
	"errors"
	"os"
	"time"

	"creditregister/internal/amqp"
	"creditregister/internal/cli"
	"creditregister/internal/config"
	"creditregister/internal/core"
	"creditregister/internal/log"
	"creditregister/internal/ports"
	gsheet "creditregister/internal/sheets/google"
	memmirror "creditregister/internal/sheets/memory"
	"creditregister/internal/storage"
	"creditregister/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), nil).WithComponent(log.ComponentWorker)
	logger.Info("Starting register-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.DataBackend != config.BackendSQLite {
		logger.Error("The worker reads entries from SQLite; set DATA_BACKEND=sqlite", "backend", cfg.DataBackend)
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid ledger timezone", log.FieldError, err)
		os.Exit(1)
	}

	// Initialize SQLite repository to read the entries named by events
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	mirror, err := newMirror(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, mirror)
	monthToDate := func() (core.Date, core.Date) {
		today := core.DateOf(time.Now().In(loc))
		return today.FirstOfMonth(), today
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	// Catch up on events that were published while the worker was down
	logger.Info("Performing startup resync")
	start, end := monthToDate()
	if _, err := syncWorker.Resync(ctx, start, end); err != nil {
		logger.Error("Startup resync failed", log.FieldError, err)
		// Don't exit - continue with normal operation
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeEntryEvents(gctx, syncWorker.HandleEntryEvent)
	})
	if cfg.ResyncInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.ResyncInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					start, end := monthToDate()
					if _, err := syncWorker.Resync(gctx, start, end); err != nil {
						logger.Error("Periodic resync failed", log.FieldError, err)
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}

// newMirror returns the Google Sheets mirror, or an in-memory one when no spreadsheet
// is configured so events can still be consumed and checked locally.
func newMirror(ctx context.Context, cfg *config.Config, logger *log.Logger) (ports.EntryMirror, error) {
	if !cfg.SheetsEnabled() {
		logger.Warn("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
		return memmirror.New(), nil
	}
	return gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
}
