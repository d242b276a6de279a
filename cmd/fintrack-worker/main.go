package main

import (
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)

	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	// The worker repairs rows another process wrote, so it needs the
	// shared database.
	if cfg.DataBackend != "sqlite" {
		logger.Error("fintrack-worker requires DATA_BACKEND=sqlite", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	var exporter sheets.Exporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		if err := client.EnsureHeader(ctx); err != nil {
			logger.Error("Failed to write sheet header", log.FieldError, err)
			// Export still works; only the header row is missing.
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var consumer worker.Consumer
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		consumer = client
	} else {
		logger.Info("AMQP disabled - relying on periodic reconcile only")
	}

	w := worker.NewMirrorWorker(repo, exporter, consumer, worker.Options{
		BatchSize: cfg.ReconcileBatchSize,
		Interval:  cfg.ReconcileInterval,
	}, logger)

	if err := w.Run(ctx); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Worker shutdown complete")
}
