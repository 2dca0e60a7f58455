package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"haushaltskasse/internal/backup"
	"haushaltskasse/internal/cli"
	applog "haushaltskasse/internal/log"
	"haushaltskasse/internal/sheets"
	gsheet "haushaltskasse/internal/sheets/google"
	"haushaltskasse/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting haushaltskasse-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("The worker needs AMQP_URL to receive ledger changes")
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	res := cli.OpenBackend(ctx, logger.Logger, cfg)
	defer cli.Cleanup(logger.Logger, "backend", res.Cleanup)
	if res.Events == nil {
		logger.Error("AMQP connection unavailable", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		cli.Cleanup(logger.Logger, "backend", res.Cleanup)
		os.Exit(1)
	}

	var report sheets.ReportWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			Sheet:           cfg.GoogleReportSheet,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			cli.Cleanup(logger.Logger, "backend", res.Cleanup)
			os.Exit(1)
		}
		report = client
		logger.Info("Google Sheets report enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleReportSheet)
	} else {
		logger.Info("Google Sheets report disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewLedgerWorker(res.Store, backup.FileSaver{Dir: cfg.BackupDir}, report, cfg.Projection())

	// A failed startup pass is retried by the next ledger change.
	if err := w.StartupCheck(ctx); err != nil {
		logger.Error("Startup refresh failed", "error", err, applog.FieldOperation, applog.OpStartup)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return res.Events.ConsumeLedgerChanged(gctx, w.HandleLedgerChanged)
	})
	g.Go(func() error {
		// Daily backup even when nothing changed.
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := w.Refresh(gctx); err != nil {
					logger.Error("Periodic refresh failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		cli.Cleanup(logger.Logger, "backend", res.Cleanup)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
