package main

import (
	"context"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	gsheet "expensetracker/internal/sheets/google"
	"expensetracker/internal/worker"
)

func main() {
	cfg, logger := cli.MustSetup(applog.ComponentWorker, (*config.Config).ValidateWorker)
	logger.Info("Starting export worker")

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(amqpClient, sheetsClient)
	if err := exportWorker.Start(ctx); err != nil {
		cli.Fatal(logger, "Failed to start export worker", err)
	}

	select {
	case <-ctx.Done():
	case <-exportWorker.Done():
		if err := exportWorker.Err(); err != nil {
			applog.NewStructuredLogger(logger).
				LogError(ctx, "Export worker failed", err, applog.ComponentWorker, "consume", nil)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := exportWorker.Stop(shutdownCtx); err != nil {
		logger.Error("Export worker shutdown error", applog.FieldError, err.Error())
	}
	logger.Info("Export worker stopped")
}
