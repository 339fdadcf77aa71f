package main

import (
	"context"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/log"
	"ledger/internal/sheets"
	gsheet "ledger/internal/sheets/google"
	"ledger/internal/sheets/logjournal"
	"ledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	journal, err := newJournal(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize journal", err)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to connect to AMQP", err)
	}
	defer client.Close()

	logger.Info("Starting journal worker",
		log.FieldOperation, log.OpStartup,
		"queue", cfg.AMQPQueue,
		"sheets", cfg.JournalEnabled())

	if err := worker.NewJournalWorker(journal, logger).Run(ctx, client); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		return
	}
	logger.Info("Worker stopped gracefully")
}

func newJournal(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.JournalWriter, error) {
	if !cfg.JournalEnabled() {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, journaling to the log")
		return logjournal.New(logger), nil
	}

	creds, err := cfg.ServiceAccountCredentials()
	if err != nil {
		return nil, err
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleJournalSheetName,
		CredentialsJSON: creds,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := client.EnsureHeader(ctx); err != nil {
		return nil, err
	}
	return client, nil
}
