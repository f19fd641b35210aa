package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/auth"
	"bilancio/internal/backend"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/log"
	gsheet "bilancio/internal/sheets/google"
	"bilancio/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	bootLogger := cli.SetupLogger(nil, log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(bootLogger, (*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting bilancio-worker")

	if cfg.DataBackend == config.BackendMemory {
		logger.Error("The worker reads records from the shared store; memory backend is not supported",
			log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), time.Minute)
	defer startCancel()

	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(startCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, log.FieldBackend, backendCfg.Type)
		os.Exit(1)
	}

	sheetsClient, err := gsheet.New(startCtx, gsheet.Options{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		OAuthClientFile:    cfg.GoogleOAuthClientFile,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(result.Stores, sheetsClient)

	consumed := make(chan struct{})
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		select {
		case <-consumed:
		case <-ctx.Done():
		}
		if err := amqpClient.Close(); err != nil {
			logger.Error("Failed to close AMQP client", "error", err)
		}
		if err := result.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	})

	// In the single-user modes every record belongs to the local user, so
	// a full push recovers messages lost while the worker was down. Hosted
	// deployments rely on the queue alone.
	if !result.MultiUser() {
		logger.Info("Performing startup sync")
		if err := syncWorker.StartupSync(ctx, auth.LocalUserID); err != nil {
			logger.Error("Failed startup sync", "error", err)
		}
	}

	go func() {
		defer close(consumed)
		if err := amqpClient.Consume(ctx, syncWorker.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
