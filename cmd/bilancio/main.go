package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/auth"
	"bilancio/internal/backend"
	"bilancio/internal/cli"
	apphttp "bilancio/internal/http"
	"bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/services"
)

func main() {
	cli.LoadEnvFile()

	bootLogger := cli.SetupLogger(nil, log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(bootLogger, nil)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(startCtx, backendCfg)
	startCancel()
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, log.FieldBackend, backendCfg.Type)
		os.Exit(1)
	}

	// Change messages feed the spreadsheet mirror. Without a broker the
	// dashboard works on its own.
	var (
		publisher  services.Publisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("Publishing change messages", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	snapshots := services.NewSnapshotLoader(result.Stores, cfg.CacheTTL)
	deps := apphttp.Deps{
		Finance:   services.NewFinanceService(result.Stores, snapshots, publisher),
		Dashboard: services.NewDashboardService(snapshots, nil),
		Snapshots: snapshots,
		Health:    result,
		RateLimit: ratelimit.Config{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
		Logger:       logger,
		CookieSecure: cfg.CookieSecure,
	}
	if result.MultiUser() {
		deps.Auth = auth.NewService(result.Users, auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL))
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", "error", err)
			}
		}
		if err := result.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	})

	logger.Info("Starting bilancio server",
		"port", cfg.Port,
		log.FieldBackend, result.Type,
		"hosted", result.MultiUser())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
