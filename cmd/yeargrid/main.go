package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"yeargrid/internal/amqp"
	"yeargrid/internal/backend"
	"yeargrid/internal/cli"
	"yeargrid/internal/config"
	apphttp "yeargrid/internal/http"
	"yeargrid/internal/log"
	"yeargrid/internal/metrics"
	"yeargrid/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentApp, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid session backend configuration: %w", err)
	}
	sessions, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize %s session backend: %w", cfg.SessionBackend, err)
	}
	defer func() {
		if sessions.Cleanup == nil {
			return
		}
		if err := sessions.Cleanup(); err != nil {
			logger.Error("Session backend cleanup error", "error", err)
		}
	}()

	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer client.Close()
		publisher = client
		logger.Info("Publishing accepted grids", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - accepted grids are not published")
	}

	m := metrics.New()
	grids := services.NewGridService(sessions.Store, services.Options{
		Limits:    services.Limits{MaxTables: cfg.MaxTables, MaxRows: cfg.MaxRows},
		Zero:      cli.ZeroPolicy(cfg),
		Publisher: publisher,
		Metrics:   m,
	})

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RequestTimeout:     cfg.RequestTimeout,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SessionTTL:         cfg.SessionTTL,
	}, grids, m, logger.WithComponent(log.ComponentHTTP))
	if err != nil {
		return fmt.Errorf("create HTTP server: %w", err)
	}
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting yeargrid server",
		"port", cfg.Port,
		"session_backend", cfg.SessionBackend,
		"max_tables", cfg.MaxTables,
		"max_rows", cfg.MaxRows)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	cli.WaitForShutdown(shutdownCtx, done)
	return nil
}
