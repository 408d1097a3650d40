package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"yeargrid/internal/amqp"
	"yeargrid/internal/cache"
	"yeargrid/internal/cli"
	"yeargrid/internal/config"
	"yeargrid/internal/log"
	"yeargrid/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg, log.ComponentWorker, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

// run returns only after the AMQP client and cache cleanup are closed.
func run(cfg *config.Config, logger *log.Logger) error {
	logger.Info("Starting yeargrid-worker", "export_backend", cfg.ExportBackend)

	exporter, err := cli.NewExporter(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("initialize grid exporter: %w", err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(exporter, cli.ZeroPolicy(cfg))

	caches := cache.NewManager(logger.Logger)
	caches.Register(exportWorker.Cache())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeGridSubmitted(gctx, exportWorker.HandleGridSubmitted)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("message consumption: %w", err)
	}

	cli.WaitForShutdown(ctx, done)
	return nil
}
