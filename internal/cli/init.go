// Package cli provides common CLI initialization utilities shared by
// cmd/yeargrid and cmd/yeargrid-worker.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"yeargrid/internal/config"
	"yeargrid/internal/core"
	applog "yeargrid/internal/log"
	"yeargrid/internal/sheets"
	gsheet "yeargrid/internal/sheets/google"
	mem "yeargrid/internal/sheets/memory"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from cfg and installs it as
// the slog default.
func SetupLogger(cfg *config.Config, component string, w io.Writer) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     cfg.SlogLevel(),
		Component: component,
		Handler:   applog.NewHandler(cfg.LogFormat, cfg.SlogLevel(), w),
	})
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and runs check on it.
// Exits the process when either step fails.
func LoadAndValidateConfig(check func(*config.Config) error) *config.Config {
	cfg, err := config.Load()
	if err == nil {
		err = check(cfg)
	}
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// ZeroPolicy maps the ZERO_IS_BLANK switch to the grid rule.
func ZeroPolicy(cfg *config.Config) core.ZeroPolicy {
	if cfg.ZeroIsBlank {
		return core.ZeroIsBlank
	}
	return core.ZeroIsPresent
}

// NewExporter returns the grid exporter selected by EXPORT_BACKEND.
func NewExporter(ctx context.Context, cfg *config.Config) (sheets.GridExporter, error) {
	switch cfg.ExportBackend {
	case "sheets":
		cli, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize Google Sheets exporter: %w", err)
		}
		return cli, nil
	case "memory", "":
		return mem.New(), nil
	default:
		return nil, fmt.Errorf("unsupported export backend: %s", cfg.ExportBackend)
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete. cleanup gets a
// context bounded by timeout.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
