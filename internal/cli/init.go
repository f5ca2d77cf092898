// Package cli provides common CLI initialization utilities shared by
// cmd/cashboard, cmd/cashboard-tui and cmd/cashboard-export.
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

	"cashboard/internal/api"
	"cashboard/internal/config"
	"cashboard/internal/export"
	"cashboard/internal/log"
	"cashboard/internal/store"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default slog logger.
func SetupLogger(level string, out io.Writer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	if out != nil {
		cfg.Output = out
	}
	logger := log.New(cfg)
	slog.SetDefault(logger.Logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// NewStore builds the backend client and the shared store from cfg.
func NewStore(cfg *config.Config, logger *log.Logger) (*store.Store, *api.Client) {
	client := api.NewClient(cfg.APIBaseURL, api.WithTimeout(cfg.APITimeout))
	st := store.New(client,
		store.WithLogger(logger),
		store.WithErrorDisplay(cfg.ErrorDisplay),
	)
	return st, client
}

// BuildSink returns the export destination selected by EXPORT_SINK. The
// returned close function is never nil.
func BuildSink(ctx context.Context, cfg *config.Config) (export.Sink, func() error, error) {
	switch cfg.ExportSink {
	case "gcs":
		sink, err := export.NewGCSSink(ctx, cfg.ExportGCSBucket, cfg.ExportGCSPrefix, cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, func() error { return nil }, err
		}
		return sink, sink.Close, nil
	case "file", "":
		return export.FileSink{Dir: cfg.ExportDir}, func() error { return nil }, nil
	default:
		return nil, func() error { return nil }, fmt.Errorf("unknown export sink %q", cfg.ExportSink)
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

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
