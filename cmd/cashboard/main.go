package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"cashboard/internal/cache"
	"cashboard/internal/cli"
	"cashboard/internal/format"
	apphttp "cashboard/internal/http"
	"cashboard/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger)

	money, err := format.NewMoney(cfg.Locale, cfg.Currency)
	if err != nil {
		logger.Error("Invalid money format", "error", err, "locale", cfg.Locale, "currency", cfg.Currency)
		os.Exit(1)
	}

	st, client := cli.NewStore(cfg, logger)

	sink, closeSink, err := cli.BuildSink(context.Background(), cfg)
	if err != nil {
		// Downloads still work without a sink.
		logger.Warn("Export sink unavailable", "error", err, "sink", cfg.ExportSink)
	}

	sessions := session.NewManager(session.Config{
		TTL:                 cfg.SessionTTL,
		Max:                 cfg.SessionMax,
		OwnerID:             cfg.OwnerID,
		UploadStatusDisplay: cfg.UploadStatusDisplay,
		CarouselPanes:       apphttp.CarouselPanes,
		CarouselInterval:    cfg.CarouselInterval,
		CarouselAutoplay:    cfg.CarouselAutoplay,
	}, logger)

	caches := cache.NewManager(logger)
	caches.Register(sessions.Cleaner())
	caches.StartCleanup(time.Minute)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Store:              st,
		Sessions:           sessions,
		Money:              money,
		Sink:               sink,
		Backend:            client,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		logger.Error("Failed to build server", "error", err)
		os.Exit(1)
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), cfg.APITimeout)
	if err := st.Refresh(initCtx); err != nil {
		logger.Warn("Initial load failed, dashboard will show the error", "error", err, "api", client.BaseURL())
	}
	initCancel()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if err := closeSink(); err != nil {
			logger.Error("Export sink close error", "error", err)
		}
	})

	logger.Info("Starting cashboard server", "port", cfg.Port, "api", client.BaseURL(), "sink", cfg.ExportSink)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
