package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cashboard/internal/cli"
	"cashboard/internal/export"
)

func main() {
	formatFlag := flag.String("format", "json", "Export format (json or xlsx)")
	stdout := flag.Bool("stdout", false, "Write the artifact to stdout instead of the configured sink")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stderr)
	cfg := cli.LoadAndValidateConfig(logger)

	f, err := export.ParseFormat(*formatFlag)
	if err != nil {
		logger.Error("Invalid export format", "error", err, "format", *formatFlag)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.APITimeout)
	defer cancel()

	st, client := cli.NewStore(cfg, logger)
	if err := st.FetchTransactions(ctx); err != nil {
		logger.Error("Failed to load transactions", "error", err, "api", client.BaseURL())
		os.Exit(1)
	}

	artifact, err := st.Export(f)
	if err != nil {
		logger.Error("Failed to build export", "error", err, "format", f)
		os.Exit(1)
	}

	if *stdout {
		if _, err := os.Stdout.Write(artifact.Data); err != nil {
			logger.Error("Failed to write export", "error", err)
			os.Exit(1)
		}
		return
	}

	sink, closeSink, err := cli.BuildSink(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize export sink", "error", err, "sink", cfg.ExportSink)
		os.Exit(1)
	}
	defer func() { _ = closeSink() }()

	loc, err := sink.Put(ctx, artifact)
	if err != nil {
		logger.Error("Failed to store export", "error", err, "sink", cfg.ExportSink)
		os.Exit(1)
	}
	logger.Info("Export stored", "location", loc, "name", artifact.Name, "bytes", len(artifact.Data))
	fmt.Println(loc)
}
