package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"cashboard/internal/carousel"
	"cashboard/internal/cli"
	"cashboard/internal/export"
	"cashboard/internal/format"
	"cashboard/internal/tui"
)

func main() {
	apiURL := flag.String("api-url", "", "Finance API URL (overrides API_BASE_URL)")
	exportFormat := flag.String("format", "json", "Export format for the e key (json or xlsx)")
	flag.Parse()

	cli.LoadEnvFile()
	if *apiURL != "" {
		_ = os.Setenv("API_BASE_URL", *apiURL)
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if path := os.Getenv("TUI_LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), out)

	cfg := cli.LoadAndValidateConfig(logger)
	f, err := export.ParseFormat(*exportFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	money, err := format.NewMoney(cfg.Locale, cfg.Currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	st, _ := cli.NewStore(cfg, logger)
	sink, closeSink, err := cli.BuildSink(context.Background(), cfg)
	if err != nil {
		logger.Warn("Export sink unavailable", "error", err, "sink", cfg.ExportSink)
	}
	defer func() { _ = closeSink() }()

	m := tui.NewModel(tui.Options{
		Store: st,
		Carousel: carousel.New(carousel.Config{
			Panes:    tui.PaneCount,
			Autoplay: cfg.CarouselAutoplay,
			Interval: cfg.CarouselInterval,
		}),
		Sink:   sink,
		Money:  money,
		Logger: logger,
		Format: f,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
