// Command leakauditd is a thin demonstration binary wiring the core
// field-discovery/leak-detection Collector to a real Chrome instance
// for a single target URL. It is not the excluded CLI front-end (§1):
// it carries no config-file loading, flag-driven crawl scheduling, or
// output formatting beyond a single JSON dump, existing only to show
// the Collector driven end-to-end.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	leakdetect "github.com/stevenwdv/leak-detect-sub000"
	"github.com/stevenwdv/leak-detect-sub000/internal/browserfacade"
)

func main() {
	targetURL := flag.String("url", "", "target URL to audit")
	headless := flag.Bool("headless", true, "run Chrome headless")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	if *targetURL == "" {
		fmt.Fprintln(os.Stderr, "usage: leakauditd -url <url>")
		os.Exit(1)
	}

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *targetURL, *headless); err != nil {
		logger.Error("leakauditd: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, targetURL string, headless bool) error {
	facade, err := browserfacade.Launch(browserfacade.Config{
		Headless: headless,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer facade.Close()

	page, err := facade.NewPage(ctx, targetURL, 30*time.Second)
	if err != nil {
		return fmt.Errorf("open target page: %w", err)
	}
	defer page.Close()

	collector := leakdetect.New()
	cfg := leakdetect.DefaultConfig()
	if err := collector.Init(ctx, leakdetect.Context{
		Browser:  facade.Browser(),
		Logger:   logger,
		FinalURL: targetURL,
	}, cfg); err != nil {
		return fmt.Errorf("init collector: %w", err)
	}
	defer collector.Close()

	logger.Info("leakauditd: starting crawl", "id", collector.ID(), "url", targetURL)
	if err := collector.Run(page); err != nil {
		return fmt.Errorf("run collector: %w", err)
	}

	result := collector.GetData()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
