package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shee/briefcast/internal/config"
	"github.com/shee/briefcast/internal/crawler"
	"github.com/shee/briefcast/internal/feeds"
	"github.com/shee/briefcast/internal/gemini"
	"github.com/shee/briefcast/internal/ledger"
	"github.com/shee/briefcast/internal/media"
	"github.com/shee/briefcast/internal/notify"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// Ledger entries older than this are pruned at startup, well past any
// crawl window anyone would configure.
const ledgerRetention = 90 * 24 * time.Hour

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Briefcast %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	var logLevel slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Briefcast", "version", version)

	feedURLs, err := feeds.Load(cfg.Crawl.FeedsPath)
	if err != nil {
		slog.Error("Failed to load feeds", "path", cfg.Crawl.FeedsPath, "error", err)
		os.Exit(1)
	}
	if len(feedURLs) == 0 {
		slog.Warn("No feeds configured, nothing to do", "path", cfg.Crawl.FeedsPath)
		return
	}

	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		slog.Error("Failed to open ledger", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if pruned, err := store.Prune(ledgerRetention); err != nil {
		slog.Warn("Ledger prune failed", "error", err)
	} else if pruned > 0 {
		slog.Info("Pruned old ledger entries", "count", pruned)
	}

	notifier := notify.New()

	client, err := gemini.New(gemini.Config{
		APIKey:   cfg.Gemini.APIKey,
		Model:    cfg.Gemini.Model,
		Debug:    cfg.Gemini.Debug,
		Notifier: notifier.Notify,
	})
	if err != nil {
		slog.Error("Failed to create Gemini client", "error", err)
		os.Exit(1)
	}

	c := &crawler.Crawler{
		Feeds:      feedURLs,
		Window:     time.Duration(cfg.Crawl.WindowHours) * time.Hour,
		ItemDelay:  time.Duration(cfg.Crawl.ItemDelaySeconds) * time.Second,
		YouTubeDir: cfg.Output.YouTubeDir,
		PodcastDir: cfg.Output.PodcastDir,
		Summarizer: client,
		Videos:     media.NewDownloader(),
		Store:      store,
		Notify:     notifier.Notify,
	}

	// Handle shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Crawl failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Crawl complete")
}
