package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/analysis"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/config"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/notification"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/storage"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/watch"
	"github.com/zengchanghuan/gesture-analyzer-go/pkg/logger"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

// Version information - injected at build time via ldflags
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse CLI arguments first
	cli := config.ParseCLI()

	if cli.ShowHelp {
		config.PrintUsage()
		return exitSuccess
	}

	if cli.ShowVersion {
		fmt.Printf("gesture-analyzer %s\n", version)
		if gitCommit != "unknown" {
			fmt.Printf("  commit: %s\n", gitCommit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
		return exitSuccess
	}

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration with CLI overrides
	cfg, err := config.LoadWithCLI(cli)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return exitFailure
	}

	log := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		LogDir:     "./logs",
		Filename:   "analyzer.log",
		MaxSizeMB:  10,
		MaxBackups: 5,
		Console:    true,
	})
	defer func() {
		if err := log.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close logger: %v\n", err)
		}
	}()

	log.Info().Str("log_file", cfg.LogFile).Msg("Starting gesture log analyzer")
	if cfg.GroundTruth != "" {
		log.Info().Str("gesture", string(cfg.GroundTruth)).Msg("Using supplied ground truth")
	}

	if err := runAnalyzer(ctx, cfg, log); err != nil {
		var notFound *gesture.NotFoundError
		var noData *gesture.NoDataError
		switch {
		case errors.As(err, &notFound):
			log.Error().Str("path", notFound.Path).Msg("Log file not found")
		case errors.As(err, &noData):
			log.Error().Int("candidates", noData.Candidates).
				Msg("No valid gesture records found in the log")
		case errors.Is(err, context.Canceled):
			log.Info().Msg("Shutting down")
			return exitSuccess
		default:
			log.Error().Err(err).Msg("Analysis failed")
		}
		return exitFailure
	}

	log.Info().Msg("Analysis completed successfully")
	return exitSuccess
}

func runAnalyzer(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	// 1. Run history storage (if enabled)
	var store *storage.Storage
	if cfg.EnableHistory {
		var err error
		store, err = storage.New(cfg.HistoryDBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer func(store *storage.Storage) {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close database")
			}
		}(store)
		log.Info().Str("path", cfg.HistoryDBPath).Msg("Run history initialized")
	}

	// 2. Desktop notifications (if enabled)
	var notifier notification.Notifier = notification.Nop{}
	if cfg.EnableNotifications {
		notifier = notification.NewDesktop("Gesture Analyzer")
		log.Info().Msg("Desktop notifications enabled")
	}

	pipeline := analysis.New(cfg, log, store, notifier)

	if _, err := pipeline.Run(ctx); err != nil {
		return err
	}
	log.Info().Str("dir", cfg.OutputDir).Msg("Artifacts written")

	if !cfg.Watch {
		return nil
	}

	// 3. Watch mode: re-analyze whenever enough new candidate lines arrive.
	watcher, err := watch.New(cfg.LogFile, cfg.WatchThreshold, log, func(ctx context.Context) error {
		result, err := pipeline.Run(ctx)
		if err != nil {
			// A truncated or rotated file may briefly hold no records;
			// keep watching instead of exiting.
			var noData *gesture.NoDataError
			if errors.As(err, &noData) {
				log.Warn().Msg("No valid records after log change, waiting for more")
				return nil
			}
			return err
		}
		log.Info().Int("samples", len(result.Batch.Samples)).Msg("Re-analysis completed")
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	log.Info().Int("threshold", cfg.WatchThreshold).Msg("Entering watch mode (Ctrl+C to stop)")
	return watcher.Run(ctx)
}
