// Package config loads the analyzer configuration from environment
// variables, an optional .env file, and command-line flags.
// Priority: CLI args > .env file > OS environment variables > defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
)

// CLIOptions holds command-line argument overrides
type CLIOptions struct {
	LogFile        string // -log-file: path to the gesture debug log (required)
	OutputDir      string // -output-dir: artifact directory
	GTGesture      string // -gt-gesture: asserted ground-truth gesture
	NoPlots        bool   // -no-plots: skip PNG chart rendering
	Watch          bool   // -watch: keep monitoring the log file
	WatchThreshold int    // -watch-threshold: new candidate lines per re-analysis
	ShowHelp       bool   // -help: show usage
	ShowVersion    bool   // -version: show version
}

// ParseCLI parses command-line arguments and returns CLIOptions
func ParseCLI() *CLIOptions {
	opts := &CLIOptions{}

	flag.StringVar(&opts.LogFile, "log-file", "", "Path to the gesture debug log file (required)")
	flag.StringVar(&opts.OutputDir, "output-dir", "", "Directory for generated artifacts (overrides config)")
	flag.StringVar(&opts.GTGesture, "gt-gesture", "", "Ground-truth gesture for the whole log: V, OK, Palm, Fist, Idx")
	flag.BoolVar(&opts.NoPlots, "no-plots", false, "Skip PNG chart rendering")
	flag.BoolVar(&opts.Watch, "watch", false, "Keep watching the log file and re-analyze as it grows")
	flag.IntVar(&opts.WatchThreshold, "watch-threshold", 0, "New gesture lines required to trigger a re-analysis in watch mode (overrides config)")
	flag.BoolVar(&opts.ShowHelp, "help", false, "Show usage information")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Show version information")

	// Custom usage message
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Gesture Analyzer - statistics and tuning advice from hand-gesture debug logs\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nExamples:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  %s -log-file /var/log/app/gesture.log\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "  %s -log-file gesture.log -gt-gesture V -output-dir ./analysis\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "  %s -log-file gesture.log -watch -watch-threshold 50\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment variables can be set in .env file or exported directly.\n")
		_, _ = fmt.Fprintf(os.Stderr, "CLI arguments override environment variables.\n")
	}

	flag.Parse()

	return opts
}

// PrintUsage prints the command-line usage information
func PrintUsage() {
	flag.Usage()
}

// Config holds all application configuration
type Config struct {
	// Input
	LogFile      string
	MaxLogSizeMB int

	// Analysis
	GroundTruth gesture.Gesture // empty when the dominant gesture is auto-detected
	OutputDir   string
	Plots       bool

	// Watch mode
	Watch          bool
	WatchThreshold int

	// History
	EnableHistory        bool
	HistoryDBPath        string
	HistoryRetentionDays int

	// Notifications
	EnableNotifications bool

	// Application
	LogLevel string
}

// Load loads configuration from .env file and environment variables
// For CLI overrides, use LoadWithCLI instead
func Load() (*Config, error) {
	return LoadWithCLI(nil)
}

// LoadWithCLI loads configuration with CLI argument overrides
func LoadWithCLI(cli *CLIOptions) (*Config, error) {
	// Set up viper first to read OS environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// godotenv.Load() sets OS env vars from .env, which viper will then read
	_ = godotenv.Load()

	setDefaults()

	config := &Config{
		LogFile:      viper.GetString("LOG_FILE"),
		MaxLogSizeMB: viper.GetInt("MAX_LOG_SIZE_MB"),

		OutputDir: viper.GetString("OUTPUT_DIR"),
		Plots:     viper.GetBool("ENABLE_PLOTS"),

		WatchThreshold: viper.GetInt("WATCH_THRESHOLD"),

		EnableHistory:        viper.GetBool("ENABLE_HISTORY"),
		HistoryDBPath:        viper.GetString("HISTORY_DB_PATH"),
		HistoryRetentionDays: viper.GetInt("HISTORY_RETENTION_DAYS"),

		EnableNotifications: viper.GetBool("ENABLE_NOTIFICATIONS"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Apply CLI overrides (highest priority)
	if cli != nil {
		if cli.LogFile != "" {
			config.LogFile = cli.LogFile
		}
		if cli.OutputDir != "" {
			config.OutputDir = cli.OutputDir
		}
		if cli.GTGesture != "" {
			g, err := gesture.ParseGesture(cli.GTGesture)
			if err != nil {
				return nil, fmt.Errorf("invalid -gt-gesture: %w", err)
			}
			config.GroundTruth = g
		}
		if cli.NoPlots {
			config.Plots = false
		}
		if cli.Watch {
			config.Watch = true
		}
		if cli.WatchThreshold > 0 {
			config.WatchThreshold = cli.WatchThreshold
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("MAX_LOG_SIZE_MB", 50)
	viper.SetDefault("OUTPUT_DIR", "./gesture_analysis")
	viper.SetDefault("ENABLE_PLOTS", true)
	viper.SetDefault("WATCH_THRESHOLD", 20)
	viper.SetDefault("ENABLE_HISTORY", true)
	viper.SetDefault("HISTORY_DB_PATH", "./data/gesture_runs.db")
	viper.SetDefault("HISTORY_RETENTION_DAYS", 90)
	viper.SetDefault("ENABLE_NOTIFICATIONS", false)
	viper.SetDefault("LOG_LEVEL", "info")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LogFile == "" {
		return fmt.Errorf("log file is required (use -log-file or set LOG_FILE)")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}

	if c.MaxLogSizeMB <= 0 {
		return fmt.Errorf("MAX_LOG_SIZE_MB must be positive, got %d", c.MaxLogSizeMB)
	}

	if c.WatchThreshold <= 0 {
		return fmt.Errorf("watch threshold must be positive, got %d", c.WatchThreshold)
	}

	if c.EnableHistory {
		if c.HistoryDBPath == "" {
			return fmt.Errorf("HISTORY_DB_PATH is required when history is enabled")
		}
		if c.HistoryRetentionDays <= 0 {
			return fmt.Errorf("HISTORY_RETENTION_DAYS must be positive, got %d", c.HistoryRetentionDays)
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q (valid: trace, debug, info, warn, error)", c.LogLevel)
	}

	return nil
}
