package config

import (
	"strings"
	"testing"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
)

func validConfig() *Config {
	return &Config{
		LogFile:              "/var/log/app/gesture.log",
		MaxLogSizeMB:         50,
		OutputDir:            "./gesture_analysis",
		Plots:                true,
		WatchThreshold:       20,
		EnableHistory:        true,
		HistoryDBPath:        "./data/gesture_runs.db",
		HistoryRetentionDays: 90,
		LogLevel:             "info",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		expectError   bool
		errorContains string
	}{
		{
			name:        "Valid config",
			mutate:      func(*Config) {},
			expectError: false,
		},
		{
			name:          "Missing log file",
			mutate:        func(c *Config) { c.LogFile = "" },
			expectError:   true,
			errorContains: "log file is required",
		},
		{
			name:          "Empty output directory",
			mutate:        func(c *Config) { c.OutputDir = "" },
			expectError:   true,
			errorContains: "output directory",
		},
		{
			name:          "Non-positive max log size",
			mutate:        func(c *Config) { c.MaxLogSizeMB = 0 },
			expectError:   true,
			errorContains: "MAX_LOG_SIZE_MB",
		},
		{
			name:          "Non-positive watch threshold",
			mutate:        func(c *Config) { c.WatchThreshold = -1 },
			expectError:   true,
			errorContains: "watch threshold",
		},
		{
			name:          "History enabled without path",
			mutate:        func(c *Config) { c.HistoryDBPath = "" },
			expectError:   true,
			errorContains: "HISTORY_DB_PATH",
		},
		{
			name:          "History enabled with bad retention",
			mutate:        func(c *Config) { c.HistoryRetentionDays = 0 },
			expectError:   true,
			errorContains: "HISTORY_RETENTION_DAYS",
		},
		{
			name: "History disabled ignores history settings",
			mutate: func(c *Config) {
				c.EnableHistory = false
				c.HistoryDBPath = ""
				c.HistoryRetentionDays = 0
			},
			expectError: false,
		},
		{
			name:          "Invalid log level",
			mutate:        func(c *Config) { c.LogLevel = "verbose" },
			expectError:   true,
			errorContains: "LOG_LEVEL",
		},
		{
			name:        "Uppercase log level accepted",
			mutate:      func(c *Config) { c.LogLevel = "DEBUG" },
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected validation error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error containing %q, got: %v", tt.errorContains, err)
				}
			} else if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	// t.Setenv automatically cleans up
	t.Setenv("LOG_FILE", "/var/log/app/gesture.log")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WATCH_THRESHOLD", "35")
	t.Setenv("ENABLE_NOTIFICATIONS", "true")

	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.LogFile != "/var/log/app/gesture.log" {
		t.Errorf("Unexpected log file: %s", config.LogFile)
	}
	if config.LogLevel != "debug" {
		t.Errorf("Unexpected log level: %s", config.LogLevel)
	}
	if config.WatchThreshold != 35 {
		t.Errorf("Expected watch threshold 35, got %d", config.WatchThreshold)
	}
	if !config.EnableNotifications {
		t.Error("Expected notifications to be enabled")
	}
	// Defaults fill what the environment left unset.
	if config.OutputDir != "./gesture_analysis" {
		t.Errorf("Unexpected default output dir: %s", config.OutputDir)
	}
	if !config.Plots {
		t.Error("Expected plots enabled by default")
	}
	if config.GroundTruth != "" {
		t.Errorf("Expected auto-detected ground truth by default, got %s", config.GroundTruth)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	t.Setenv("LOG_FILE", "")

	if _, err := Load(); err == nil {
		t.Fatal("Expected validation failure without a log file")
	}
}

func TestLoadWithCLI_Overrides(t *testing.T) {
	t.Setenv("LOG_FILE", "/var/log/app/env.log")
	t.Setenv("OUTPUT_DIR", "/tmp/env-output")

	cli := &CLIOptions{
		LogFile:        "/var/log/app/cli.log",
		OutputDir:      "/tmp/cli-output",
		GTGesture:      "OK",
		NoPlots:        true,
		Watch:          true,
		WatchThreshold: 5,
	}

	config, err := LoadWithCLI(cli)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.LogFile != cli.LogFile {
		t.Errorf("Expected CLI log file to win, got %s", config.LogFile)
	}
	if config.OutputDir != cli.OutputDir {
		t.Errorf("Expected CLI output dir to win, got %s", config.OutputDir)
	}
	if config.GroundTruth != gesture.GestureOK {
		t.Errorf("Expected ground truth OK, got %s", config.GroundTruth)
	}
	if config.Plots {
		t.Error("Expected -no-plots to disable plots")
	}
	if !config.Watch {
		t.Error("Expected watch mode to be enabled")
	}
	if config.WatchThreshold != 5 {
		t.Errorf("Expected watch threshold 5, got %d", config.WatchThreshold)
	}
}

func TestLoadWithCLI_InvalidGesture(t *testing.T) {
	t.Setenv("LOG_FILE", "/var/log/app/gesture.log")

	_, err := LoadWithCLI(&CLIOptions{GTGesture: "Thumbs"})
	if err == nil {
		t.Fatal("Expected error for invalid ground-truth gesture")
	}
	if !strings.Contains(err.Error(), "invalid -gt-gesture") {
		t.Errorf("Unexpected error: %v", err)
	}
}
