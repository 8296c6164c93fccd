package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	log := New(Config{
		Level:      "info",
		LogDir:     tmpDir,
		MaxSizeMB:  5,
		MaxBackups: 3,
		Console:    false,
	})

	if log == nil {
		t.Fatal("Expected logger to be created")
	}

	log.Info().Msg("test message")

	logFile := filepath.Join(tmpDir, "gesture-analyzer.log")
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("Expected log file to be created")
	}
}

func TestNew_CustomFilename(t *testing.T) {
	tmpDir := t.TempDir()

	log := New(Config{
		Level:    "info",
		LogDir:   tmpDir,
		Filename: "custom.log",
	})

	log.Info().Msg("hello")

	if _, err := os.Stat(filepath.Join(tmpDir, "custom.log")); os.IsNotExist(err) {
		t.Error("Expected custom log file to be created")
	}
}

func TestNew_CreatesLogDir(t *testing.T) {
	tmpDir := t.TempDir()
	logDir := filepath.Join(tmpDir, "nested", "logs")

	log := New(Config{Level: "debug", LogDir: logDir})
	log.Debug().Msg("creates directory")

	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Error("Expected log directory to be created")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClose(t *testing.T) {
	log := New(Config{Level: "info", LogDir: t.TempDir()})
	if err := log.Close(); err != nil {
		t.Errorf("Unexpected error on close: %v", err)
	}
}

func TestWithField(t *testing.T) {
	base := New(Config{Level: "info", LogDir: t.TempDir()})

	derived := base.WithField("component", "extractor")
	if derived == nil {
		t.Fatal("Expected derived logger")
	}
	if derived == base {
		t.Error("Expected a new logger instance")
	}
	derived.Info().Msg("with field")
}

func TestWithFields(t *testing.T) {
	base := New(Config{Level: "info", LogDir: t.TempDir()})

	derived := base.WithFields(map[string]interface{}{
		"samples": 42,
		"gesture": "V",
	})
	if derived == nil {
		t.Fatal("Expected derived logger")
	}
	derived.Info().Msg("with fields")
}

func TestWithError(t *testing.T) {
	base := New(Config{Level: "info", LogDir: t.TempDir()})

	derived := base.WithError(errors.New("boom"))
	if derived == nil {
		t.Fatal("Expected derived logger")
	}
	derived.Error().Msg("with error")
}

func TestNop(t *testing.T) {
	log := Nop()
	// Must not panic or write anywhere.
	log.Info().Str("k", "v").Msg("discarded")
	log.Error().Msg("discarded too")
}
