package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/config"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/report"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/storage"
	"github.com/zengchanghuan/gesture-analyzer-go/pkg/logger"
)

const sampleLine = "[HandGestureDebug] V手势 ✓ lenIdx:0.10 lenMid:0.12 lenRing:0.09 lenLit:0.08 " +
	"gapIdxMid:0.021 gapThumbIdx:0.015 ratio idx/mid:0.92 ring/mid:0.75 lit/mid:0.60 " +
	"score V/OK/Palm/Fist/Idx = 5/1/0/-1/2"

// recordingNotifier captures the last notification for assertions.
type recordingNotifier struct {
	title string
	body  string
}

func (n *recordingNotifier) Notify(title, body string) error {
	n.title = title
	n.body = body
	return nil
}

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gesture.log")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write log file: %v", err)
	}
	return path
}

func testConfig(t *testing.T, logFile string) *config.Config {
	t.Helper()
	return &config.Config{
		LogFile:      logFile,
		MaxLogSizeMB: 50,
		OutputDir:    t.TempDir(),
		Plots:        false,
	}
}

func TestRun_WritesArtifacts(t *testing.T) {
	logFile := writeLog(t,
		"2026/03/10 unrelated line",
		sampleLine,
		sampleLine,
		"[HandGestureDebug] broken candidate",
	)
	cfg := testConfig(t, logFile)

	notifier := &recordingNotifier{}
	p := New(cfg, logger.Nop(), nil, notifier)
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Batch.Samples) != 2 {
		t.Errorf("Expected 2 samples, got %d", len(result.Batch.Samples))
	}
	if result.ParseFailures != 1 {
		t.Errorf("Expected 1 parse failure, got %d", result.ParseFailures)
	}

	for _, name := range []string{report.CSVName, report.SummaryName, report.JSONName, report.HTMLName} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, name)); err != nil {
			t.Errorf("Expected artifact %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, report.ScaleChart)); !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected no chart with plots disabled")
	}

	html, err := os.ReadFile(filepath.Join(cfg.OutputDir, report.HTMLName))
	if err != nil {
		t.Fatalf("Failed to read HTML report: %v", err)
	}
	if strings.Contains(string(html), ".png") {
		t.Error("Expected HTML report without chart references when plots are disabled")
	}

	if notifier.title == "" {
		t.Error("Expected a notification to be sent")
	}
	if !strings.Contains(notifier.body, "2 samples") {
		t.Errorf("Unexpected notification body: %q", notifier.body)
	}
}

func TestRun_RendersCharts(t *testing.T) {
	lines := make([]string, 10)
	for i := range lines {
		// Spread the finger lengths so the scale histogram has a real range.
		lines[i] = fmt.Sprintf("[HandGestureDebug] V手势 ✓ lenIdx:%.2f lenMid:%.2f lenRing:%.2f lenLit:%.2f "+
			"gapIdxMid:0.021 gapThumbIdx:0.015 ratio idx/mid:0.92 ring/mid:0.75 lit/mid:0.60 "+
			"score V/OK/Palm/Fist/Idx = 5/1/0/-1/2",
			0.08+float64(i)*0.01, 0.10+float64(i)*0.01, 0.07+float64(i)*0.01, 0.06+float64(i)*0.01)
	}
	cfg := testConfig(t, writeLog(t, lines...))
	cfg.Plots = true
	cfg.GroundTruth = gesture.GestureV

	p := New(cfg, logger.Nop(), nil, nil)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, name := range []string{report.ScaleChart, report.AccuracyChart} {
		info, err := os.Stat(filepath.Join(cfg.OutputDir, name))
		if err != nil {
			t.Fatalf("Expected chart %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("Expected non-empty chart %s", name)
		}
	}
}

func TestRun_MissingLogFile(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing.log"))

	p := New(cfg, logger.Nop(), nil, nil)
	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Expected an error for a missing log file")
	}
	var notFound *gesture.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError, got %T: %v", err, err)
	}
}

func TestRun_NoValidRecords(t *testing.T) {
	cfg := testConfig(t, writeLog(t, "nothing relevant", "[HandGestureDebug] junk"))

	p := New(cfg, logger.Nop(), nil, nil)
	_, err := p.Run(context.Background())
	var noData *gesture.NoDataError
	if !errors.As(err, &noData) {
		t.Fatalf("Expected NoDataError, got %T: %v", err, err)
	}
}

func TestRun_RejectsOversizeLog(t *testing.T) {
	line := strings.Repeat("x", 1024)
	lines := make([]string, 1100) // just over 1 MB
	for i := range lines {
		lines[i] = line
	}
	cfg := testConfig(t, writeLog(t, lines...))
	cfg.MaxLogSizeMB = 1

	p := New(cfg, logger.Nop(), nil, nil)
	_, err := p.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("Expected size-limit error, got %v", err)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	cfg := testConfig(t, writeLog(t, sampleLine))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(cfg, logger.Nop(), nil, nil)
	if _, err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestRun_RecordsHistory(t *testing.T) {
	cfg := testConfig(t, writeLog(t, sampleLine, sampleLine, sampleLine))
	cfg.GroundTruth = gesture.GestureV
	cfg.HistoryRetentionDays = 90

	store, err := storage.New(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	p := New(cfg, logger.Nop(), store, nil)
	for i := 0; i < 2; i++ {
		if _, err := p.Run(context.Background()); err != nil {
			t.Fatalf("Run %d failed: %v", i+1, err)
		}
	}

	runs, err := store.GetRecentRuns(7, cfg.LogFile)
	if err != nil {
		t.Fatalf("GetRecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 recorded runs, got %d", len(runs))
	}
	run := runs[0]
	if run.TotalSamples != 3 {
		t.Errorf("Expected 3 samples in history, got %d", run.TotalSamples)
	}
	if run.OverallAccuracy == nil || *run.OverallAccuracy != 1.0 {
		t.Errorf("Expected 100%% accuracy in history, got %v", run.OverallAccuracy)
	}
	if run.DominantGesture != string(gesture.GestureV) {
		t.Errorf("Expected dominant gesture V, got %q", run.DominantGesture)
	}
}

func TestAccuracyTrend(t *testing.T) {
	cfg := testConfig(t, "gesture.log")
	cfg.HistoryRetentionDays = 90

	store, err := storage.New(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	for i, acc := range []float64{0.62, 0.71, 0.78} {
		v := acc
		run := &storage.Run{
			Timestamp:       time.Now().Add(time.Duration(i-3) * time.Hour),
			LogFile:         cfg.LogFile,
			TotalSamples:    10,
			DominantGesture: "V",
			OverallAccuracy: &v,
		}
		if err := store.SaveRun(run); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	p := New(cfg, logger.Nop(), store, nil)
	trend := p.accuracyTrend()
	if trend != "62.0% -> 71.0% -> 78.0%" {
		t.Errorf("Unexpected trend %q", trend)
	}
}
