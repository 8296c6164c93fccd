// Package analysis orchestrates one run: extract samples from the log,
// derive features, diagnose issues, generate recommendations, and render
// artifacts. The watch loop and the CLI both drive runs through Pipeline.
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/config"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/notification"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/report"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/storage"
	"github.com/zengchanghuan/gesture-analyzer-go/pkg/logger"
)

// trendRuns is how many recent runs feed the accuracy trend log line.
const trendRuns = 5

// Pipeline runs whole-file analyses. Store may be nil when history is
// disabled; the notifier is never nil (use notification.Nop).
type Pipeline struct {
	cfg      *config.Config
	log      *logger.Logger
	store    *storage.Storage
	notifier notification.Notifier
}

// Result is the outcome of one completed run.
type Result struct {
	Batch           *gesture.Batch
	Issues          []gesture.Issue
	Recommendations []gesture.Recommendation
	ParseFailures   int
	OutputDir       string
}

// New creates a pipeline.
func New(cfg *config.Config, log *logger.Logger, store *storage.Storage, notifier notification.Notifier) *Pipeline {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Pipeline{cfg: cfg, log: log, store: store, notifier: notifier}
}

// Run performs one full analysis of the configured log file and writes all
// artifacts into the output directory.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	if err := p.checkInputSize(); err != nil {
		return nil, err
	}

	extracted, err := gesture.ExtractFile(p.cfg.LogFile)
	if err != nil {
		return nil, err
	}
	for _, failure := range extracted.Failures {
		p.log.WithFields(map[string]interface{}{
			"line":   failure.Line,
			"reason": failure.Reason,
		}).Warn().Msgf("Skipping unparsable line: %s", failure.Content)
	}
	p.log.WithFields(map[string]interface{}{
		"samples":    len(extracted.Samples),
		"candidates": extracted.Candidates,
		"failures":   extracted.FailureCount(),
	}).Info().Msg("Extraction completed")

	batch := gesture.Derive(extracted.Samples, p.cfg.GroundTruth)
	issues := gesture.Diagnose(batch)
	recommendations := gesture.Recommend(batch, issues)

	p.logHeadline(batch, issues, recommendations)

	result := &Result{
		Batch:           batch,
		Issues:          issues,
		Recommendations: recommendations,
		ParseFailures:   extracted.FailureCount(),
		OutputDir:       p.cfg.OutputDir,
	}

	if err := p.writeArtifacts(result, start); err != nil {
		return nil, err
	}

	if p.store != nil {
		p.recordRun(result, start)
	}

	body := notification.RunSummary(len(batch.Samples), batch.DominantLabel(), overallAccuracy(batch), issues)
	if err := p.notifier.Notify("Analysis completed", body); err != nil {
		p.log.WithError(err).Warn().Msg("Failed to send notification")
	}

	p.log.WithField("duration", time.Since(start).Round(time.Millisecond).String()).
		Info().Msg("Analysis run completed")
	return result, nil
}

// checkInputSize rejects input files beyond the configured limit before any
// parsing work.
func (p *Pipeline) checkInputSize() error {
	info, err := os.Stat(p.cfg.LogFile)
	if err != nil {
		// Let the extractor produce its typed not-found error.
		return nil
	}
	limit := int64(p.cfg.MaxLogSizeMB) * 1024 * 1024
	if info.Size() > limit {
		return fmt.Errorf("log file is %s, exceeds the %d MB limit",
			humanize.Bytes(uint64(info.Size())), p.cfg.MaxLogSizeMB)
	}
	return nil
}

func (p *Pipeline) logHeadline(b *gesture.Batch, issues []gesture.Issue, recs []gesture.Recommendation) {
	fields := map[string]interface{}{
		"samples":         len(b.Samples),
		"dominant":        b.DominantLabel(),
		"issues":          len(issues),
		"recommendations": len(recs),
	}
	if acc, ok := b.OverallAccuracy(); ok {
		fields["accuracy"] = fmt.Sprintf("%.1f%%", acc*100)
	}
	p.log.WithFields(fields).Info().Msg("Diagnosis completed")
}

// writeArtifacts renders every artifact into the output directory. Chart
// rendering failures are logged but do not fail the run; the data artifacts
// must all succeed.
func (p *Pipeline) writeArtifacts(result *Result, start time.Time) error {
	if err := os.MkdirAll(p.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	charts := false
	if p.cfg.Plots {
		charts = p.writeCharts(result.Batch)
	}

	in := &report.Input{
		LogFile:         p.cfg.LogFile,
		GeneratedAt:     start,
		Batch:           result.Batch,
		Issues:          result.Issues,
		Recommendations: result.Recommendations,
		ParseFailures:   result.ParseFailures,
		Charts:          charts,
	}

	writers := []struct {
		name  string
		write func() error
	}{
		{report.CSVName, func() error { return report.WriteCSV(p.artifact(report.CSVName), result.Batch) }},
		{report.SummaryName, func() error { return report.WriteSummary(p.artifact(report.SummaryName), in) }},
		{report.JSONName, func() error { return report.WriteJSON(p.artifact(report.JSONName), in) }},
		{report.HTMLName, func() error { return report.WriteHTML(p.artifact(report.HTMLName), in) }},
	}
	for _, w := range writers {
		if err := w.write(); err != nil {
			return fmt.Errorf("failed to write %s: %w", w.name, err)
		}
		p.log.WithField("artifact", w.name).Debug().Msg("Artifact written")
	}
	return nil
}

// writeCharts reports whether every applicable chart was rendered.
func (p *Pipeline) writeCharts(b *gesture.Batch) bool {
	if err := report.WriteScaleChart(p.artifact(report.ScaleChart), b); err != nil {
		p.log.WithError(err).Warn().Msg("Failed to render scale chart")
		return false
	}
	if b.Truth.Known() {
		if err := report.WriteAccuracyChart(p.artifact(report.AccuracyChart), b); err != nil {
			p.log.WithError(err).Warn().Msg("Failed to render accuracy chart")
			return false
		}
	}
	return true
}

func (p *Pipeline) artifact(name string) string {
	return filepath.Join(p.cfg.OutputDir, name)
}

// recordRun persists the run headline and logs the recent accuracy trend.
// History failures never fail the run.
func (p *Pipeline) recordRun(result *Result, start time.Time) {
	run := &storage.Run{
		Timestamp:           start,
		LogFile:             p.cfg.LogFile,
		TotalSamples:        len(result.Batch.Samples),
		DominantGesture:     result.Batch.DominantLabel(),
		OverallAccuracy:     overallAccuracy(result.Batch),
		IssueCount:          len(result.Issues),
		RecommendationCount: len(result.Recommendations),
		ParseFailures:       result.ParseFailures,
	}
	if run.OverallAccuracy != nil {
		run.AccuracyByGroup = make(map[string]float64)
		for _, group := range gesture.DistanceGroups {
			if acc, _, ok := result.Batch.GroupAccuracy(group); ok {
				run.AccuracyByGroup[string(group)] = acc
			}
		}
	}

	if err := p.store.SaveRun(run); err != nil {
		p.log.WithError(err).Warn().Msg("Failed to save run history")
		return
	}

	if trend := p.accuracyTrend(); trend != "" {
		p.log.WithField("trend", trend).Info().Msg("Recent accuracy trend")
	}

	if deleted, err := p.store.CleanupOldRuns(p.cfg.HistoryRetentionDays); err != nil {
		p.log.WithError(err).Warn().Msg("Failed to prune run history")
	} else if deleted > 0 {
		p.log.WithField("deleted", deleted).Debug().Msg("Pruned old runs")
	}
}

// accuracyTrend formats the last few runs' accuracies, oldest first.
func (p *Pipeline) accuracyTrend() string {
	runs, err := p.store.GetRecentRuns(p.cfg.HistoryRetentionDays, p.cfg.LogFile)
	if err != nil {
		p.log.WithError(err).Warn().Msg("Failed to load run history")
		return ""
	}
	if len(runs) > trendRuns {
		runs = runs[:trendRuns]
	}

	// GetRecentRuns returns newest first; print oldest first.
	var parts []string
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].OverallAccuracy == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%.1f%%", *runs[i].OverallAccuracy*100))
	}
	if len(parts) < 2 {
		return ""
	}
	out := parts[0]
	for _, part := range parts[1:] {
		out += " -> " + part
	}
	return out
}

func overallAccuracy(b *gesture.Batch) *float64 {
	if acc, ok := b.OverallAccuracy(); ok {
		return &acc
	}
	return nil
}
