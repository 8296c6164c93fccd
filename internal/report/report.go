// Package report renders the artifacts of one analysis run: the parsed-data
// CSV, the Markdown statistics summary, the JSON report, the HTML report,
// and the PNG charts. Renderers take derived data and write files; they
// never diagnose or log.
package report

import (
	"time"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
)

// Artifact file names within the output directory.
const (
	CSVName       = "gesture_parsed.csv"
	SummaryName   = "stats_summary.md"
	JSONName      = "analysis_report.json"
	HTMLName      = "report.html"
	ScaleChart    = "scale_distribution.png"
	AccuracyChart = "accuracy_analysis.png"
)

// Input carries everything the renderers need about one completed run.
type Input struct {
	LogFile         string
	GeneratedAt     time.Time
	Batch           *gesture.Batch
	Issues          []gesture.Issue
	Recommendations []gesture.Recommendation
	ParseFailures   int
	Charts          bool // chart PNGs were rendered alongside the report
}

// accuracyByGroup collects per-group accuracy for the groups that have
// samples. Nil when the batch has no ground truth.
func accuracyByGroup(b *gesture.Batch) map[string]float64 {
	if !b.Truth.Known() {
		return nil
	}
	out := make(map[string]float64)
	for _, group := range gesture.DistanceGroups {
		if acc, _, ok := b.GroupAccuracy(group); ok {
			out[string(group)] = acc
		}
	}
	return out
}
