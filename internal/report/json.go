package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
)

// Document is the machine-readable run report.
type Document struct {
	LogFile            string                   `json:"log_file"`
	GeneratedAt        time.Time                `json:"generated_at"`
	TotalSamples       int                      `json:"total_samples"`
	DominantGesture    string                   `json:"dominant_gesture"`
	Issues             []gesture.Issue          `json:"issues"`
	Recommendations    []gesture.Recommendation `json:"recommendations"`
	OverallAccuracy    *float64                 `json:"overall_accuracy,omitempty"`
	AccuracyByDistance map[string]float64       `json:"accuracy_by_distance,omitempty"`
	ParseFailures      int                      `json:"parse_failures"`
}

// NewDocument assembles the JSON report payload. Accuracy fields are present
// only when the batch has a known ground truth.
func NewDocument(in *Input) *Document {
	doc := &Document{
		LogFile:         in.LogFile,
		GeneratedAt:     in.GeneratedAt,
		TotalSamples:    len(in.Batch.Samples),
		DominantGesture: in.Batch.DominantLabel(),
		Issues:          in.Issues,
		Recommendations: in.Recommendations,
		ParseFailures:   in.ParseFailures,
	}
	// Keep the arrays present even when empty.
	if doc.Issues == nil {
		doc.Issues = []gesture.Issue{}
	}
	if doc.Recommendations == nil {
		doc.Recommendations = []gesture.Recommendation{}
	}

	if acc, ok := in.Batch.OverallAccuracy(); ok {
		doc.OverallAccuracy = &acc
		doc.AccuracyByDistance = accuracyByGroup(in.Batch)
	}
	return doc
}

// WriteJSON writes the indented JSON report.
func WriteJSON(path string, in *Input) error {
	data, err := json.MarshalIndent(NewDocument(in), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}
