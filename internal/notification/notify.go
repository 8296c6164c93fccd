// Package notification dispatches desktop notifications after completed
// analysis runs.
package notification

import (
	"fmt"
	"strings"

	"github.com/gen2brain/beeep"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
)

// maxBodyLength keeps notification bodies within what desktop
// notification daemons display without clipping mid-sentence.
const maxBodyLength = 200

// Notifier delivers a short operator-facing message.
type Notifier interface {
	Notify(title, body string) error
}

// Desktop sends notifications through the platform notification daemon.
type Desktop struct {
	appName string
}

// NewDesktop creates a desktop notifier.
func NewDesktop(appName string) *Desktop {
	return &Desktop{appName: appName}
}

// Notify shows a desktop notification. Long bodies are truncated.
func (d *Desktop) Notify(title, body string) error {
	if len(body) > maxBodyLength {
		body = body[:maxBodyLength] + "..."
	}
	if err := beeep.Notify(fmt.Sprintf("%s: %s", d.appName, title), body, ""); err != nil {
		return fmt.Errorf("failed to send desktop notification: %w", err)
	}
	return nil
}

// Nop is a Notifier that discards everything. Used when notifications are
// disabled.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(string, string) error { return nil }

// RunSummary formats the one-line body for a completed analysis run.
func RunSummary(totalSamples int, dominant string, overallAccuracy *float64, issues []gesture.Issue) string {
	parts := []string{fmt.Sprintf("%d samples, dominant %s", totalSamples, dominant)}
	if overallAccuracy != nil {
		parts = append(parts, fmt.Sprintf("accuracy %.1f%%", *overallAccuracy*100))
	}
	if high := countHighSeverity(issues); high > 0 {
		parts = append(parts, fmt.Sprintf("%d high-severity issues", high))
	}
	return strings.Join(parts, ", ")
}

func countHighSeverity(issues []gesture.Issue) int {
	n := 0
	for _, is := range issues {
		if is.Severity == gesture.SeverityHigh {
			n++
		}
	}
	return n
}
