package notification

import (
	"strings"
	"testing"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
)

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	if err := n.Notify("title", "body"); err != nil {
		t.Errorf("Nop notifier returned error: %v", err)
	}
}

func TestRunSummary(t *testing.T) {
	acc := 0.725
	issues := []gesture.Issue{
		{Kind: gesture.IssueLowGroupAcc, Severity: gesture.SeverityHigh},
		{Kind: gesture.IssueFeatureDeviation, Severity: gesture.SeverityMedium},
	}

	body := RunSummary(120, "V", &acc, issues)
	for _, want := range []string{"120 samples", "dominant V", "accuracy 72.5%", "1 high-severity issues"} {
		if !strings.Contains(body, want) {
			t.Errorf("Summary missing %q: %s", want, body)
		}
	}
}

func TestRunSummary_Mixed(t *testing.T) {
	body := RunSummary(40, "Mixed", nil, nil)
	if strings.Contains(body, "accuracy") {
		t.Errorf("Expected no accuracy fragment without ground truth: %s", body)
	}
	if !strings.Contains(body, "dominant Mixed") {
		t.Errorf("Expected the Mixed label: %s", body)
	}
}
