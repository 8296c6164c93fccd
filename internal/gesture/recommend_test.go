package gesture

import (
	"strings"
	"testing"
)

func TestRecommend_MixedBatchYieldsNothing(t *testing.T) {
	b := &Batch{
		Samples: []Derived{derivedWith(GestureV, GroupFar, true)},
		Truth:   Truth{Mode: TruthNone},
	}
	issues := Diagnose(b)

	if recs := Recommend(b, issues); recs != nil {
		t.Errorf("Expected no recommendations for a mixed batch, got %+v", recs)
	}
}

func TestRecommend_LowOverallAccuracy(t *testing.T) {
	b := batchWith(GestureV, []Derived{derivedWith(GestureV, GroupFar, true)})
	issues := []Issue{{Kind: IssueLowOverallAcc, Severity: SeverityHigh}}

	recs := Recommend(b, issues)
	if len(recs) != 1 {
		t.Fatalf("Expected 1 recommendation, got %d", len(recs))
	}
	rec := recs[0]
	if rec.Priority != PriorityHigh || rec.Category != "recalibration" {
		t.Errorf("Unexpected recommendation: %+v", rec)
	}
	if rec.Gesture != GestureV {
		t.Errorf("Expected gesture V, got %s", rec.Gesture)
	}
	if len(rec.CodeSnippets) != 0 {
		t.Errorf("Recalibration advice should carry no snippets, got %v", rec.CodeSnippets)
	}
}

func TestRecommend_ThresholdsFromCorrectSubset(t *testing.T) {
	// Ten correct far-group samples with gapIdxMid 0.01..0.10: the p10 used
	// for the V lower bound interpolates to 0.019.
	var samples []Derived
	for i := 1; i <= 10; i++ {
		d := derivedWith(GestureV, GroupFar, true)
		d.GapIdxMid = float64(i) / 100
		samples = append(samples, d)
	}
	// Wrong samples in the same group trigger the group issue.
	for i := 0; i < 15; i++ {
		samples = append(samples, derivedWith(GestureV, GroupFar, false))
	}
	b := batchWith(GestureV, samples)
	issues := []Issue{{Kind: IssueLowGroupAcc, DistanceGroup: GroupFar}}

	recs := Recommend(b, issues)
	if len(recs) != 1 {
		t.Fatalf("Expected 1 recommendation, got %d", len(recs))
	}
	rec := recs[0]
	if rec.Category != "threshold tuning" || rec.DistanceGroup != GroupFar {
		t.Errorf("Unexpected recommendation: %+v", rec)
	}
	if len(rec.CodeSnippets) != 1 {
		t.Fatalf("Expected 1 code snippet, got %d", len(rec.CodeSnippets))
	}

	snippet := rec.CodeSnippets[0]
	if !strings.Contains(snippet, "struct VThreshold {") {
		t.Errorf("Expected a VThreshold struct, got:\n%s", snippet)
	}
	if !strings.Contains(snippet, "indexMiddleGapMin: CGFloat = 0.019") {
		t.Errorf("Expected the p10 gap cutoff 0.019 in:\n%s", snippet)
	}
	if !strings.Contains(snippet, "n=10") {
		t.Errorf("Expected the correct-subset size in:\n%s", snippet)
	}
	if !strings.Contains(rec.Action, "0.019") {
		t.Errorf("Expected the action to cite the first cutoff, got %q", rec.Action)
	}
}

func TestRecommend_EmptyCorrectSubsetYieldsNoThresholds(t *testing.T) {
	// Every far sample is wrong: no correct subset exists, so no cutoff may
	// be invented for the group.
	var samples []Derived
	for i := 0; i < 10; i++ {
		samples = append(samples, derivedWith(GestureV, GroupFar, false))
	}
	for i := 0; i < 20; i++ {
		samples = append(samples, derivedWith(GestureV, GroupNear, true))
	}
	b := batchWith(GestureV, samples)
	issues := []Issue{{Kind: IssueLowGroupAcc, DistanceGroup: GroupFar}}

	if recs := Recommend(b, issues); len(recs) != 0 {
		t.Errorf("Expected no recommendations without correct samples, got %+v", recs)
	}
}

func TestRecommend_IdxCarriesActionOnly(t *testing.T) {
	var samples []Derived
	for i := 0; i < 8; i++ {
		samples = append(samples, derivedWith(GestureIdx, GroupMid, true))
	}
	b := batchWith(GestureIdx, samples)
	issues := []Issue{{Kind: IssueLowGroupAcc, DistanceGroup: GroupMid}}

	recs := Recommend(b, issues)
	if len(recs) != 1 {
		t.Fatalf("Expected 1 recommendation, got %d", len(recs))
	}
	if len(recs[0].CodeSnippets) != 0 {
		t.Errorf("Idx has no cutoff table, expected no snippets: %+v", recs[0])
	}
	if recs[0].Action == "" {
		t.Error("Expected review action text for Idx")
	}
}

func TestRecommend_HighAccuracyEdgeCaseSuggestion(t *testing.T) {
	var samples []Derived
	for i := 0; i < 9; i++ {
		samples = append(samples, derivedWith(GestureOK, GroupMid, true))
	}
	samples = append(samples, derivedWith(GestureOK, GroupMid, false))
	b := batchWith(GestureOK, samples)

	recs := Recommend(b, nil)
	if len(recs) != 1 {
		t.Fatalf("Expected edge-case suggestion at 90%% accuracy, got %d", len(recs))
	}
	if recs[0].Priority != PriorityLow || recs[0].Category != "data collection" {
		t.Errorf("Unexpected recommendation: %+v", recs[0])
	}
}

func TestRecommend_ModerateCleanRunStaysQuiet(t *testing.T) {
	// 80% accuracy with no issues: above the floor but below the edge-case
	// bar, so nothing is suggested.
	var samples []Derived
	for i := 0; i < 8; i++ {
		samples = append(samples, derivedWith(GestureOK, GroupMid, true))
	}
	for i := 0; i < 2; i++ {
		samples = append(samples, derivedWith(GestureOK, GroupMid, false))
	}
	b := batchWith(GestureOK, samples)

	if recs := Recommend(b, nil); len(recs) != 0 {
		t.Errorf("Expected no recommendations, got %+v", recs)
	}
}
