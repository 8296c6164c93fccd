package gesture

import (
	"fmt"
	"strings"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/stats"
)

// highAccuracy is the overall accuracy above which a clean run earns an
// edge-case data collection suggestion instead of tuning advice.
const highAccuracy = 0.85

// Bound direction for a suggested threshold.
type boundKind int

const (
	lowerBound boundKind = iota
	upperBound
)

// thresholdRule derives one suggested cutoff for a gesture: the given
// quantile of a feature over the correct samples of a problem distance
// group, used as a lower or upper bound in the generated snippet.
type thresholdRule struct {
	Feature  FeatureName
	Quantile float64
	Bound    boundKind
	Constant string // constant name in the generated threshold struct
}

// thresholdRules is the per-gesture cutoff table. Keeping it declarative
// makes the per-gesture rule set auditable in isolation.
var thresholdRules = map[Gesture][]thresholdRule{
	GestureV: {
		{FeatGapIdxMid, 0.10, lowerBound, "indexMiddleGapMin"},
		{FeatRatioIdxMid, 0.10, lowerBound, "indexToMiddleRatioMin"},
		{FeatRatioRingMid, 0.90, upperBound, "ringToMiddleRatioMax"},
	},
	GestureOK: {
		{FeatGapThumbIdx, 0.90, upperBound, "thumbIndexGapMax"},
	},
	GesturePalm: {
		{FeatGapIdxMid, 0.10, lowerBound, "indexMiddleGapMin"},
		{FeatRatioRingMid, 0.90, upperBound, "ringToMiddleRatioMax"},
	},
	GestureFist: {
		{FeatGapIdxMid, 0.90, upperBound, "indexMiddleGapMax"},
		{FeatRatioRingMid, 0.10, lowerBound, "ringToMiddleRatioMin"},
	},
	// Idx has no stable single-feature cutoffs; its recommendation carries
	// action text only.
	GestureIdx: nil,
}

// Recommend converts diagnosed issues into actionable tuning suggestions.
// Threshold numbers always come from the quantiles of a non-empty correct
// subset; an empty subset produces no recommendation.
func Recommend(b *Batch, issues []Issue) []Recommendation {
	if !b.Truth.Known() {
		return nil
	}

	var recs []Recommendation
	for _, issue := range issues {
		switch issue.Kind {
		case IssueLowOverallAcc:
			recs = append(recs, Recommendation{
				Priority:    PriorityHigh,
				Category:    "recalibration",
				Description: "overall recognition rate needs improvement; recalibrate the gesture thresholds",
				Action:      "collect a fresh calibration data set and re-derive the threshold table",
				Gesture:     b.Truth.Gesture,
			})

		case IssueLowGroupAcc:
			if rec, ok := thresholdRecommendation(b, issue.DistanceGroup); ok {
				recs = append(recs, rec)
			}
		}
	}

	if len(recs) == 0 {
		if acc, ok := b.OverallAccuracy(); ok && len(issues) == 0 && acc > highAccuracy {
			recs = append(recs, Recommendation{
				Priority:    PriorityLow,
				Category:    "data collection",
				Description: fmt.Sprintf("recognition rate already at %.1f%%; consider hardening edge cases", acc*100),
				Action:      "record more boundary samples (tilted hands, partial occlusion, extreme distance)",
				Gesture:     b.Truth.Gesture,
			})
		}
	}

	return recs
}

// thresholdRecommendation builds the concrete cutoff suggestion for one
// problem distance group from the group's correctly classified samples.
// ok is false when that subset is empty: thresholds are never fabricated
// from zero samples.
func thresholdRecommendation(b *Batch, group DistanceGroup) (Recommendation, bool) {
	correct := b.Filter(func(d *Derived) bool {
		return d.DistanceGroup == group && d.Correctness.ByScore
	})
	if len(correct) == 0 {
		return Recommendation{}, false
	}

	gesture := b.Truth.Gesture
	rec := Recommendation{
		Priority:      PriorityHigh,
		Category:      "threshold tuning",
		Description:   fmt.Sprintf("improve %s recognition in the %s distance group", gesture, group),
		Gesture:       gesture,
		DistanceGroup: group,
	}

	rules := thresholdRules[gesture]
	if len(rules) == 0 {
		rec.Action = fmt.Sprintf("review the %s classifier rules against the %s-group samples; no single-feature cutoff applies", gesture, group)
		return rec, true
	}

	type cutoff struct {
		rule  thresholdRule
		value float64
	}
	cutoffs := make([]cutoff, 0, len(rules))
	for _, rule := range rules {
		v := stats.Quantile(rule.Quantile, FeatureValues(correct, rule.Feature))
		cutoffs = append(cutoffs, cutoff{rule: rule, value: v})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "// Thresholds derived from %s-group correct samples (n=%d)\n", group, len(correct))
	fmt.Fprintf(&sb, "struct %sThreshold {\n", gesture)
	for _, c := range cutoffs {
		fmt.Fprintf(&sb, "    static let %s: CGFloat = %.3f\n", c.rule.Constant, c.value)
	}
	sb.WriteString("}")
	rec.CodeSnippets = []string{sb.String()}

	first := cutoffs[0]
	verb := "raise"
	if first.rule.Bound == lowerBound {
		verb = "lower"
	}
	rec.Action = fmt.Sprintf("update %sThreshold in the classifier: %s %s to %.3f",
		gesture, verb, first.rule.Constant, first.value)

	return rec, true
}
