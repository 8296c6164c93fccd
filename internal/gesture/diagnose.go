package gesture

import (
	"fmt"
	"math"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/stats"
)

// Diagnosis thresholds.
const (
	// minOverallAccuracy is the overall by-score accuracy below which a
	// high-severity issue is raised.
	minOverallAccuracy = 0.70

	// minGroupAccuracy is the per-distance-group accuracy floor.
	minGroupAccuracy = 0.50

	// minGroupSamples is the smallest group size worth judging; groups at
	// or below it are skipped rather than divided against tiny denominators.
	minGroupSamples = 5

	// deviationFraction is the feature-drift trigger: the absolute gap
	// between correct-group and wrong-group means, as a fraction of the
	// correct-group mean.
	deviationFraction = 0.30
)

// deviationFeatures are the features compared between correctly and
// incorrectly classified samples.
var deviationFeatures = [4]FeatureName{
	FeatGapIdxMid,
	FeatGapThumbIdx,
	FeatRatioIdxMid,
	FeatRatioRingMid,
}

// Diagnose inspects a derived batch for accuracy and feature-distribution
// anomalies. The result is ordered: batch-level issues first, then per-group
// accuracy issues far to near, then feature deviations in table order.
func Diagnose(b *Batch) []Issue {
	var issues []Issue

	if !b.Truth.Known() {
		issues = append(issues, Issue{
			Kind:        IssueMixedGestures,
			Description: "log contains mixed gestures; collect single-gesture recordings for calibration",
			Severity:    SeverityInfo,
		})
		return issues
	}

	if acc, ok := b.OverallAccuracy(); ok && acc < minOverallAccuracy {
		v := acc
		issues = append(issues, Issue{
			Kind:        IssueLowOverallAcc,
			Description: fmt.Sprintf("overall accuracy is only %.1f%%, recognition needs tuning", acc*100),
			Severity:    SeverityHigh,
			Metric:      "overall_accuracy",
			Value:       &v,
		})
	}

	for _, group := range DistanceGroups {
		acc, n, ok := b.GroupAccuracy(group)
		if !ok || n <= minGroupSamples {
			continue
		}
		if acc < minGroupAccuracy {
			v := acc
			issues = append(issues, Issue{
				Kind:          IssueLowGroupAcc,
				Description:   fmt.Sprintf("%s distance group accuracy is only %.1f%% (%d samples)", group, acc*100, n),
				Severity:      SeverityHigh,
				Metric:        fmt.Sprintf("%s_accuracy", group),
				Value:         &v,
				DistanceGroup: group,
			})
		}
	}

	issues = append(issues, diagnoseFeatureDeviation(b)...)
	return issues
}

// diagnoseFeatureDeviation compares feature means between samples predicted
// as the dominant gesture and samples marked incorrect. Skipped entirely
// when either set is empty.
func diagnoseFeatureDeviation(b *Batch) []Issue {
	dominant := b.Truth.Gesture

	predicted := b.Filter(func(d *Derived) bool { return d.Predicted == dominant })
	wrong := b.Filter(func(d *Derived) bool { return !d.Correctness.ByScore })
	if len(predicted) == 0 || len(wrong) == 0 {
		return nil
	}

	var issues []Issue
	for _, feat := range deviationFeatures {
		correctMean := stats.Mean(FeatureValues(predicted, feat))
		wrongMean := stats.Mean(FeatureValues(wrong, feat))
		diff := math.Abs(correctMean - wrongMean)

		if diff > math.Abs(correctMean)*deviationFraction {
			cm, wm := correctMean, wrongMean
			issues = append(issues, Issue{
				Kind: IssueFeatureDeviation,
				Description: fmt.Sprintf("%s differs by %.3f between correct (mean %.3f) and wrong (mean %.3f) samples",
					feat, diff, correctMean, wrongMean),
				Severity:    SeverityMedium,
				Metric:      string(feat),
				CorrectMean: &cm,
				WrongMean:   &wm,
			})
		}
	}
	return issues
}
