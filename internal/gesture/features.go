package gesture

import (
	"github.com/zengchanghuan/gesture-analyzer-go/internal/stats"
)

// dominantShare is the minimum share of non-Unknown labels the most frequent
// gesture must hold for auto-detection to accept it as the batch truth.
const dominantShare = 0.4

// TruthMode tags how the batch ground truth was established.
type TruthMode int

// Truth modes.
const (
	// TruthNone means no ground truth could be established; the batch is
	// mixed and correctness fields are absent.
	TruthNone TruthMode = iota
	// TruthAuto means the dominant gesture was detected from raw labels.
	TruthAuto
	// TruthSupplied means the caller asserted the gesture for the batch.
	TruthSupplied
)

// Truth is the tagged ground-truth variant consumed uniformly by diagnosis.
type Truth struct {
	Mode    TruthMode
	Gesture Gesture // valid only when Mode != TruthNone
}

// Known reports whether correctness fields were computed for the batch.
func (t Truth) Known() bool { return t.Mode != TruthNone }

// Batch is a derived sample set with its batch-wide statistics. Distance
// group boundaries are quantiles of this batch's own scales, so the same
// scale value may fall in different groups across two batches.
type Batch struct {
	Samples []Derived
	Q33     float64
	Q66     float64
	Truth   Truth
}

// Derive computes derived features for every sample. If groundTruth is one
// of the five gesture classes it is used as the supplied batch truth;
// when empty, the dominant gesture is auto-detected from normalized labels.
func Derive(samples []Sample, groundTruth Gesture) *Batch {
	batch := &Batch{Samples: make([]Derived, len(samples))}

	scales := make([]float64, len(samples))
	for i := range samples {
		d := Derived{Sample: samples[i]}
		d.Scale = (d.LenIdx + d.LenMid + d.LenRing + d.LenLit) / 4.0
		d.Predicted = predictByScore(&d.Sample)
		d.Normalized = NormalizeLabel(d.RawLabel)
		batch.Samples[i] = d
		scales[i] = d.Scale
	}

	batch.Q33 = stats.Quantile(0.33, scales)
	batch.Q66 = stats.Quantile(0.66, scales)
	for i := range batch.Samples {
		batch.Samples[i].DistanceGroup = groupForScale(batch.Samples[i].Scale, batch.Q33, batch.Q66)
	}

	if groundTruth != "" {
		batch.Truth = Truth{Mode: TruthSupplied, Gesture: groundTruth}
	} else {
		batch.Truth = detectDominant(batch.Samples)
	}

	if batch.Truth.Known() {
		gt := batch.Truth.Gesture
		for i := range batch.Samples {
			d := &batch.Samples[i]
			d.Correctness = &Correctness{
				GroundTruth: gt,
				ByScore:     d.Predicted == gt,
				ByRawLabel:  d.Normalized == gt,
			}
		}
	}

	return batch
}

// predictByScore returns the gesture with the maximal classifier score.
// Ties resolve to the first maximum in ScoreOrder; the result is always one
// of the five gesture classes.
func predictByScore(s *Sample) Gesture {
	best := ScoreOrder[0]
	bestScore := s.Score(best)
	for _, g := range ScoreOrder[1:] {
		if score := s.Score(g); score > bestScore {
			best, bestScore = g, score
		}
	}
	return best
}

// groupForScale assigns a distance group by two-cut binning. Intervals are
// right-closed: a scale exactly on a cut falls into the lower-valued group,
// matching the batch quantile binning this grouping was calibrated against.
func groupForScale(scale, q33, q66 float64) DistanceGroup {
	switch {
	case scale <= q33:
		return GroupFar
	case scale <= q66:
		return GroupMid
	default:
		return GroupNear
	}
}

// detectDominant finds the most frequent non-Unknown normalized label.
// It is accepted as batch truth only above dominantShare of the non-Unknown
// samples; otherwise the batch is mixed (TruthNone). Zero recognized labels
// also yield a mixed batch.
func detectDominant(samples []Derived) Truth {
	counts := make(map[Gesture]int)
	total := 0
	for i := range samples {
		if g := samples[i].Normalized; g != GestureUnknown {
			counts[g]++
			total++
		}
	}
	if total == 0 {
		return Truth{Mode: TruthNone}
	}

	// Iterate ScoreOrder for a deterministic winner on equal counts.
	var best Gesture
	bestCount := 0
	for _, g := range ScoreOrder {
		if counts[g] > bestCount {
			best, bestCount = g, counts[g]
		}
	}

	if float64(bestCount)/float64(total) > dominantShare {
		return Truth{Mode: TruthAuto, Gesture: best}
	}
	return Truth{Mode: TruthNone}
}

// MixedLabel is the dominant-gesture label reported for batches without a
// determinable ground truth.
const MixedLabel = "Mixed"

// DominantLabel returns the batch's gesture name, or MixedLabel when no
// truth could be established.
func (b *Batch) DominantLabel() string {
	if b.Truth.Known() {
		return string(b.Truth.Gesture)
	}
	return MixedLabel
}

// OverallAccuracy returns the mean of the by-score correctness flags.
// ok is false when the batch has no correctness fields.
func (b *Batch) OverallAccuracy() (acc float64, ok bool) {
	if !b.Truth.Known() || len(b.Samples) == 0 {
		return 0, false
	}
	correct := 0
	for i := range b.Samples {
		if b.Samples[i].Correctness.ByScore {
			correct++
		}
	}
	return float64(correct) / float64(len(b.Samples)), true
}

// GroupAccuracy returns the by-score accuracy and size of one distance
// group. ok is false when the batch has no correctness fields or the group
// is empty.
func (b *Batch) GroupAccuracy(group DistanceGroup) (acc float64, n int, ok bool) {
	if !b.Truth.Known() {
		return 0, b.GroupSize(group), false
	}
	correct := 0
	for i := range b.Samples {
		if b.Samples[i].DistanceGroup != group {
			continue
		}
		n++
		if b.Samples[i].Correctness.ByScore {
			correct++
		}
	}
	if n == 0 {
		return 0, 0, false
	}
	return float64(correct) / float64(n), n, true
}

// GroupSize returns the number of samples in a distance group.
func (b *Batch) GroupSize(group DistanceGroup) int {
	n := 0
	for i := range b.Samples {
		if b.Samples[i].DistanceGroup == group {
			n++
		}
	}
	return n
}

// Filter returns the samples for which keep returns true.
func (b *Batch) Filter(keep func(*Derived) bool) []Derived {
	var out []Derived
	for i := range b.Samples {
		if keep(&b.Samples[i]) {
			out = append(out, b.Samples[i])
		}
	}
	return out
}

// FeatureValues extracts one named feature across a sample subset.
func FeatureValues(samples []Derived, name FeatureName) []float64 {
	values := make([]float64, len(samples))
	for i := range samples {
		values[i] = samples[i].Feature(name)
	}
	return values
}
