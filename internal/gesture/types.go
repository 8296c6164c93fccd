// Package gesture implements the analysis core: extraction of structured
// samples from hand-gesture debug logs, feature derivation over a batch,
// issue diagnosis, and threshold recommendations.
package gesture

import "fmt"

// Gesture identifies one of the recognizer's gesture classes.
type Gesture string

// Known gesture classes. ScoreOrder below fixes their comparison order.
const (
	GestureV       Gesture = "V"
	GestureOK      Gesture = "OK"
	GesturePalm    Gesture = "Palm"
	GestureFist    Gesture = "Fist"
	GestureIdx     Gesture = "Idx"
	GestureUnknown Gesture = "Unknown"
)

// ScoreOrder is the fixed enumeration order of gesture classes. Score tuples
// in the log are emitted in this order, and argmax ties resolve to the first
// maximum in this order.
var ScoreOrder = [5]Gesture{GestureV, GestureOK, GesturePalm, GestureFist, GestureIdx}

// ParseGesture converts a string to one of the five known gestures.
// Unknown is not accepted: it is a normalization result, not a valid class.
func ParseGesture(s string) (Gesture, error) {
	for _, g := range ScoreOrder {
		if s == string(g) {
			return g, nil
		}
	}
	return "", fmt.Errorf("invalid gesture %q (valid gestures: V, OK, Palm, Fist, Idx)", s)
}

// rawLabelNames maps the recognizer's free-text labels to gesture classes.
// Text not present here normalizes to Unknown.
var rawLabelNames = map[string]Gesture{
	"拳头":   GestureFist,
	"手掌张开": GesturePalm,
	"OK手势": GestureOK,
	"食指":   GestureIdx,
	"V手势":  GestureV,
	"V 手势": GestureV,
	"未知":   GestureUnknown,
}

// NormalizeLabel maps a raw log label to a gesture class.
// Unmapped or empty text resolves to Unknown; this never fails.
func NormalizeLabel(raw string) Gesture {
	if g, ok := rawLabelNames[raw]; ok {
		return g
	}
	return GestureUnknown
}

// Sample is one structured record extracted from a single log line.
// A Sample exists only if all fifteen fields were captured; it is never
// mutated after extraction.
type Sample struct {
	RawLabel string

	// Finger lengths (the recognizer does not log a thumb length).
	LenIdx  float64
	LenMid  float64
	LenRing float64
	LenLit  float64

	// Gaps between fingertips.
	GapIdxMid   float64
	GapThumbIdx float64

	// Length ratios against the middle finger.
	RatioIdxMid  float64
	RatioRingMid float64
	RatioLitMid  float64

	// Classifier scores, one per gesture in ScoreOrder.
	ScoreV    int
	ScoreOK   int
	ScorePalm int
	ScoreFist int
	ScoreIdx  int
}

// Scores returns the score tuple in ScoreOrder.
func (s *Sample) Scores() [5]int {
	return [5]int{s.ScoreV, s.ScoreOK, s.ScorePalm, s.ScoreFist, s.ScoreIdx}
}

// Score returns the classifier score for a single gesture class.
func (s *Sample) Score(g Gesture) int {
	switch g {
	case GestureV:
		return s.ScoreV
	case GestureOK:
		return s.ScoreOK
	case GesturePalm:
		return s.ScorePalm
	case GestureFist:
		return s.ScoreFist
	case GestureIdx:
		return s.ScoreIdx
	}
	return 0
}

// DistanceGroup is the per-batch relative bucketing of hand scale.
type DistanceGroup string

// Distance groups ordered far < mid < near.
const (
	GroupFar  DistanceGroup = "far"
	GroupMid  DistanceGroup = "mid"
	GroupNear DistanceGroup = "near"
)

// DistanceGroups lists all groups in far-to-near order.
var DistanceGroups = [3]DistanceGroup{GroupFar, GroupMid, GroupNear}

// Correctness holds the per-sample ground-truth comparison. It is attached
// to a Derived sample only when the batch truth is known; its absence is
// distinct from "known incorrect".
type Correctness struct {
	GroundTruth Gesture `json:"ground_truth"`
	ByScore     bool    `json:"by_score"`
	ByRawLabel  bool    `json:"by_raw_label"`
}

// Derived extends a Sample with batch-derived features. The embedded Sample
// stays untouched; derivation produces a new record.
type Derived struct {
	Sample

	Scale         float64
	Predicted     Gesture
	Normalized    Gesture
	DistanceGroup DistanceGroup
	Correctness   *Correctness
}

// FeatureName identifies a numeric sample feature for table-driven rules.
type FeatureName string

// Features referenced by diagnosis and recommendation tables.
const (
	FeatGapIdxMid    FeatureName = "gapIdxMid"
	FeatGapThumbIdx  FeatureName = "gapThumbIdx"
	FeatRatioIdxMid  FeatureName = "ratio_idx_mid"
	FeatRatioRingMid FeatureName = "ratio_ring_mid"
	FeatRatioLitMid  FeatureName = "ratio_lit_mid"
	FeatScale        FeatureName = "scale"
)

// featureGetters provides declarative access to features by name, keeping
// the diagnosis and recommendation rule tables free of field switches.
var featureGetters = map[FeatureName]func(*Derived) float64{
	FeatGapIdxMid:    func(d *Derived) float64 { return d.GapIdxMid },
	FeatGapThumbIdx:  func(d *Derived) float64 { return d.GapThumbIdx },
	FeatRatioIdxMid:  func(d *Derived) float64 { return d.RatioIdxMid },
	FeatRatioRingMid: func(d *Derived) float64 { return d.RatioRingMid },
	FeatRatioLitMid:  func(d *Derived) float64 { return d.RatioLitMid },
	FeatScale:        func(d *Derived) float64 { return d.Scale },
}

// Feature returns the named feature value for this sample.
func (d *Derived) Feature(name FeatureName) float64 {
	if get, ok := featureGetters[name]; ok {
		return get(d)
	}
	return 0
}

// Severity grades an Issue.
type Severity string

// Issue severities.
const (
	SeverityInfo   Severity = "info"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// IssueKind identifies a diagnosed problem class.
type IssueKind string

// Issue kinds produced by Diagnose.
const (
	IssueMixedGestures    IssueKind = "mixed_gestures"
	IssueLowOverallAcc    IssueKind = "low_overall_accuracy"
	IssueLowGroupAcc      IssueKind = "low_group_accuracy"
	IssueFeatureDeviation IssueKind = "feature_deviation"
)

// Issue is one diagnosed problem. The numeric fields are pointers so that
// "not applicable" is distinguishable from zero.
type Issue struct {
	Kind          IssueKind     `json:"kind"`
	Description   string        `json:"description"`
	Severity      Severity      `json:"severity"`
	Metric        string        `json:"metric,omitempty"`
	Value         *float64      `json:"value,omitempty"`
	CorrectMean   *float64      `json:"correct_mean,omitempty"`
	WrongMean     *float64      `json:"wrong_mean,omitempty"`
	DistanceGroup DistanceGroup `json:"distance_group,omitempty"`
}

// Priority grades a Recommendation.
type Priority string

// Recommendation priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Recommendation is one actionable tuning suggestion. CodeSnippets are an
// opaque rendering payload; their numeric parameters come from the quantile
// computation in Recommend.
type Recommendation struct {
	Priority      Priority      `json:"priority"`
	Category      string        `json:"category"`
	Description   string        `json:"description"`
	Action        string        `json:"action,omitempty"`
	Gesture       Gesture       `json:"gesture,omitempty"`
	DistanceGroup DistanceGroup `json:"distance_group,omitempty"`
	CodeSnippets  []string      `json:"code_snippets,omitempty"`
}
