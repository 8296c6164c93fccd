package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
	"github.com/zengchanghuan/gesture-analyzer-go/internal/stats"
)

// summaryFeatures are the columns of the per-gesture statistics section,
// raw log fields first, the derived scale last.
var summaryFeatures = []struct {
	name string
	get  func(*gesture.Derived) float64
}{
	{"lenIdx", func(d *gesture.Derived) float64 { return d.LenIdx }},
	{"lenMid", func(d *gesture.Derived) float64 { return d.LenMid }},
	{"lenRing", func(d *gesture.Derived) float64 { return d.LenRing }},
	{"lenLit", func(d *gesture.Derived) float64 { return d.LenLit }},
	{"gapIdxMid", func(d *gesture.Derived) float64 { return d.GapIdxMid }},
	{"gapThumbIdx", func(d *gesture.Derived) float64 { return d.GapThumbIdx }},
	{"ratio_idx_mid", func(d *gesture.Derived) float64 { return d.RatioIdxMid }},
	{"ratio_ring_mid", func(d *gesture.Derived) float64 { return d.RatioRingMid }},
	{"ratio_lit_mid", func(d *gesture.Derived) float64 { return d.RatioLitMid }},
	{"scale", func(d *gesture.Derived) float64 { return d.Scale }},
}

// comparisonFeatures are compared between correct and wrong samples.
var comparisonFeatures = []gesture.FeatureName{
	gesture.FeatScale,
	gesture.FeatGapIdxMid,
	gesture.FeatGapThumbIdx,
	gesture.FeatRatioIdxMid,
	gesture.FeatRatioRingMid,
	gesture.FeatRatioLitMid,
}

// WriteSummary renders the Markdown statistics summary: global label and
// prediction distributions, accuracy tables when ground truth is known,
// per-gesture feature statistics, and the correct-vs-wrong comparison.
func WriteSummary(path string, in *Input) error {
	var sb strings.Builder
	b := in.Batch
	total := len(b.Samples)

	sb.WriteString("# Gesture Recognition Log Analysis\n\n")
	fmt.Fprintf(&sb, "Log file: `%s`\n\n", in.LogFile)
	fmt.Fprintf(&sb, "Generated: %s\n\n", in.GeneratedAt.Format("2006-01-02 15:04:05"))

	sb.WriteString("## 1. Global Statistics\n\n")
	fmt.Fprintf(&sb, "- Total samples: %d\n", total)
	fmt.Fprintf(&sb, "- Dominant gesture: %s\n", b.DominantLabel())
	if in.ParseFailures > 0 {
		fmt.Fprintf(&sb, "- Unparsed candidate lines: %d\n", in.ParseFailures)
	}
	sb.WriteString("\n### Normalized Label Distribution\n\n")
	sb.WriteString(distributionTable(b, func(d *gesture.Derived) gesture.Gesture { return d.Normalized }))
	sb.WriteString("\n\n### Predicted Label Distribution\n\n")
	sb.WriteString(distributionTable(b, func(d *gesture.Derived) gesture.Gesture { return d.Predicted }))
	sb.WriteString("\n")

	if b.Truth.Known() {
		sb.WriteString("\n## 2. Ground Truth Accuracy\n\n")
		fmt.Fprintf(&sb, "Ground truth: **%s**\n\n", b.Truth.Gesture)
		if acc, ok := b.OverallAccuracy(); ok {
			fmt.Fprintf(&sb, "Overall accuracy (by score): **%.2f%%**\n\n", acc*100)
		}
		sb.WriteString("### Accuracy by Distance Group\n\n")
		sb.WriteString(groupAccuracyTable(b))
		sb.WriteString("\n")
	}

	sb.WriteString("\n## 3. Feature Statistics by Predicted Gesture\n")
	for _, g := range gesture.ScoreOrder {
		subset := b.Filter(func(d *gesture.Derived) bool { return d.Predicted == g })
		if len(subset) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n### %s (n=%d)\n\n", g, len(subset))
		sb.WriteString(featureStatsTable(subset))
		sb.WriteString("\n")
	}

	if section := comparisonSection(b); section != "" {
		sb.WriteString(section)
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// distributionTable tabulates label counts and shares in score order, with
// Unknown last.
func distributionTable(b *gesture.Batch, key func(*gesture.Derived) gesture.Gesture) string {
	counts := make(map[gesture.Gesture]int)
	for i := range b.Samples {
		counts[key(&b.Samples[i])]++
	}
	total := len(b.Samples)

	w := table.NewWriter()
	w.AppendHeader(table.Row{"Label", "Count", "Share"})
	order := append(gesture.ScoreOrder[:], gesture.GestureUnknown)
	for _, g := range order {
		if n := counts[g]; n > 0 {
			w.AppendRow(table.Row{string(g), n, fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)})
		}
	}
	return w.RenderMarkdown()
}

func groupAccuracyTable(b *gesture.Batch) string {
	w := table.NewWriter()
	w.AppendHeader(table.Row{"Group", "Samples", "Accuracy"})
	for _, group := range gesture.DistanceGroups {
		acc, n, ok := b.GroupAccuracy(group)
		if !ok {
			continue
		}
		w.AppendRow(table.Row{string(group), n, fmt.Sprintf("%.2f%%", acc*100)})
	}
	return w.RenderMarkdown()
}

func featureStatsTable(subset []gesture.Derived) string {
	w := table.NewWriter()
	w.AppendHeader(table.Row{"Feature", "Mean", "Std", "Min", "P10", "P50", "P90", "Max"})
	for _, feat := range summaryFeatures {
		values := make([]float64, len(subset))
		for i := range subset {
			values[i] = feat.get(&subset[i])
		}
		w.AppendRow(table.Row{
			feat.name,
			f3(stats.Mean(values)), f3(stats.StdDev(values)),
			f3(stats.Min(values)), f3(stats.Quantile(0.10, values)),
			f3(stats.Quantile(0.50, values)), f3(stats.Quantile(0.90, values)),
			f3(stats.Max(values)),
		})
	}
	return w.RenderMarkdown()
}

// comparisonSection renders the correct-vs-wrong feature comparison.
// Empty when the batch has no truth or either subset is empty.
func comparisonSection(b *gesture.Batch) string {
	if !b.Truth.Known() {
		return ""
	}
	correct := b.Filter(func(d *gesture.Derived) bool { return d.Correctness.ByScore })
	wrong := b.Filter(func(d *gesture.Derived) bool { return !d.Correctness.ByScore })
	if len(correct) == 0 || len(wrong) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n## 4. %s: Correct vs Wrong Samples\n\n", b.Truth.Gesture)
	fmt.Fprintf(&sb, "- Correct samples: %d\n- Wrong samples: %d\n\n", len(correct), len(wrong))

	w := table.NewWriter()
	w.AppendHeader(table.Row{"Feature", "Correct Mean", "Correct Median", "Wrong Mean", "Wrong Median", "Diff"})
	for _, feat := range comparisonFeatures {
		cv := gesture.FeatureValues(correct, feat)
		wv := gesture.FeatureValues(wrong, feat)
		cMean, wMean := stats.Mean(cv), stats.Mean(wv)
		w.AppendRow(table.Row{
			string(feat),
			f3(cMean), f3(stats.Quantile(0.50, cv)),
			f3(wMean), f3(stats.Quantile(0.50, wv)),
			fmt.Sprintf("%+.3f", cMean-wMean),
		})
	}
	sb.WriteString(w.RenderMarkdown())
	sb.WriteString("\n")
	return sb.String()
}

func f3(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
