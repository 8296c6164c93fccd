package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
)

// csvHeader lists every raw and derived column, raw fields first in log
// order, derived fields after.
var csvHeader = []string{
	"raw_label",
	"lenIdx", "lenMid", "lenRing", "lenLit",
	"gapIdxMid", "gapThumbIdx",
	"ratio_idx_mid", "ratio_ring_mid", "ratio_lit_mid",
	"score_v", "score_ok", "score_palm", "score_fist", "score_idx",
	"scale", "pred_by_score", "raw_label_norm", "scale_group",
	"is_correct_by_score", "is_correct_by_label",
}

// WriteCSV writes all samples with their derived columns. Correctness
// columns stay empty when the batch has no ground truth.
func WriteCSV(path string, b *gesture.Batch) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range b.Samples {
		if err := w.Write(csvRow(&b.Samples[i])); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func csvRow(d *gesture.Derived) []string {
	row := []string{
		d.RawLabel,
		num(d.LenIdx), num(d.LenMid), num(d.LenRing), num(d.LenLit),
		num(d.GapIdxMid), num(d.GapThumbIdx),
		num(d.RatioIdxMid), num(d.RatioRingMid), num(d.RatioLitMid),
		strconv.Itoa(d.ScoreV), strconv.Itoa(d.ScoreOK), strconv.Itoa(d.ScorePalm),
		strconv.Itoa(d.ScoreFist), strconv.Itoa(d.ScoreIdx),
		num(d.Scale), string(d.Predicted), string(d.Normalized), string(d.DistanceGroup),
	}
	if c := d.Correctness; c != nil {
		row = append(row, strconv.FormatBool(c.ByScore), strconv.FormatBool(c.ByRawLabel))
	} else {
		row = append(row, "", "")
	}
	return row
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
