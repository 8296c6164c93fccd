package gesture

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Marker identifies candidate lines in the debug log. Lines without it are
// skipped silently and do not count against parse statistics.
const Marker = "[HandGestureDebug]"

// linePattern is the fixed grammar for one debug line: a lazy free-text
// label terminated by the success glyph, nine key:value numeric fields, and
// the five-integer score tuple.
var linePattern = regexp.MustCompile(
	`\[HandGestureDebug\]\s+` +
		`(?P<rawLabel>.*?)\s+✓.*?` +
		`lenIdx:(?P<lenIdx>[\d.]+).*?` +
		`lenMid:(?P<lenMid>[\d.]+).*?` +
		`lenRing:(?P<lenRing>[\d.]+).*?` +
		`lenLit:(?P<lenLit>[\d.]+).*?` +
		`gapIdxMid:(?P<gapIdxMid>[\d.]+).*?` +
		`gapThumbIdx:(?P<gapThumbIdx>[\d.]+).*?` +
		`ratio idx/mid:(?P<ratioIdxMid>[\d.]+).*?` +
		`ring/mid:(?P<ratioRingMid>[\d.]+).*?` +
		`lit/mid:(?P<ratioLitMid>[\d.]+).*?` +
		`score V/OK/Palm/Fist/Idx = ` +
		`(?P<scoreV>-?\d+)/` +
		`(?P<scoreOK>-?\d+)/` +
		`(?P<scorePalm>-?\d+)/` +
		`(?P<scoreFist>-?\d+)/` +
		`(?P<scoreIdx>-?\d+)`,
)

// groupIndex maps named capture groups to their submatch positions once,
// at init time.
var groupIndex = func() map[string]int {
	idx := make(map[string]int)
	for i, name := range linePattern.SubexpNames() {
		if name != "" {
			idx[name] = i
		}
	}
	return idx
}()

// maxFailureContext bounds how much of a failed line is kept for diagnostics.
const maxFailureContext = 100

// ParseFailure records one candidate line that did not yield a sample.
type ParseFailure struct {
	Line    int    // 1-based line number in the input
	Reason  string // grammar mismatch or domain-invariant violation
	Content string // truncated line content
}

// ExtractResult is the outcome of scanning one input source.
type ExtractResult struct {
	Samples    []Sample
	Candidates int // marker-bearing lines seen
	Failures   []ParseFailure
}

// FailureCount returns the number of candidate lines lost to parse failures.
func (r *ExtractResult) FailureCount() int {
	return len(r.Failures)
}

// ExtractFile extracts samples from the log file at path. It fails with a
// *NotFoundError before parsing when the path does not exist, and with a
// *NoDataError when zero samples were produced. A mix of failures and
// successes is not an error; the failures are reported in the result.
func ExtractFile(path string) (*ExtractResult, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Extract(f)
}

// Extract extracts samples from raw log text. See ExtractFile for the
// failure contract.
func Extract(r io.Reader) (*ExtractResult, error) {
	result := &ExtractResult{}

	scanner := bufio.NewScanner(r)
	// Debug lines can be long; raise the token limit above the 64KB default.
	scanner.Buffer(make([]byte, 0, 16*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if !strings.Contains(line, Marker) {
			continue
		}
		result.Candidates++

		sample, reason := parseLine(line)
		if reason != "" {
			result.Failures = append(result.Failures, ParseFailure{
				Line:    lineNum,
				Reason:  reason,
				Content: truncate(strings.TrimSpace(line), maxFailureContext),
			})
			continue
		}
		result.Samples = append(result.Samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log content: %w", err)
	}

	if len(result.Samples) == 0 {
		return nil, &NoDataError{Candidates: result.Candidates}
	}

	return result, nil
}

// parseLine matches one candidate line against the grammar and validates the
// resulting sample. A non-empty reason means the line is rejected.
func parseLine(line string) (Sample, string) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Sample{}, "line does not match field grammar"
	}

	var s Sample
	s.RawLabel = m[groupIndex["rawLabel"]]

	floats := []struct {
		name string
		dst  *float64
	}{
		{"lenIdx", &s.LenIdx},
		{"lenMid", &s.LenMid},
		{"lenRing", &s.LenRing},
		{"lenLit", &s.LenLit},
		{"gapIdxMid", &s.GapIdxMid},
		{"gapThumbIdx", &s.GapThumbIdx},
		{"ratioIdxMid", &s.RatioIdxMid},
		{"ratioRingMid", &s.RatioRingMid},
		{"ratioLitMid", &s.RatioLitMid},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(m[groupIndex[f.name]], 64)
		if err != nil {
			return Sample{}, fmt.Sprintf("field %s is not a valid number", f.name)
		}
		*f.dst = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"scoreV", &s.ScoreV},
		{"scoreOK", &s.ScoreOK},
		{"scorePalm", &s.ScorePalm},
		{"scoreFist", &s.ScoreFist},
		{"scoreIdx", &s.ScoreIdx},
	}
	for _, f := range ints {
		v, err := strconv.Atoi(m[groupIndex[f.name]])
		if err != nil {
			return Sample{}, fmt.Sprintf("field %s is not a valid integer", f.name)
		}
		*f.dst = v
	}

	if reason := validateSample(&s); reason != "" {
		return Sample{}, reason
	}
	return s, ""
}

// validateSample enforces domain invariants on a structurally matched
// record. Samples that imply non-finite derived values are rejected here
// rather than propagated downstream.
func validateSample(s *Sample) string {
	for _, v := range []float64{
		s.LenIdx, s.LenMid, s.LenRing, s.LenLit,
		s.GapIdxMid, s.GapThumbIdx,
		s.RatioIdxMid, s.RatioRingMid, s.RatioLitMid,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "non-finite measurement"
		}
	}
	// A zero middle-finger length makes the ratio denominators meaningless.
	if s.LenMid == 0 {
		return "zero mid-finger length (ratio denominator)"
	}
	if s.RatioIdxMid <= 0 || s.RatioRingMid <= 0 || s.RatioLitMid <= 0 {
		return "non-positive length ratio"
	}
	return ""
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// FormatLine renders a sample back into the canonical debug-line template.
// Extraction of the result yields an equal sample; used by tests and
// fixtures.
func FormatLine(s *Sample) string {
	return fmt.Sprintf(
		"%s %s ✓ lenIdx:%.3f lenMid:%.3f lenRing:%.3f lenLit:%.3f "+
			"gapIdxMid:%.3f gapThumbIdx:%.3f "+
			"ratio idx/mid:%.3f ring/mid:%.3f lit/mid:%.3f "+
			"score V/OK/Palm/Fist/Idx = %d/%d/%d/%d/%d",
		Marker, s.RawLabel,
		s.LenIdx, s.LenMid, s.LenRing, s.LenLit,
		s.GapIdxMid, s.GapThumbIdx,
		s.RatioIdxMid, s.RatioRingMid, s.RatioLitMid,
		s.ScoreV, s.ScoreOK, s.ScorePalm, s.ScoreFist, s.ScoreIdx,
	)
}
