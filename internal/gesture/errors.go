package gesture

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fatal failure kinds. Callers distinguish them
// with errors.Is; the typed wrappers below carry the details.
var (
	// ErrInputNotFound means the input log path does not exist.
	ErrInputNotFound = errors.New("input log file not found")

	// ErrNoValidRecords means not a single sample could be extracted.
	ErrNoValidRecords = errors.New("no valid gesture records")
)

// NotFoundError reports a missing input file. It is returned before any
// parsing is attempted.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("input log file not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return ErrInputNotFound }

// NoDataError reports that a run produced zero samples. Candidates is the
// number of marker-bearing lines that were attempted (may be zero when the
// file contained no candidate lines at all).
type NoDataError struct {
	Candidates int
}

func (e *NoDataError) Error() string {
	if e.Candidates == 0 {
		return "no valid gesture records: file contains no candidate lines"
	}
	return fmt.Sprintf("no valid gesture records: none of %d candidate lines matched the grammar", e.Candidates)
}

func (e *NoDataError) Unwrap() error { return ErrNoValidRecords }
