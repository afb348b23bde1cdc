package wallscan

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyScan matches any *EmptyScanError via errors.Is.
var ErrEmptyScan = errors.New("empty scan")

// MalformedInputError is a fatal parse error for a structurally invalid
// level or data line. Line holds the offending text verbatim.
type MalformedInputError struct {
	LineNumber int
	Line       string
	Reason     string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed line %d %q: %s", e.LineNumber, e.Line, e.Reason)
}

// EmptyScanError is returned when a scan yields zero valid readings.
type EmptyScanError struct {
	LevelsDeclared int
	OrphanLines    int
}

func (e *EmptyScanError) Error() string {
	return fmt.Sprintf("no data: scan contains no readings (%d levels declared, %d orphan lines skipped)", e.LevelsDeclared, e.OrphanLines)
}

func (e *EmptyScanError) Is(target error) bool { return target == ErrEmptyScan }

// WarningKind classifies a non-fatal diagnostic.
type WarningKind string

const (
	// OrphanData marks a data line that appeared before any level line.
	OrphanData WarningKind = "orphan_data"
	// DegenerateLevel marks a declared level with no readings; its baseline is 0.
	DegenerateLevel WarningKind = "degenerate_level"
	// RedeclaredLevel marks a level line that discarded earlier readings of
	// the same level.
	RedeclaredLevel WarningKind = "redeclared_level"
)

// Warning is a non-fatal diagnostic surfaced alongside a valid result.
type Warning struct {
	Kind       WarningKind `json:"kind"`
	LineNumber int         `json:"line_number,omitempty"`
	Line       string      `json:"line,omitempty"`
	Level      int         `json:"level,omitempty"`
	Message    string      `json:"message"`
}

func (w Warning) String() string {
	if w.LineNumber > 0 {
		return fmt.Sprintf("%s: line %d %q: %s", w.Kind, w.LineNumber, w.Line, w.Message)
	}
	return fmt.Sprintf("%s: level %d: %s", w.Kind, w.Level, w.Message)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
