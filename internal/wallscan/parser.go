package wallscan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/plastermate/internal/monitoring"
)

/*
Scan file format

A scan is line oriented text. Level lines open a vertical scan position and
every data line after it belongs to that level until the next level line:

	Level 1
	-12.5,1043.0
	0,1000
	Level 2
	...

- Level line: exactly two whitespace separated tokens, "Level" and an
  integer >= 1. Declaring a level again starts it over: only its last
  section is kept, with a RedeclaredLevel warning when readings are lost.
- Data line: exactly two comma separated fields, azimuth in degrees and
  distance in millimetres, each a finite number.
- Blank lines are ignored anywhere.
- A data line before the first level line is skipped with an OrphanData
  warning. It is not validated.

Any other malformed line aborts the parse with a MalformedInputError that
quotes the line verbatim, surrounding whitespace included.
*/

const levelKeyword = "Level"

var warnf = monitoring.Tagf("wallscan")

// Reading is a single polar range return. Readings are immutable once parsed.
type Reading struct {
	Level          int     `json:"level"`
	AzimuthDegrees float64 `json:"azimuth_degrees"`
	DistanceMM     float64 `json:"distance_mm"`
	LineNumber     int     `json:"line_number"`
}

// ScanSet is the ordered, non-empty sequence of readings of one scan.
// Levels lists every declared level once, in declaration order, including
// levels that received no readings.
type ScanSet struct {
	Readings []Reading
	Levels   []int
}

// ByLevel groups readings by level, preserving scan order within a level.
// Declared levels without readings map to an empty slice.
func (s *ScanSet) ByLevel() map[int][]Reading {
	out := make(map[int][]Reading, len(s.Levels))
	for _, lvl := range s.Levels {
		out[lvl] = nil
	}
	for _, r := range s.Readings {
		out[r.Level] = append(out[r.Level], r)
	}
	return out
}

// dropLevel removes the readings of level and returns how many were removed.
func (s *ScanSet) dropLevel(level int) int {
	kept := s.Readings[:0]
	for _, r := range s.Readings {
		if r.Level != level {
			kept = append(kept, r)
		}
	}
	dropped := len(s.Readings) - len(kept)
	s.Readings = kept
	return dropped
}

// SortedLevels returns the declared levels in ascending order.
func (s *ScanSet) SortedLevels() []int {
	levels := append([]int(nil), s.Levels...)
	sort.Ints(levels)
	return levels
}

// ParseScan parses the full text of a scan file. Fatal conditions return a
// *MalformedInputError or *EmptyScanError and no ScanSet. Orphan data lines
// are reported as warnings.
func ParseScan(text string) (*ScanSet, []Warning, error) {
	scan := &ScanSet{}
	var warnings []Warning

	declared := make(map[int]bool)
	current := 0 // 0 means no level declared yet

	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, levelKeyword) {
			level, err := parseLevelLine(lineNo, line)
			if err != nil {
				return nil, nil, withVerbatimLine(err, raw)
			}
			current = level
			if !declared[level] {
				declared[level] = true
				scan.Levels = append(scan.Levels, level)
				continue
			}
			if dropped := scan.dropLevel(level); dropped > 0 {
				w := Warning{
					Kind:       RedeclaredLevel,
					LineNumber: lineNo,
					Line:       line,
					Level:      level,
					Message:    fmt.Sprintf("level declared again, %d earlier readings discarded", dropped),
				}
				warnf("%s", w)
				warnings = append(warnings, w)
			}
			continue
		}

		if current == 0 {
			w := Warning{
				Kind:       OrphanData,
				LineNumber: lineNo,
				Line:       line,
				Message:    "data line before any level declaration, skipped",
			}
			warnf("%s", w)
			warnings = append(warnings, w)
			continue
		}

		azimuth, distance, err := parseDataLine(lineNo, line)
		if err != nil {
			return nil, nil, withVerbatimLine(err, raw)
		}
		scan.Readings = append(scan.Readings, Reading{
			Level:          current,
			AzimuthDegrees: azimuth,
			DistanceMM:     distance,
			LineNumber:     lineNo,
		})
	}

	if len(scan.Readings) == 0 {
		return nil, nil, &EmptyScanError{LevelsDeclared: len(scan.Levels), OrphanLines: len(warnings)}
	}

	return scan, warnings, nil
}

// withVerbatimLine replaces the trimmed line of a parse error with the raw
// input line, less any trailing carriage return.
func withVerbatimLine(err error, raw string) error {
	if m, ok := err.(*MalformedInputError); ok {
		m.Line = strings.TrimRight(raw, "\r")
	}
	return err
}

func parseLevelLine(lineNo int, line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != levelKeyword {
		return 0, &MalformedInputError{
			LineNumber: lineNo,
			Line:       line,
			Reason:     fmt.Sprintf("level line must be %q followed by one integer, got %d tokens", levelKeyword, len(fields)),
		}
	}
	level, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, &MalformedInputError{
			LineNumber: lineNo,
			Line:       line,
			Reason:     fmt.Sprintf("level %q is not an integer", fields[1]),
		}
	}
	if level < 1 {
		return 0, &MalformedInputError{
			LineNumber: lineNo,
			Line:       line,
			Reason:     fmt.Sprintf("level must be >= 1, got %d", level),
		}
	}
	return level, nil
}

func parseDataLine(lineNo int, line string) (azimuth, distance float64, err error) {
	fields := strings.Split(line, ",")
	if len(fields) != 2 {
		return 0, 0, &MalformedInputError{
			LineNumber: lineNo,
			Line:       line,
			Reason:     fmt.Sprintf("expected 2 comma-separated fields (azimuth,distance), got %d", len(fields)),
		}
	}
	if azimuth, err = parseFiniteField(lineNo, line, "azimuth", fields[0]); err != nil {
		return 0, 0, err
	}
	if distance, err = parseFiniteField(lineNo, line, "distance", fields[1]); err != nil {
		return 0, 0, err
	}
	return azimuth, distance, nil
}

func parseFiniteField(lineNo int, line, name, field string) (float64, error) {
	field = strings.TrimSpace(field)
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, &MalformedInputError{
			LineNumber: lineNo,
			Line:       line,
			Reason:     fmt.Sprintf("%s %q is not a number", name, field),
		}
	}
	if !isFinite(v) {
		return 0, &MalformedInputError{
			LineNumber: lineNo,
			Line:       line,
			Reason:     fmt.Sprintf("%s %q is not finite", name, field),
		}
	}
	return v, nil
}
