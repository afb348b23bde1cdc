package wallscan

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// LevelBaseline maps each declared level to its nearest observed distance
// in millimetres. Levels without readings map to 0.
type LevelBaseline map[int]float64

// Baseline is the reference a reading's distance is compared against.
// PerLevel is always populated; Global is only subtracted in
// BaselineGlobalMeanOfMins mode.
type Baseline struct {
	Mode     BaselineMode  `json:"mode"`
	PerLevel LevelBaseline `json:"per_level"`
	Global   float64       `json:"global"`
}

// EstimateBaseline computes the per-level minimum distance for every
// declared level of scan and, from the non-empty levels, the mean of those
// minimums. A declared level without readings yields a DegenerateLevel
// warning and a baseline of 0.
func EstimateBaseline(scan *ScanSet, mode BaselineMode) (Baseline, []Warning) {
	b := Baseline{Mode: mode, PerLevel: make(LevelBaseline, len(scan.Levels))}
	var warnings []Warning

	mins := make(map[int]float64, len(scan.Levels))
	for _, r := range scan.Readings {
		if cur, ok := mins[r.Level]; !ok || r.DistanceMM < cur {
			mins[r.Level] = r.DistanceMM
		}
	}

	levelMins := make([]float64, 0, len(mins))
	for _, lvl := range scan.SortedLevels() {
		m, ok := mins[lvl]
		if !ok {
			w := Warning{
				Kind:    DegenerateLevel,
				Level:   lvl,
				Message: "level declared with no readings, baseline defaults to 0",
			}
			warnf("%s", w)
			warnings = append(warnings, w)
			b.PerLevel[lvl] = 0
			continue
		}
		b.PerLevel[lvl] = m
		levelMins = append(levelMins, m)
	}

	if len(levelMins) > 0 {
		b.Global = stat.Mean(levelMins, nil)
	}
	return b, warnings
}

// Reference returns the distance subtracted from readings of level.
func (b Baseline) Reference(level int) float64 {
	if b.Mode == BaselineGlobalMeanOfMins {
		return b.Global
	}
	return b.PerLevel[level]
}

// Deviation returns distance minus the reference. Negative values are nearer
// than the baseline (a bulge toward the sensor), positive values farther (a
// recess).
func (b Baseline) Deviation(r Reading) float64 {
	return r.DistanceMM - b.Reference(r.Level)
}

func (b Baseline) String() string {
	if b.Mode == BaselineGlobalMeanOfMins {
		return fmt.Sprintf("%s %.3fmm over %d levels", b.Mode, b.Global, len(b.PerLevel))
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range b.PerLevel {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(b.PerLevel) == 0 {
		lo, hi = 0, 0
	}
	return fmt.Sprintf("%s %.3f..%.3fmm over %d levels", b.Mode, lo, hi, len(b.PerLevel))
}
