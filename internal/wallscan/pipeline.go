package wallscan

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises a reconstruction. Deviation statistics cover measured
// cells only.
type Stats struct {
	Readings      int     `json:"readings"`
	Binned        int     `json:"binned"`
	OutsideExtent int     `json:"outside_extent"`
	EmptyCells    int     `json:"empty_cells"`
	MinMM         float64 `json:"min_mm"`
	MaxMM         float64 `json:"max_mm"`
	MeanMM        float64 `json:"mean_mm"`
	StdDevMM      float64 `json:"stddev_mm"`
}

// Result is the output of one reconstruction run. Surface is indexed
// [row][col] like DeviationGrid: rows along z, columns along x.
type Result struct {
	Config   Config
	Scan     *ScanSet
	Baseline Baseline
	Grid     *DeviationGrid
	Surface  [][]float64
	Warnings []Warning
	Stats    Stats
}

// Reconstruct runs parse, baseline, projection, aggregation and smoothing
// over the complete text of a scan. cfg is validated before any parsing.
// On error no partial result is returned.
func Reconstruct(text string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	smoother, err := NewSmoother(cfg.SmoothingSigma, cfg.SmoothingTruncate)
	if err != nil {
		return nil, err
	}

	scan, warnings, err := ParseScan(text)
	if err != nil {
		return nil, err
	}

	baseline, baselineWarnings := EstimateBaseline(scan, cfg.Baseline)
	warnings = append(warnings, baselineWarnings...)

	points := Project(scan, cfg.Projector(), baseline)
	grid := Aggregate(points, cfg.Extent(), cfg.ResolutionX, cfg.ResolutionZ)
	surface := smoother.Smooth(grid.Mean)

	res := &Result{
		Config:   cfg,
		Scan:     scan,
		Baseline: baseline,
		Grid:     grid,
		Surface:  surface,
		Warnings: warnings,
		Stats:    summarise(scan, grid),
	}
	return res, nil
}

// ReconstructReader reads r to EOF and reconstructs its contents.
func ReconstructReader(r io.Reader, cfg Config) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scan: %w", err)
	}
	return Reconstruct(string(data), cfg)
}

// Project places every reading of scan on the wall plane and attaches its
// deviation from baseline.
func Project(scan *ScanSet, p Projector, baseline Baseline) []ProjectedPoint {
	points := make([]ProjectedPoint, len(scan.Readings))
	for i, r := range scan.Readings {
		x, z := p.Project(r)
		points[i] = ProjectedPoint{XMeters: x, ZMeters: z, DeviationMM: baseline.Deviation(r)}
	}
	return points
}

func summarise(scan *ScanSet, grid *DeviationGrid) Stats {
	s := Stats{
		Readings:      len(scan.Readings),
		Binned:        grid.Binned(),
		OutsideExtent: grid.OutsideExtent,
		EmptyCells:    grid.EmptyCells(),
	}
	measured := grid.MeasuredValues()
	if len(measured) == 0 {
		return s
	}
	s.MinMM = floats.Min(measured)
	s.MaxMM = floats.Max(measured)
	if len(measured) > 1 {
		s.MeanMM, s.StdDevMM = stat.MeanStdDev(measured, nil)
	} else {
		s.MeanMM = measured[0]
	}
	return s
}
