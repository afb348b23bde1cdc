// Package synthetic generates demo surfaces and scan text for testing the
// wall reconstruction without a sensor.
package synthetic

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/plastermate/internal/wallscan"
	"github.com/banshee-data/plastermate/internal/wallscan/render"
)

// SurfaceConfig describes the demo surface.
type SurfaceConfig struct {
	WidthMeters  float64
	HeightMeters float64
	GridPoints   int
	Sigma        float64
}

// DefaultSurfaceConfig is a 10m x 10m wall on a 100x100 grid smoothed with
// sigma 2.
func DefaultSurfaceConfig() SurfaceConfig {
	return SurfaceConfig{WidthMeters: 10, HeightMeters: 10, GridPoints: 100, Sigma: 2}
}

// Surface returns a smoothed sin/cos pattern with uniform noise. Frequencies
// and noise level are drawn from rng, so every call with a fresh source
// produces a different wall. It has no relation to any scan.
func Surface(cfg SurfaceConfig, rng *rand.Rand) (*render.Heatmap, error) {
	if cfg.GridPoints < 2 {
		return nil, fmt.Errorf("synthetic surface: grid points must be at least 2, got %d", cfg.GridPoints)
	}
	smoother, err := wallscan.NewSmoother(cfg.Sigma, 4.0)
	if err != nil {
		return nil, fmt.Errorf("synthetic surface: %w", err)
	}

	x := make([]float64, cfg.GridPoints)
	floats.Span(x, 0, cfg.WidthMeters)
	y := make([]float64, cfg.GridPoints)
	floats.Span(y, 0, cfg.HeightMeters)

	fx := 0.5 + rng.Float64()
	fy := 0.5 + rng.Float64()
	noise := 0.3 + 0.5*rng.Float64()

	values := make([][]float64, cfg.GridPoints)
	for row := range values {
		values[row] = make([]float64, cfg.GridPoints)
		for col := range values[row] {
			values[row][col] = math.Sin(x[col]*fx) + math.Cos(y[row]*fy) + rng.Float64()*noise
		}
	}

	title := fmt.Sprintf("Wall Plastering Heatmap (%gm x %gm)", cfg.WidthMeters, cfg.HeightMeters)
	return render.FromSurface(title, x, y, smoother.Smooth(values)), nil
}

// ScanConfig describes a synthetic sensor sweep over a wall at constant
// range with one circular bulge.
type ScanConfig struct {
	Levels          int
	StepsPerLevel   int
	AzimuthSpanDeg  float64 // sweep covers -span/2..span/2
	RangeMM         float64
	BulgeDepthMM    float64 // positive depth moves the surface toward the sensor
	BulgeAzimuthDeg float64
	BulgeLevel      int
	BulgeRadius     float64 // in combined level/degree units
	NoiseMM         float64 // standard deviation of gaussian range noise
}

// DefaultScanConfig sweeps ten levels of 41 readings over 60 degrees.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Levels:          10,
		StepsPerLevel:   41,
		AzimuthSpanDeg:  60,
		RangeMM:         1500,
		BulgeDepthMM:    12,
		BulgeAzimuthDeg: 5,
		BulgeLevel:      5,
		BulgeRadius:     8,
		NoiseMM:         0.5,
	}
}

// Scan renders cfg as scan text: a "Level N" header followed by
// "azimuth,distance" lines for every level.
func Scan(cfg ScanConfig, rng *rand.Rand) (string, error) {
	if cfg.Levels < 1 || cfg.StepsPerLevel < 1 {
		return "", fmt.Errorf("synthetic scan: need at least one level and one step, got %d levels %d steps", cfg.Levels, cfg.StepsPerLevel)
	}
	if cfg.RangeMM <= 0 {
		return "", fmt.Errorf("synthetic scan: range must be positive, got %v", cfg.RangeMM)
	}

	azimuths := make([]float64, cfg.StepsPerLevel)
	if cfg.StepsPerLevel == 1 {
		azimuths[0] = 0
	} else {
		floats.Span(azimuths, -cfg.AzimuthSpanDeg/2, cfg.AzimuthSpanDeg/2)
	}

	var b strings.Builder
	for level := 1; level <= cfg.Levels; level++ {
		fmt.Fprintf(&b, "Level %d\n", level)
		for _, az := range azimuths {
			d := cfg.RangeMM - bulge(cfg, level, az) + rng.NormFloat64()*cfg.NoiseMM
			fmt.Fprintf(&b, "%.2f,%.2f\n", az, d)
		}
	}
	return b.String(), nil
}

func bulge(cfg ScanConfig, level int, az float64) float64 {
	if cfg.BulgeRadius <= 0 {
		return 0
	}
	dl := float64(level - cfg.BulgeLevel)
	da := az - cfg.BulgeAzimuthDeg
	r2 := (dl*dl*cfg.BulgeRadius*cfg.BulgeRadius/4 + da*da) / (cfg.BulgeRadius * cfg.BulgeRadius)
	return cfg.BulgeDepthMM * math.Exp(-r2)
}
