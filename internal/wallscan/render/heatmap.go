// Package render wraps a reconstructed deviation surface into a renderable
// heatmap and draws it as HTML (go-echarts) or PNG (gonum/plot).
package render

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/plastermate/internal/wallscan"
)

const (
	// UnitMillimetres is the deviation unit of every Heatmap built from a scan.
	UnitMillimetres = "mm"
	// UnitArbitrary labels surfaces with no physical unit, such as demo data.
	UnitArbitrary = "arb."
)

// Heatmap is the renderer's input contract. Values is indexed [row][col]
// with rows along Z (height, ascending) and columns along X (horizontal,
// ascending). X and Z are cell centres in metres.
type Heatmap struct {
	Title  string      `json:"title"`
	Unit   string      `json:"unit"`
	X      []float64   `json:"x"`
	Z      []float64   `json:"z"`
	Values [][]float64 `json:"values"`
	// Empty marks cells that had no readings before smoothing. Nil for
	// surfaces that did not come from a scan.
	Empty [][]bool `json:"empty,omitempty"`
}

// Assemble builds a Heatmap from the smoothed surface of res.
func Assemble(res *wallscan.Result, title string) *Heatmap {
	hm := FromSurface(title, res.Grid.XCenters, res.Grid.ZCenters, res.Surface)
	hm.Unit = UnitMillimetres
	hm.Empty = make([][]bool, len(res.Grid.Empty))
	for row, cells := range res.Grid.Empty {
		hm.Empty[row] = append([]bool(nil), cells...)
	}
	return hm
}

// FromSurface copies values and axes into a new Heatmap labelled
// UnitArbitrary. Callers with a physical unit set Unit themselves.
func FromSurface(title string, x, z []float64, values [][]float64) *Heatmap {
	hm := &Heatmap{
		Title:  title,
		Unit:   UnitArbitrary,
		X:      append([]float64(nil), x...),
		Z:      append([]float64(nil), z...),
		Values: make([][]float64, len(values)),
	}
	for row, v := range values {
		hm.Values[row] = append([]float64(nil), v...)
	}
	return hm
}

// Dims returns the column and row counts.
func (hm *Heatmap) Dims() (cols, rows int) {
	return len(hm.X), len(hm.Z)
}

// Range returns the minimum and maximum value. An empty heatmap yields 0, 0.
func (hm *Heatmap) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range hm.Values {
		if len(row) == 0 {
			continue
		}
		lo = math.Min(lo, floats.Min(row))
		hi = math.Max(hi, floats.Max(row))
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

// symmetricLimit returns the largest absolute value, or 1 for a flat map,
// so colour scales can centre 0 between bulge and recess.
func (hm *Heatmap) symmetricLimit() float64 {
	lo, hi := hm.Range()
	limit := math.Max(math.Abs(lo), math.Abs(hi))
	if limit == 0 {
		return 1
	}
	return limit
}
