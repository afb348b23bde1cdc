package wallscan

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Extent is the physical binning domain in metres.
type Extent struct {
	XMin, XMax float64
	ZMin, ZMax float64
}

// DeviationGrid is a fixed-extent 2-D histogram of deviations.
//
// All 2-D slices are indexed [row][col] with rows along z (vertical,
// ascending) and columns along x (horizontal, ascending). Bins are
// right-open except the last bin on each axis, which also includes its
// upper edge.
//
// Mean holds sum/count per cell and 0 for empty cells. The zero fill biases
// unsampled cells toward "no deviation" before smoothing; Empty keeps the
// distinction between a measured 0 and no data.
type DeviationGrid struct {
	NX, NZ   int
	XEdges   []float64 // NX+1 edges
	ZEdges   []float64 // NZ+1 edges
	XCenters []float64
	ZCenters []float64

	Sum   [][]float64
	Count [][]int
	Mean  [][]float64
	Empty [][]bool

	// OutsideExtent counts points that fell outside every bin.
	OutsideExtent int
}

// NewDeviationGrid allocates an empty grid of nx by nz bins over extent.
func NewDeviationGrid(extent Extent, nx, nz int) *DeviationGrid {
	g := &DeviationGrid{
		NX:     nx,
		NZ:     nz,
		XEdges: floats.Span(make([]float64, nx+1), extent.XMin, extent.XMax),
		ZEdges: floats.Span(make([]float64, nz+1), extent.ZMin, extent.ZMax),
	}
	// Pin the upper edges so the closed last bin includes the extent boundary.
	g.XEdges[nx] = extent.XMax
	g.ZEdges[nz] = extent.ZMax
	g.XCenters = binCenters(g.XEdges)
	g.ZCenters = binCenters(g.ZEdges)

	g.Sum = make([][]float64, nz)
	g.Count = make([][]int, nz)
	g.Mean = make([][]float64, nz)
	g.Empty = make([][]bool, nz)
	for row := 0; row < nz; row++ {
		g.Sum[row] = make([]float64, nx)
		g.Count[row] = make([]int, nx)
		g.Mean[row] = make([]float64, nx)
		g.Empty[row] = make([]bool, nx)
		for col := range g.Empty[row] {
			g.Empty[row][col] = true
		}
	}
	return g
}

func binCenters(edges []float64) []float64 {
	centers := make([]float64, len(edges)-1)
	for i := range centers {
		centers[i] = (edges[i] + edges[i+1]) / 2
	}
	return centers
}

// binIndex returns the bin of v for ascending edges, or false when v lies
// outside [edges[0], edges[n]].
func binIndex(edges []float64, v float64) (int, bool) {
	n := len(edges) - 1
	if math.IsNaN(v) || v < edges[0] || v > edges[n] {
		return 0, false
	}
	if v == edges[n] {
		return n - 1, true
	}
	// First edge strictly greater than v closes v's bin.
	i := sort.Search(len(edges), func(i int) bool { return edges[i] > v })
	return i - 1, true
}

// Add accumulates one point. It reports false when the point falls outside
// the extent.
func (g *DeviationGrid) Add(p ProjectedPoint) bool {
	col, okX := binIndex(g.XEdges, p.XMeters)
	row, okZ := binIndex(g.ZEdges, p.ZMeters)
	if !okX || !okZ {
		g.OutsideExtent++
		return false
	}
	g.Sum[row][col] += p.DeviationMM
	g.Count[row][col]++
	return true
}

// finalize recomputes Mean and Empty from Sum and Count.
func (g *DeviationGrid) finalize() {
	for row := 0; row < g.NZ; row++ {
		for col := 0; col < g.NX; col++ {
			if c := g.Count[row][col]; c > 0 {
				g.Mean[row][col] = g.Sum[row][col] / float64(c)
				g.Empty[row][col] = false
			} else {
				g.Mean[row][col] = 0
				g.Empty[row][col] = true
			}
		}
	}
}

// Aggregate bins points into a new grid and computes per-cell means.
// Points outside extent are counted in OutsideExtent; a grid with no binned
// points is returned all empty rather than as an error.
func Aggregate(points []ProjectedPoint, extent Extent, nx, nz int) *DeviationGrid {
	g := NewDeviationGrid(extent, nx, nz)
	for _, p := range points {
		g.Add(p)
	}
	g.finalize()
	return g
}

// Binned returns the total count of points that landed in a cell.
func (g *DeviationGrid) Binned() int {
	total := 0
	for _, row := range g.Count {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// EmptyCells returns the number of cells without any contributing point.
func (g *DeviationGrid) EmptyCells() int {
	n := 0
	for _, row := range g.Empty {
		for _, e := range row {
			if e {
				n++
			}
		}
	}
	return n
}

// MeasuredValues returns the means of non-empty cells in row-major order.
func (g *DeviationGrid) MeasuredValues() []float64 {
	var out []float64
	for row := 0; row < g.NZ; row++ {
		for col := 0; col < g.NX; col++ {
			if !g.Empty[row][col] {
				out = append(out, g.Mean[row][col])
			}
		}
	}
	return out
}

// Dense returns the zero-filled means as an NZ x NX matrix.
func (g *DeviationGrid) Dense() *mat.Dense {
	return denseFromRows(g.Mean)
}

func denseFromRows(rows [][]float64) *mat.Dense {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for r, row := range rows {
		m.SetRow(r, row)
	}
	return m
}
