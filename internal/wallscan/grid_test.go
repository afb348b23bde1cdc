package wallscan

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNewDeviationGrid_EdgesAndCenters(t *testing.T) {
	g := NewDeviationGrid(Extent{XMin: -2, XMax: 2, ZMin: 0, ZMax: 2}, 4, 2)

	approx := cmpopts.EquateApprox(0, 1e-12)
	if diff := cmp.Diff([]float64{-2, -1, 0, 1, 2}, g.XEdges, approx); diff != "" {
		t.Errorf("XEdges mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{-1.5, -0.5, 0.5, 1.5}, g.XCenters, approx); diff != "" {
		t.Errorf("XCenters mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.5, 1.5}, g.ZCenters, approx); diff != "" {
		t.Errorf("ZCenters mismatch (-want +got):\n%s", diff)
	}
	if g.EmptyCells() != 8 {
		t.Errorf("EmptyCells() = %d, want 8", g.EmptyCells())
	}
}

func TestBinIndex(t *testing.T) {
	edges := []float64{0, 1, 2, 3}
	tests := []struct {
		v      float64
		want   int
		wantOK bool
	}{
		{v: 0, want: 0, wantOK: true},
		{v: 0.5, want: 0, wantOK: true},
		{v: 1, want: 1, wantOK: true}, // right-open: left edge belongs to the next bin
		{v: 2.999, want: 2, wantOK: true},
		{v: 3, want: 2, wantOK: true}, // last bin is closed
		{v: -0.0001, wantOK: false},
		{v: 3.0001, wantOK: false},
		{v: math.NaN(), wantOK: false},
	}
	for _, tt := range tests {
		got, ok := binIndex(edges, tt.v)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("binIndex(%v) = (%d, %v), want (%d, %v)", tt.v, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAggregate_MeanPerCell(t *testing.T) {
	extent := Extent{XMin: -2, XMax: 2, ZMin: 0, ZMax: 2}
	points := []ProjectedPoint{
		{XMeters: -1.5, ZMeters: 0.2, DeviationMM: 2},
		{XMeters: -1.2, ZMeters: 0.9, DeviationMM: 4},
		{XMeters: 1.9, ZMeters: 1.5, DeviationMM: -3},
		{XMeters: 0.1, ZMeters: 1.0, DeviationMM: 0}, // z=1 opens the upper row
	}
	g := Aggregate(points, extent, 4, 2)

	if g.Count[0][0] != 2 || g.Mean[0][0] != 3 {
		t.Errorf("cell[0][0] count=%d mean=%v, want 2 and 3", g.Count[0][0], g.Mean[0][0])
	}
	if g.Count[1][3] != 1 || g.Mean[1][3] != -3 {
		t.Errorf("cell[1][3] count=%d mean=%v, want 1 and -3", g.Count[1][3], g.Mean[1][3])
	}
	// A measured zero is not an empty cell.
	if g.Empty[1][2] || g.Mean[1][2] != 0 || g.Count[1][2] != 1 {
		t.Errorf("cell[1][2] empty=%v mean=%v count=%d, want measured zero", g.Empty[1][2], g.Mean[1][2], g.Count[1][2])
	}
	// Unsampled cells are zero-filled and flagged; the zero fill is a known
	// approximation that flattens gaps before smoothing.
	if !g.Empty[0][3] || g.Mean[0][3] != 0 {
		t.Errorf("cell[0][3] empty=%v mean=%v, want empty zero", g.Empty[0][3], g.Mean[0][3])
	}
	if g.Binned() != len(points) {
		t.Errorf("Binned() = %d, want %d", g.Binned(), len(points))
	}
	if g.EmptyCells() != 5 {
		t.Errorf("EmptyCells() = %d, want 5", g.EmptyCells())
	}
}

func TestAggregate_CountsMatchPointsInsideExtent(t *testing.T) {
	extent := Extent{XMin: -1, XMax: 1, ZMin: 0, ZMax: 1}
	var points []ProjectedPoint
	for i := 0; i < 50; i++ {
		points = append(points, ProjectedPoint{XMeters: -1 + float64(i)*0.04, ZMeters: float64(i%10) * 0.1, DeviationMM: float64(i)})
	}
	outside := []ProjectedPoint{
		{XMeters: 1.01, ZMeters: 0.5},
		{XMeters: 0, ZMeters: -0.01},
		{XMeters: -5, ZMeters: 5},
	}
	g := Aggregate(append(points, outside...), extent, 7, 3)

	if g.Binned() != len(points) {
		t.Errorf("Binned() = %d, want %d", g.Binned(), len(points))
	}
	if g.OutsideExtent != len(outside) {
		t.Errorf("OutsideExtent = %d, want %d", g.OutsideExtent, len(outside))
	}
}

func TestAggregate_AllOutsideExtent(t *testing.T) {
	extent := Extent{XMin: -1, XMax: 1, ZMin: 0, ZMax: 1}
	points := []ProjectedPoint{{XMeters: 3, ZMeters: 0.5, DeviationMM: 7}, {XMeters: 0, ZMeters: 9, DeviationMM: -2}}

	g := Aggregate(points, extent, 5, 4)
	if g.EmptyCells() != 20 {
		t.Errorf("EmptyCells() = %d, want 20", g.EmptyCells())
	}
	for row := range g.Mean {
		for col, v := range g.Mean[row] {
			if v != 0 || !g.Empty[row][col] {
				t.Fatalf("cell[%d][%d] = %v empty=%v, want empty zero", row, col, v, g.Empty[row][col])
			}
		}
	}
	if len(g.MeasuredValues()) != 0 {
		t.Errorf("MeasuredValues() = %v, want none", g.MeasuredValues())
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	extent := Extent{XMin: -2, XMax: 2, ZMin: 0, ZMax: 2}
	points := []ProjectedPoint{
		{XMeters: 0.11, ZMeters: 0.3, DeviationMM: 0.1},
		{XMeters: 0.12, ZMeters: 0.31, DeviationMM: 0.2},
		{XMeters: 0.13, ZMeters: 0.32, DeviationMM: 0.3},
	}
	a := Aggregate(points, extent, 20, 10)
	b := Aggregate(points, extent, 20, 10)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Aggregate not deterministic (-a +b):\n%s", diff)
	}
}

func TestDeviationGrid_Dense(t *testing.T) {
	g := Aggregate([]ProjectedPoint{{XMeters: 0.5, ZMeters: 0.5, DeviationMM: 4}}, Extent{XMin: 0, XMax: 1, ZMin: 0, ZMax: 1}, 2, 3)
	d := g.Dense()
	r, c := d.Dims()
	if r != 3 || c != 2 {
		t.Fatalf("Dense dims = %dx%d, want 3x2", r, c)
	}
	if d.At(1, 1) != 4 {
		t.Errorf("Dense.At(1,1) = %v, want 4", d.At(1, 1))
	}
}
