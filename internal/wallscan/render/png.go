package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// paletteSize is the number of discrete colours in PNG heatmaps.
const paletteSize = 255

// gridXYZ adapts a Heatmap to plotter.GridXYZ.
type gridXYZ struct {
	hm *Heatmap
}

func (g gridXYZ) Dims() (c, r int)   { return g.hm.Dims() }
func (g gridXYZ) Z(c, r int) float64 { return g.hm.Values[r][c] }
func (g gridXYZ) X(c int) float64    { return g.hm.X[c] }
func (g gridXYZ) Y(r int) float64    { return g.hm.Z[r] }

func newPlot(hm *Heatmap) (*plot.Plot, error) {
	cols, rows := hm.Dims()
	if cols == 0 || rows == 0 {
		return nil, fmt.Errorf("empty heatmap")
	}

	p := plot.New()
	p.Title.Text = hm.Title
	p.X.Label.Text = "Horizontal Position (m)"
	p.Y.Label.Text = fmt.Sprintf("Height (m), deviation in %s", hm.Unit)

	cm := moreland.SmoothBlueRed()
	heat := plotter.NewHeatMap(gridXYZ{hm: hm}, cm.Palette(paletteSize))
	limit := hm.symmetricLimit()
	heat.Min = -limit
	heat.Max = limit
	p.Add(heat)
	return p, nil
}

// WritePNG draws hm and writes the PNG encoding to w.
func WritePNG(w io.Writer, hm *Heatmap, width, height vg.Length) error {
	p, err := newPlot(hm)
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// SavePNG draws hm into path, creating parent directories as needed.
func SavePNG(path string, hm *Heatmap, width, height vg.Length) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	p, err := newPlot(hm)
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save png plot: %w", err)
	}
	return nil
}
