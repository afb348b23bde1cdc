package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// AssetsHost serves the echarts javascript. Override to render offline.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Diverging palette: blue for bulges toward the sensor, red for recesses.
var divergingColors = []string{"#053061", "#2166ac", "#4393c3", "#92c5de", "#d1e5f0", "#f7f7f7", "#fddbc7", "#f4a582", "#d6604d", "#b2182b", "#67001f"}

// RenderHTML writes a self-contained echarts heatmap page for hm.
func RenderHTML(w io.Writer, hm *Heatmap) error {
	cols, rows := hm.Dims()
	if cols == 0 || rows == 0 {
		return fmt.Errorf("render html: empty heatmap")
	}

	xLabels := make([]string, cols)
	for i, v := range hm.X {
		xLabels[i] = fmt.Sprintf("%.2f", v)
	}
	zLabels := make([]string, rows)
	for i, v := range hm.Z {
		zLabels[i] = fmt.Sprintf("%.2f", v)
	}

	data := make([]opts.HeatMapData, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{col, row, hm.Values[row][col]}})
		}
	}

	limit := hm.symmetricLimit()
	lo, hi := hm.Range()

	heat := charts.NewHeatMap()
	heat.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: hm.Title, Width: "1000px", Height: "600px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: hm.Title, Subtitle: fmt.Sprintf("grid=%dx%d range=%.2f..%.2f %s", cols, rows, lo, hi, hm.Unit)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xLabels, Name: "Horizontal Position (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: zLabels, Name: "Height (m)", NameLocation: "middle", NameGap: 40}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(-limit),
			Max:        float32(limit),
			Text:       []string{"recess (" + hm.Unit + ")", "bulge"},
			InRange:    &opts.VisualMapInRange{Color: divergingColors},
		}),
	)
	heat.SetXAxis(xLabels).AddSeries("deviation", data)

	if err := heat.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
