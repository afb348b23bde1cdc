package render

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// Diverging terminal styles from strongest bulge to strongest recess.
var terminalStyles = []*pterm.Style{
	pterm.NewStyle(pterm.BgBlue, pterm.FgWhite),
	pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	pterm.NewStyle(pterm.BgGray, pterm.FgBlack),
	pterm.NewStyle(pterm.BgYellow, pterm.FgBlack),
	pterm.NewStyle(pterm.BgRed, pterm.FgWhite),
}

var terminalLabels = []string{"bulge", "slight bulge", "flat", "slight recess", "recess"}

// BuildTerminalMap draws hm as coloured blocks, highest row first. Columns
// are averaged in groups so the map is at most maxCols cells wide.
func BuildTerminalMap(hm *Heatmap, maxCols int) string {
	cols, rows := hm.Dims()
	if cols == 0 || rows == 0 {
		return ""
	}
	if maxCols < 1 {
		maxCols = 1
	}
	group := (cols + maxCols - 1) / maxCols
	limit := hm.symmetricLimit()

	var b strings.Builder
	for row := rows - 1; row >= 0; row-- {
		fmt.Fprintf(&b, "%6.2fm |", hm.Z[row])
		for start := 0; start < cols; start += group {
			end := min(start+group, cols)
			var sum float64
			for col := start; col < end; col++ {
				sum += hm.Values[row][col]
			}
			b.WriteString(terminalBlock(sum/float64(end-start), limit))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "        x %.2fm .. %.2fm\n\n", hm.X[0], hm.X[cols-1])
	b.WriteString(terminalLegend(limit, hm.Unit))
	return b.String()
}

func terminalBlock(v, limit float64) string {
	// Map [-limit, limit] onto the style buckets.
	idx := int((v/limit + 1) / 2 * float64(len(terminalStyles)))
	idx = max(0, min(idx, len(terminalStyles)-1))
	return terminalStyles[idx].Sprint("▄▄")
}

func terminalLegend(limit float64, unit string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deviation (±%.2f %s): ", limit, unit)
	for i, style := range terminalStyles {
		b.WriteString(style.Sprint("▄▄") + " " + terminalLabels[i] + "  ")
	}
	return strings.TrimRight(b.String(), " ")
}

// PrintTerminalMap prints hm inside a titled pterm box.
func PrintTerminalMap(hm *Heatmap, maxCols int) {
	lo, hi := hm.Range()
	cols, rows := hm.Dims()
	title := fmt.Sprintf("%s | %dx%d | Range: %.2f..%.2f %s", hm.Title, cols, rows, lo, hi, hm.Unit)
	pterm.DefaultBox.WithTitle(title).WithTitleTopLeft().Println(BuildTerminalMap(hm, maxCols))
}
