package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/user/eem_analyzer_go/internal/analysis"
)

const colorBarWidth = vg.Length(90)

// gridXYZ exposes a HeatmapGrid as a plotter.GridXYZ: columns are Ex, rows
// are Em.
type gridXYZ struct {
	g analysis.HeatmapGrid
}

func (g gridXYZ) Dims() (c, r int) { return g.g.Dims() }
func (g gridXYZ) Z(c, r int) float64 { return g.g.At(c, r) }
func (g gridXYZ) X(c int) float64 { return g.g.X[c] }
func (g gridXYZ) Y(r int) float64 { return g.g.Y[r] }

// clampGrid drops Ex columns and Em rows at non-finite coordinates and
// pins non-finite cells to the ends of the scale: +Inf draws in the top
// colour, NaN and -Inf in the bottom one.
func clampGrid(g analysis.HeatmapGrid, scale ColorScale) analysis.HeatmapGrid {
	finite := func(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }

	var out analysis.HeatmapGrid
	keepCols := make([]int, 0, len(g.X))
	for j, x := range g.X {
		if finite(x) {
			keepCols = append(keepCols, j)
			out.X = append(out.X, x)
		}
	}
	for i, y := range g.Y {
		if !finite(y) {
			continue
		}
		out.Y = append(out.Y, y)
		row := make([]float64, len(keepCols))
		for k, j := range keepCols {
			switch v := g.Z[i][j]; {
			case math.IsInf(v, 1):
				row[k] = scale.Max
			case !finite(v):
				row[k] = scale.Min
			default:
				row[k] = v
			}
		}
		out.Z = append(out.Z, row)
	}
	return out
}

// CreateHeatmapPlot renders the Ex × Em grid as a filled map with contour
// lines and a MaxF colour bar on the right, and returns PNG bytes.
// Values above the scale maximum are drawn in the top colour.
func CreateHeatmapPlot(grid analysis.HeatmapGrid, scale ColorScale, plotTitle string, width, height vg.Length) ([]byte, error) {
	grid = clampGrid(grid, scale)
	cols, rows := grid.Dims()
	if cols == 0 || rows == 0 {
		return nil, fmt.Errorf("no grid data to plot heatmap")
	}
	if width <= colorBarWidth {
		return nil, fmt.Errorf("heatmap width %v too small", width)
	}

	cm := NewJetColorMap(scale.Min, scale.Max, scale.Steps)
	pal := cm.Palette(defaultContinuousColors)
	palColors := pal.Colors()

	p := plot.New()
	p.Title.Text = plotTitle
	p.X.Label.Text = "Excitation (Ex)"
	p.Y.Label.Text = "Emission (Em)"

	hm := plotter.NewHeatMap(gridXYZ{grid}, pal)
	hm.Min = cm.Min()
	hm.Max = cm.Max()
	hm.Underflow = palColors[0]
	hm.Overflow = palColors[len(palColors)-1]
	p.Add(hm)

	// Contouring needs at least a 2×2 grid.
	if cols > 1 && rows > 1 {
		contour := plotter.NewContour(gridXYZ{grid}, scale.contourLevels(), colorList{color.White})
		for i := range contour.LineStyles {
			contour.LineStyles[i].Width = vg.Points(0.5)
		}
		p.Add(contour)
	}

	cbPlot := plot.New()
	cbPlot.Title.Text = "MaxF"
	cbPlot.HideX()
	cb := &plotter.ColorBar{ColorMap: cm, Vertical: true}
	if scale.Steps > 1 {
		cb.Colors = scale.Steps
	}
	cbPlot.Add(cb)

	img := vgimg.New(width, height)
	dc := draw.New(img)
	p.Draw(draw.Crop(dc, 0, -colorBarWidth, 0, 0))
	cbPlot.Draw(draw.Crop(dc, width-colorBarWidth, 0, 0, 0))

	buf := new(bytes.Buffer)
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write heatmap to buffer: %w", err)
	}
	return buf.Bytes(), nil
}
