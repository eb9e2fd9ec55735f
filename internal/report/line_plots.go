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

	"github.com/user/eem_analyzer_go/internal/analysis"
)

func finitePoint(x, y float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x) && !math.IsInf(y, 0) && !math.IsNaN(y)
}

// CreateExMaxPlot draws the excitation-maxima curve with the detected peaks
// ringed and labelled with their Ex/Em, and returns PNG bytes. Points with a
// non-finite Ex or MaxF are left out of the drawing.
func CreateExMaxPlot(curve []analysis.ExMaxPoint, peaks []analysis.PeakPoint, plotTitle string, width, height vg.Length) ([]byte, error) {
	pts := make(plotter.XYs, 0, len(curve))
	for _, pt := range curve {
		if finitePoint(pt.Ex, pt.MaxF) {
			pts = append(pts, plotter.XY{X: pt.Ex, Y: pt.MaxF})
		}
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("no finite curve points to plot")
	}

	p := plot.New()
	p.Title.Text = plotTitle
	p.X.Label.Text = "Excitation (Ex)"
	p.Y.Label.Text = "MaxF"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create curve line: %w", err)
	}
	line.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255} // Blue
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("MaxF per Ex", line)

	peakPts := make(plotter.XYs, 0, len(peaks))
	labels := make([]string, 0, len(peaks))
	for _, pk := range peaks {
		if finitePoint(pk.Ex, pk.MaxF) {
			peakPts = append(peakPts, plotter.XY{X: pk.Ex, Y: pk.MaxF})
			labels = append(labels, fmt.Sprintf("Ex %g / Em %g", pk.Ex, pk.Em))
		}
	}
	if len(peakPts) > 0 {
		scatter, err := plotter.NewScatter(peakPts)
		if err != nil {
			return nil, fmt.Errorf("failed to create peak markers: %w", err)
		}
		scatter.GlyphStyle.Shape = draw.RingGlyph{}
		scatter.GlyphStyle.Color = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 255} // Red
		scatter.GlyphStyle.Radius = vg.Points(4)
		p.Add(scatter)
		p.Legend.Add("Local maxima", scatter)

		peakLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: peakPts, Labels: labels})
		if err != nil {
			return nil, fmt.Errorf("failed to create peak labels: %w", err)
		}
		peakLabels.Offset = vg.Point{X: vg.Points(5), Y: vg.Points(5)}
		p.Add(peakLabels)
	}

	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(-10)

	writer, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %w", err)
	}
	return buf.Bytes(), nil
}
