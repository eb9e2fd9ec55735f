package report

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot/vg"

	"github.com/user/eem_analyzer_go/internal/analysis"
)

// RenderPlots draws the contour map and the excitation-maxima curve
// concurrently and returns them keyed by PlotKeyHeatmap and PlotKeyCurve.
// width and height are in points. The first rendering error cancels the
// other and is returned.
func RenderPlots(ctx context.Context, results *analysis.AnalysisResults, scale ColorScale, width, height float64) (map[string][]byte, error) {
	w, h := vg.Length(width), vg.Length(height)

	var mu sync.Mutex
	images := make(map[string][]byte, 2)
	store := func(key string, img []byte) {
		mu.Lock()
		images[key] = img
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := CreateHeatmapPlot(results.Grid, scale, "Fluorescence Map (MaxF)", w, h)
		if err != nil {
			return fmt.Errorf("heatmap: %w", err)
		}
		store(PlotKeyHeatmap, img)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := CreateExMaxPlot(results.Curve, results.Peaks, "Excitation Maxima", w, h/2)
		if err != nil {
			return fmt.Errorf("curve: %w", err)
		}
		store(PlotKeyCurve, img)
		return nil
	})

	if err := g.Wait(); err != nil {
		return images, err
	}
	return images, nil
}
