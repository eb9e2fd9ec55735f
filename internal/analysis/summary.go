package analysis

import (
	"github.com/montanaflynn/stats"
)

// SummarizeIntensity computes distribution statistics of MaxF over rows and
// the share of grid cells that a row actually filled.
func SummarizeIntensity(rows []ReducedRow, grid HeatmapGrid) (IntensitySummary, error) {
	summary := IntensitySummary{Count: len(rows)}
	if len(rows) == 0 {
		return summary, nil
	}

	data := make(stats.Float64Data, len(rows))
	for i, r := range rows {
		data[i] = r.MaxF
	}

	var err error
	if summary.Min, err = data.Min(); err != nil {
		return summary, err
	}
	if summary.Max, err = data.Max(); err != nil {
		return summary, err
	}
	if summary.Mean, err = data.Mean(); err != nil {
		return summary, err
	}
	if summary.Median, err = data.Median(); err != nil {
		return summary, err
	}
	if summary.P95, err = data.Percentile(95); err != nil {
		return summary, err
	}

	cols, rowsN := grid.Dims()
	if cells := cols * rowsN; cells > 0 {
		summary.CellCoverage = float64(MeasuredCells(rows)) / float64(cells)
	}
	return summary, nil
}
