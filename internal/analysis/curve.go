package analysis

import (
	"gonum.org/v1/gonum/floats"
)

// ExtractCurve collapses the grid to one point per Ex, in ascending Ex
// order: the column maximum and the Em where it first occurs scanning Em
// upwards. Columns without cells (an empty Em axis) produce no point.
func ExtractCurve(grid HeatmapGrid) []ExMaxPoint {
	curve := make([]ExMaxPoint, 0, len(grid.X))
	if len(grid.Y) == 0 {
		return curve
	}

	column := make([]float64, len(grid.Y))
	for j, ex := range grid.X {
		for i := range grid.Y {
			column[i] = grid.Z[i][j]
		}
		i := floats.MaxIdx(column) // Lowest index among equal maxima
		curve = append(curve, ExMaxPoint{
			Ex:   ex,
			MaxF: column[i],
			Em:   grid.Y[i],
		})
	}
	return curve
}
