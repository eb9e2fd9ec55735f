package analysis

import (
	"math"
	"sort"
)

// defaultAutoMaxF is the colour-scale ceiling used when a grid has no cells.
const defaultAutoMaxF = 100.0

// BuildGrid lays the reduced rows out on the sorted distinct Ex (columns)
// and Em (rows) axes. Coordinates are matched by exact equality. When two
// rows share a coordinate pair the later one wins; cells no row reaches
// stay 0.
func BuildGrid(rows []ReducedRow) HeatmapGrid {
	xIndex := make(map[float64]int)
	yIndex := make(map[float64]int)
	for _, r := range rows {
		xIndex[r.Ex] = 0
		yIndex[r.Em] = 0
	}

	x := sortedKeys(xIndex)
	y := sortedKeys(yIndex)
	for j, v := range x {
		xIndex[v] = j
	}
	for i, v := range y {
		yIndex[v] = i
	}

	z := make([][]float64, len(y))
	for i := range z {
		z[i] = make([]float64, len(x)) // Sentinel 0
	}
	for _, r := range rows {
		z[yIndex[r.Em]][xIndex[r.Ex]] = r.MaxF
	}

	return HeatmapGrid{X: x, Y: y, Z: z}
}

func sortedKeys(set map[float64]int) []float64 {
	keys := make([]float64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	return keys
}

// Dims returns the number of Ex columns and Em rows.
func (g HeatmapGrid) Dims() (cols, rows int) {
	return len(g.X), len(g.Y)
}

// At returns the value at Ex column c and Em row r.
func (g HeatmapGrid) At(c, r int) float64 {
	return g.Z[r][c]
}

// AutoMaxF is the largest finite value in the grid, used as the automatic
// top of the colour scale. A grid with no finite cells gives 100.
func (g HeatmapGrid) AutoMaxF() float64 {
	max := math.Inf(-1)
	for _, row := range g.Z {
		for _, v := range row {
			if !math.IsInf(v, 0) && !math.IsNaN(v) && v > max {
				max = v
			}
		}
	}
	if math.IsInf(max, -1) {
		return defaultAutoMaxF
	}
	return max
}

// MeasuredCells counts the distinct (Ex, Em) pairs present in rows.
func MeasuredCells(rows []ReducedRow) int {
	type key struct{ ex, em float64 }
	seen := make(map[key]struct{}, len(rows))
	for _, r := range rows {
		seen[key{r.Ex, r.Em}] = struct{}{}
	}
	return len(seen)
}
