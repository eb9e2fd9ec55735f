package analysis

import (
	"errors"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/eem_analyzer_go/internal/parser"
)

// record builds a row of text cells from alternating name/value pairs.
func record(kv ...string) parser.Record {
	cols := make([]string, 0, len(kv)/2)
	cells := make([]parser.Cell, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		cols = append(cols, kv[i])
		cells = append(cells, parser.TextCell(kv[i+1]))
	}
	return parser.NewRecord(cols, cells)
}

func TestValidateSchema(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := ValidateSchema(nil)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
	t.Run("missing em", func(t *testing.T) {
		_, err := ValidateSchema([]parser.Record{record("Ex", "1", "A", "2")})
		assert.ErrorIs(t, err, ErrMissingRequiredColumn)
	})
	t.Run("no measurement columns", func(t *testing.T) {
		_, err := ValidateSchema([]parser.Record{record("EX", "1", "em", "2")})
		assert.ErrorIs(t, err, ErrNoMeasurementColumns)
	})
	t.Run("case-insensitive match keeps order", func(t *testing.T) {
		schema, err := ValidateSchema([]parser.Record{
			record("18u2", "1", "eX", "280", "B", "3", "EM", "340", "18u0", "5"),
		})
		require.NoError(t, err)
		assert.Equal(t, "eX", schema.ExColumn)
		assert.Equal(t, "EM", schema.EmColumn)
		assert.Equal(t, []string{"18u2", "B", "18u0"}, schema.MeasurementColumns)
	})
	t.Run("first row is the schema", func(t *testing.T) {
		schema, err := ValidateSchema([]parser.Record{
			record("Ex", "1", "Em", "2", "A", "3"),
			record("Ex", "1", "Em", "2", "A", "3", "B", "4"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, schema.MeasurementColumns)
	})
}

func TestReduceRows(t *testing.T) {
	schema := Schema{ExColumn: "Ex", EmColumn: "Em", MeasurementColumns: []string{"A", "B", "C"}}
	records := []parser.Record{
		record("Ex", "280", "Em", "340", "A", "10", "B", "4", "C", "100"),
		record("Ex", "n/a", "Em", "340", "A", "10"),
		record("Ex", "285", "Em", "", "A", "10"),
		record("Ex", "290", "Em", "340", "A", "junk", "B", "junk"),
		record("Ex", "295", "Em", "340", "B", "1,5"),
	}
	factors := CorrectionFactors{"A": 2, "B": 10, "Missing": 3}

	rows := ReduceRows(records, schema, factors)
	require.Len(t, rows, 3)
	assert.Equal(t, ReducedRow{Ex: 280, Em: 340, MaxF: 40}, rows[0]) // C has no factor
	assert.Equal(t, ReducedRow{Ex: 290, Em: 340, MaxF: 0}, rows[1])
	assert.InDelta(t, 15.0, rows[2].MaxF, 1e-9)
}

func TestReduceRowsNegativeReadingsFloorAtZero(t *testing.T) {
	schema := Schema{ExColumn: "Ex", EmColumn: "Em", MeasurementColumns: []string{"A"}}
	rows := ReduceRows([]parser.Record{record("Ex", "1", "Em", "2", "A", "-185,789")}, schema, CorrectionFactors{"A": 1})
	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0].MaxF)
}

func TestReduceRowsLengthProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	schema := Schema{ExColumn: "Ex", EmColumn: "Em", MeasurementColumns: []string{"A"}}
	values := []string{"1", "2,5", "x", "", "1.000,5", "300"}

	for trial := 0; trial < 50; trial++ {
		n := rng.Intn(20)
		records := make([]parser.Record, n)
		parseable := 0
		for i := range records {
			ex := values[rng.Intn(len(values))]
			em := values[rng.Intn(len(values))]
			records[i] = record("Ex", ex, "Em", em, "A", values[rng.Intn(len(values))])
			_, okEx := parser.ParseNumberString(ex)
			_, okEm := parser.ParseNumberString(em)
			if okEx && okEm {
				parseable++
			}
		}
		rows := ReduceRows(records, schema, CorrectionFactors{"A": 1.5})
		assert.LessOrEqual(t, len(rows), len(records))
		assert.Equal(t, parseable, len(rows))
	}
}

func TestBuildGrid(t *testing.T) {
	rows := []ReducedRow{
		{Ex: 290, Em: 350, MaxF: 5},
		{Ex: 280, Em: 340, MaxF: 1},
		{Ex: 280, Em: 350, MaxF: 2},
		{Ex: 290, Em: 350, MaxF: 7}, // Overwrites the first row
	}
	grid := BuildGrid(rows)

	assert.Equal(t, []float64{280, 290}, grid.X)
	assert.Equal(t, []float64{340, 350}, grid.Y)
	assert.Equal(t, [][]float64{
		{1, 0},
		{2, 7},
	}, grid.Z)

	cols, rowsN := grid.Dims()
	assert.Equal(t, 2, cols)
	assert.Equal(t, 2, rowsN)
	assert.Equal(t, 7.0, grid.At(1, 1))
}

func TestBuildGridShapeProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		rows := make([]ReducedRow, rng.Intn(40))
		for i := range rows {
			rows[i] = ReducedRow{
				Ex:   float64(250 + 5*rng.Intn(8)),
				Em:   float64(300 + 10*rng.Intn(6)),
				MaxF: rng.Float64() * 100,
			}
		}
		grid := BuildGrid(rows)
		for i := 1; i < len(grid.X); i++ {
			assert.Less(t, grid.X[i-1], grid.X[i])
		}
		for i := 1; i < len(grid.Y); i++ {
			assert.Less(t, grid.Y[i-1], grid.Y[i])
		}
		require.Len(t, grid.Z, len(grid.Y))
		for _, row := range grid.Z {
			assert.Len(t, row, len(grid.X))
		}
	}
}

func TestBuildGridEmpty(t *testing.T) {
	grid := BuildGrid(nil)
	assert.Empty(t, grid.X)
	assert.Empty(t, grid.Y)
	assert.Empty(t, grid.Z)
	assert.Equal(t, 100.0, grid.AutoMaxF())
}

func TestAutoMaxF(t *testing.T) {
	grid := HeatmapGrid{X: []float64{1, 2}, Y: []float64{1}, Z: [][]float64{{3, 9.5}}}
	assert.Equal(t, 9.5, grid.AutoMaxF())

	overflowed := HeatmapGrid{X: []float64{1, 2}, Y: []float64{1}, Z: [][]float64{{math.Inf(1), 4}}}
	assert.Equal(t, 4.0, overflowed.AutoMaxF())

	allInf := HeatmapGrid{X: []float64{1}, Y: []float64{1}, Z: [][]float64{{math.Inf(1)}}}
	assert.Equal(t, 100.0, allInf.AutoMaxF())
}

func TestExtractCurve(t *testing.T) {
	grid := HeatmapGrid{
		X: []float64{250, 260, 270},
		Y: []float64{300, 310, 320},
		Z: [][]float64{
			{1, 4, 0},
			{3, 4, 0},
			{2, 1, 0},
		},
	}
	curve := ExtractCurve(grid)
	assert.Equal(t, []ExMaxPoint{
		{Ex: 250, MaxF: 3, Em: 310},
		{Ex: 260, MaxF: 4, Em: 300}, // First Em wins the tie
		{Ex: 270, MaxF: 0, Em: 300},
	}, curve)

	assert.Empty(t, ExtractCurve(HeatmapGrid{X: []float64{1}, Y: nil, Z: nil}))
}

func curveOf(values ...float64) []ExMaxPoint {
	curve := make([]ExMaxPoint, len(values))
	for i, v := range values {
		curve[i] = ExMaxPoint{Ex: float64(i), MaxF: v, Em: float64(100 + i)}
	}
	return curve
}

func TestDetectPeaks(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantIdx []int
	}{
		{"mixed with plateau and rising end", []float64{1, 3, 2, 5, 5, 4, 6}, []int{1, 4}},
		{"strictly increasing", []float64{1, 2, 3, 4}, nil},
		{"strictly decreasing", []float64{4, 3, 2, 1}, nil},
		{"flat", []float64{2, 2, 2}, nil},
		{"single point", []float64{7}, nil},
		{"empty", nil, nil},
		{"plateau after rise", []float64{1, 2, 2, 2, 1}, []int{3}},
		{"valley then peak", []float64{3, 1, 1, 4, 2}, []int{3}},
		{"rising then flat to end", []float64{1, 5, 5}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curve := curveOf(tt.values...)
			peaks := DetectPeaks(curve)
			require.Len(t, peaks, len(tt.wantIdx))
			for i, idx := range tt.wantIdx {
				assert.Equal(t, PeakPoint{Ex: curve[idx].Ex, Em: curve[idx].Em, MaxF: curve[idx].MaxF}, peaks[i])
			}
		})
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	records := []parser.Record{
		record("Ex", "280", "Em", "340", "colA", "10"),
		record("Ex", "280", "Em", "350", "colA", "20"),
	}

	results, err := Analyze(records, CorrectionFactors{"colA": 2})
	require.NoError(t, err)

	assert.Equal(t, []ReducedRow{{Ex: 280, Em: 340, MaxF: 20}, {Ex: 280, Em: 350, MaxF: 40}}, results.Rows)
	assert.Equal(t, []float64{280}, results.Grid.X)
	assert.Equal(t, []float64{340, 350}, results.Grid.Y)
	assert.Equal(t, [][]float64{{20}, {40}}, results.Grid.Z)
	assert.Equal(t, []ExMaxPoint{{Ex: 280, MaxF: 40, Em: 350}}, results.Curve)
	assert.Empty(t, results.Peaks)
	assert.Equal(t, 0, results.SkippedRows)
	assert.Equal(t, 2, results.Summary.Count)
	assert.Equal(t, 40.0, results.Summary.Max)
	assert.Equal(t, 1.0, results.Summary.CellCoverage)
}

func TestAnalyzeValidationFailuresProduceNoResults(t *testing.T) {
	results, err := Analyze(nil, CorrectionFactors{})
	assert.Nil(t, results)
	assert.True(t, errors.Is(err, ErrEmptyInput))

	results, err = Analyze([]parser.Record{record("x", "1", "Em", "2", "A", "3")}, nil)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, ErrMissingRequiredColumn)

	results, err = Analyze([]parser.Record{record("Ex", "1", "Em", "2", "A", "3")}, CorrectionFactors{"A": -1})
	assert.Nil(t, results)
	assert.ErrorIs(t, err, ErrInvalidFactor)
}

func TestAnalyzeWarnings(t *testing.T) {
	records := []parser.Record{
		record("Ex", "280", "Em", "340", "A", "10"),
		record("Ex", "?", "Em", "340", "A", "10"),
	}
	results, err := Analyze(records, CorrectionFactors{"A": 1, "Z": 2})
	require.NoError(t, err)
	assert.Equal(t, 1, results.SkippedRows)
	assert.Len(t, results.AnalysisErrors, 2)
}

func TestAnalyzeIsIdempotentAndSafeConcurrently(t *testing.T) {
	records := make([]parser.Record, 0, 60)
	for ex := 250; ex < 260; ex++ {
		for em := 300; em < 306; em++ {
			records = append(records, record(
				"Ex", strconv.Itoa(ex), "Em", strconv.Itoa(em),
				"18u0", strconv.Itoa((ex*em)%97), "18u2", strconv.Itoa((ex+em)%13),
			))
		}
	}
	factors := CorrectionFactors{"18u0": 1, "18u2": 1.4}

	first, err := Analyze(records, factors)
	require.NoError(t, err)
	second, err := Analyze(records, factors)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var wg sync.WaitGroup
	outs := make([]*AnalysisResults, 8)
	for i := range outs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f := factors.With("18u2", float64(i))
			outs[i], _ = Analyze(records, f)
		}(i)
	}
	wg.Wait()
	for i, out := range outs {
		require.NotNil(t, out)
		assert.Equal(t, float64(i), out.Factors["18u2"])
	}
}
