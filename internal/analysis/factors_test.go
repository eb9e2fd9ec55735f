package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactorsFromSequenceCycles(t *testing.T) {
	cols := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	factors := FactorsFromSequence(cols, DefaultFactorSequence)

	assert.Equal(t, CorrectionFactors{
		"a": 1.0, "b": 1.4, "c": 2.2, "d": 3.4, "e": 5.0, "f": 1.0,
		"g": 1.0, "h": 1.4,
	}, factors)

	assert.Equal(t, CorrectionFactors{"a": 1, "b": 1}, FactorsFromSequence([]string{"a", "b"}, nil))
}

func TestDefaultFactorsUseSchemaOrder(t *testing.T) {
	schema := Schema{ExColumn: "Ex", EmColumn: "Em", MeasurementColumns: []string{"18u8", "18u0"}}
	assert.Equal(t, CorrectionFactors{"18u8": 1.0, "18u0": 1.4}, DefaultFactors(schema, DefaultFactorSequence))
}

func TestCorrectionFactorsValidate(t *testing.T) {
	assert.NoError(t, CorrectionFactors{"a": 0, "b": 2.5}.Validate())
	assert.NoError(t, LegacyFactors().Validate())

	for _, bad := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		err := CorrectionFactors{"a": 1, "b": bad}.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidFactor)
		assert.Contains(t, err.Error(), `"b"`)
	}
}

func TestCorrectionFactorsCopies(t *testing.T) {
	base := CorrectionFactors{"a": 1}
	changed := base.With("a", 3)
	merged := base.Merge(CorrectionFactors{"b": 2})

	assert.Equal(t, 1.0, base["a"])
	assert.Equal(t, 3.0, changed["a"])
	assert.Equal(t, CorrectionFactors{"a": 1, "b": 2}, merged)
	assert.Len(t, base, 1)
}

func TestOrderedFor(t *testing.T) {
	schema := Schema{MeasurementColumns: []string{"z", "a", "m"}}
	factors := CorrectionFactors{"m": 1, "z": 1, "extra": 1, "b": 1}
	assert.Equal(t, []string{"z", "m", "b", "extra"}, factors.OrderedFor(schema))
}

func TestSummarizeIntensity(t *testing.T) {
	rows := []ReducedRow{
		{Ex: 1, Em: 1, MaxF: 2},
		{Ex: 1, Em: 2, MaxF: 4},
		{Ex: 2, Em: 1, MaxF: 6},
	}
	summary, err := SummarizeIntensity(rows, BuildGrid(rows))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 2.0, summary.Min)
	assert.Equal(t, 6.0, summary.Max)
	assert.InDelta(t, 4.0, summary.Mean, 1e-9)
	assert.InDelta(t, 4.0, summary.Median, 1e-9)
	assert.InDelta(t, 0.75, summary.CellCoverage, 1e-9)

	empty, err := SummarizeIntensity(nil, HeatmapGrid{})
	require.NoError(t, err)
	assert.Equal(t, IntensitySummary{}, empty)
}
