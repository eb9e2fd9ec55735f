package analysis

import (
	"fmt"
	"math"
	"sort"
)

// CorrectionFactors maps a dilution column name (exact, case-sensitive) to
// the multiplier applied to its readings. Columns not in the map never
// contribute to MaxF.
type CorrectionFactors map[string]float64

// DefaultFactorSequence is assigned to dilution columns in header order,
// wrapping around when a file has more columns than entries.
var DefaultFactorSequence = []float64{1.0, 1.4, 2.2, 3.4, 5.0, 1.0}

// LegacyFactors are the fixed defaults for the 18u0..18u512 dilution series.
func LegacyFactors() CorrectionFactors {
	return CorrectionFactors{
		"18u0":   1.0,
		"18u2":   1.4,
		"18u8":   2.2,
		"18u32":  3.4,
		"18u128": 5.0,
		"18u512": 1.0,
	}
}

// FactorsFromSequence assigns seq to columns in order, cycling through seq.
// An empty seq gives every column a factor of 1.
func FactorsFromSequence(columns []string, seq []float64) CorrectionFactors {
	factors := make(CorrectionFactors, len(columns))
	for i, col := range columns {
		if len(seq) == 0 {
			factors[col] = 1.0
			continue
		}
		factors[col] = seq[i%len(seq)]
	}
	return factors
}

// Validate rejects negative, NaN and infinite factors.
func (f CorrectionFactors) Validate() error {
	for _, col := range f.Columns() {
		v := f[col]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("column %q = %v: %w", col, v, ErrInvalidFactor)
		}
	}
	return nil
}

// Clone returns an independent copy.
func (f CorrectionFactors) Clone() CorrectionFactors {
	out := make(CorrectionFactors, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// With returns a copy with column set to value.
func (f CorrectionFactors) With(column string, value float64) CorrectionFactors {
	out := f.Clone()
	out[column] = value
	return out
}

// Merge returns a copy of f overlaid with the entries of other.
func (f CorrectionFactors) Merge(other CorrectionFactors) CorrectionFactors {
	out := f.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Columns lists the factor columns sorted by name.
func (f CorrectionFactors) Columns() []string {
	cols := make([]string, 0, len(f))
	for k := range f {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// OrderedFor lists factor columns in schema order first, then any extra
// factor columns by name. Used for display.
func (f CorrectionFactors) OrderedFor(schema Schema) []string {
	seen := make(map[string]bool, len(f))
	out := make([]string, 0, len(f))
	for _, col := range schema.MeasurementColumns {
		if _, ok := f[col]; ok {
			out = append(out, col)
			seen[col] = true
		}
	}
	for _, col := range f.Columns() {
		if !seen[col] {
			out = append(out, col)
		}
	}
	return out
}
