package analysis

import (
	"fmt"

	"github.com/user/eem_analyzer_go/internal/parser"
)

// Analyze runs the whole pipeline over already parsed rows: schema check,
// correction and reduction, grid, excitation-maxima curve, peaks and the
// intensity summary.
//
// Schema and factor problems are returned as errors before any row is
// processed. Row-level numeric problems never fail the run; they are
// counted in SkippedRows or simply contribute nothing to MaxF.
//
// Analyze only reads records and factors, so calls with different factor
// sets over the same rows may run concurrently.
func Analyze(records []parser.Record, factors CorrectionFactors) (*AnalysisResults, error) {
	schema, err := ValidateSchema(records)
	if err != nil {
		return nil, fmt.Errorf("invalid measurement table: %w", err)
	}
	if err := factors.Validate(); err != nil {
		return nil, fmt.Errorf("invalid correction factors: %w", err)
	}

	results := NewAnalysisResults()
	results.Schema = schema
	results.Factors = factors.Clone()
	results.InputRows = len(records)

	results.Rows = ReduceRows(records, schema, factors)
	results.SkippedRows = len(records) - len(results.Rows)
	results.Grid = BuildGrid(results.Rows)
	results.Curve = ExtractCurve(results.Grid)
	results.Peaks = DetectPeaks(results.Curve)

	summary, err := SummarizeIntensity(results.Rows, results.Grid)
	if err != nil {
		results.AnalysisErrors = append(results.AnalysisErrors, fmt.Sprintf("Intensity summary unavailable: %v", err))
	}
	results.Summary = summary

	if results.SkippedRows > 0 {
		results.AnalysisErrors = append(results.AnalysisErrors, fmt.Sprintf("%d of %d rows skipped: %q or %q is not a number.", results.SkippedRows, len(records), schema.ExColumn, schema.EmColumn))
	}
	inSchema := make(map[string]bool, len(schema.MeasurementColumns))
	for _, col := range schema.MeasurementColumns {
		inSchema[col] = true
	}
	for _, col := range factors.Columns() {
		if !inSchema[col] {
			results.AnalysisErrors = append(results.AnalysisErrors, fmt.Sprintf("Factor column %q is not a dilution column of this file.", col))
		}
	}
	if len(factors) == 0 {
		results.AnalysisErrors = append(results.AnalysisErrors, "No correction factors given; every MaxF is 0.")
	}

	return results, nil
}

// DefaultFactors derives the starting factor set for a schema from a
// configured sequence (usually DefaultFactorSequence).
func DefaultFactors(schema Schema, seq []float64) CorrectionFactors {
	return FactorsFromSequence(schema.MeasurementColumns, seq)
}
