package analysis

import (
	"github.com/user/eem_analyzer_go/internal/parser"
)

// ReduceRows turns validated rows into (Ex, Em, MaxF) triples.
//
// Rows whose Ex or Em does not parse are dropped without error. For every
// factor column present in a row, the parsed reading times the factor
// competes for MaxF, which starts at 0; readings that do not parse add
// nothing.
func ReduceRows(records []parser.Record, schema Schema, factors CorrectionFactors) []ReducedRow {
	rows := make([]ReducedRow, 0, len(records))
	for _, rec := range records {
		row, ok := reduceRecord(rec, schema, factors)
		if ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func reduceRecord(rec parser.Record, schema Schema, factors CorrectionFactors) (ReducedRow, bool) {
	ex, ok := numericField(rec, schema.ExColumn)
	if !ok {
		return ReducedRow{}, false
	}
	em, ok := numericField(rec, schema.EmColumn)
	if !ok {
		return ReducedRow{}, false
	}

	maxF := 0.0
	for column, factor := range factors {
		val, ok := numericField(rec, column)
		if !ok {
			continue
		}
		if corrected := val * factor; corrected > maxF {
			maxF = corrected
		}
	}

	return ReducedRow{Ex: ex, Em: em, MaxF: maxF}, true
}

func numericField(rec parser.Record, column string) (float64, bool) {
	cell, ok := rec.Get(column)
	if !ok {
		return 0, false
	}
	return parser.ParseNumber(cell)
}
