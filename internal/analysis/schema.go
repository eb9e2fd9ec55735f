package analysis

import (
	"fmt"
	"strings"

	"github.com/user/eem_analyzer_go/internal/parser"
)

// ValidateSchema checks the parsed rows before anything is reduced. The
// first row's columns are the schema for the whole file: one column must
// equal "ex" and one "em" ignoring case, and at least one other column must
// remain for the dilution readings.
func ValidateSchema(records []parser.Record) (Schema, error) {
	if len(records) == 0 {
		return Schema{}, ErrEmptyInput
	}

	columns := records[0].Columns()
	canonical := canonicalColumns(columns)

	exCol, hasEx := canonical["ex"]
	emCol, hasEm := canonical["em"]
	if !hasEx || !hasEm {
		return Schema{}, fmt.Errorf("columns %v: %w", columns, ErrMissingRequiredColumn)
	}

	measurement := make([]string, 0, len(columns))
	for _, name := range columns {
		if name != exCol && name != emCol {
			measurement = append(measurement, name)
		}
	}
	if len(measurement) == 0 {
		return Schema{}, ErrNoMeasurementColumns
	}

	return Schema{
		ExColumn:           exCol,
		EmColumn:           emCol,
		MeasurementColumns: measurement,
	}, nil
}

// canonicalColumns maps each lower-cased column name to the first stored
// name that folds to it.
func canonicalColumns(columns []string) map[string]string {
	table := make(map[string]string, len(columns))
	for _, name := range columns {
		key := strings.ToLower(name)
		if _, seen := table[key]; !seen {
			table[key] = name
		}
	}
	return table
}
