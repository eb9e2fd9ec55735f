package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/user/eem_analyzer_go/internal/analysis"
)

// FormatNumber writes v in its shortest round-tripping decimal form, with
// exponent notation only for very large or very small magnitudes
// (1e+21, 1e-7), so exported values are never re-localized.
func FormatNumber(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) && !math.IsInf(v, 0) {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		s = strings.Replace(s, "e-0", "e-", 1)
		return strings.Replace(s, "e+0", "e+", 1)
	}
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteRowsCSV writes the row table with the header Ex,Em,MaxF.
func WriteRowsCSV(w io.Writer, rows []analysis.ReducedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Ex", "Em", "MaxF"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{FormatNumber(r.Ex), FormatNumber(r.Em), FormatNumber(r.MaxF)}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveRowsCSV writes the row table to path.
func SaveRowsCSV(path string, rows []analysis.ReducedRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	if err := WriteRowsCSV(file, rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// resultsDocument is the JSON shape handed to charting front ends.
type resultsDocument struct {
	Source  string                     `json:"source,omitempty"`
	Schema  analysis.Schema            `json:"schema"`
	Factors analysis.CorrectionFactors `json:"factors"`
	Grid    analysis.HeatmapGrid       `json:"grid"`
	Curve   []analysis.ExMaxPoint      `json:"curve"`
	Peaks   []analysis.PeakPoint       `json:"peaks"`
	Summary analysis.IntensitySummary  `json:"summary"`
	AutoMax float64                    `json:"autoMaxF"`
}

// WriteResultsJSON writes the grid, curve, peaks and summary as indented JSON.
func WriteResultsJSON(w io.Writer, source string, results *analysis.AnalysisResults) error {
	doc := resultsDocument{
		Source:  source,
		Schema:  results.Schema,
		Factors: results.Factors,
		Grid:    results.Grid,
		Curve:   results.Curve,
		Peaks:   results.Peaks,
		Summary: results.Summary,
		AutoMax: results.Grid.AutoMaxF(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// SaveResultsJSON writes WriteResultsJSON output to path.
func SaveResultsJSON(path string, source string, results *analysis.AnalysisResults) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	if err := WriteResultsJSON(file, source, results); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Workbook sheet names.
const (
	SheetFinalMap = "Final Map"
	SheetPeaks    = "Peaks"
	SheetCurve    = "ExMax Curve"
)

// SaveResultsXLSX writes the row table, detected peaks and the
// excitation-maxima curve to a workbook, one sheet each.
func SaveResultsXLSX(path string, results *analysis.AnalysisResults) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetFinalMap); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	rows := make([][]interface{}, 0, len(results.Rows))
	for _, r := range results.Rows {
		rows = append(rows, []interface{}{sheetValue(r.Ex), sheetValue(r.Em), sheetValue(r.MaxF)})
	}
	if err := writeSheet(f, SheetFinalMap, []interface{}{"Ex", "Em", "MaxF"}, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetPeaks); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	rows = rows[:0]
	for _, pk := range results.Peaks {
		rows = append(rows, []interface{}{sheetValue(pk.Ex), sheetValue(pk.Em), sheetValue(pk.MaxF)})
	}
	if err := writeSheet(f, SheetPeaks, []interface{}{"EX max", "EM max", "MaxF"}, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetCurve); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	rows = rows[:0]
	for _, pt := range results.Curve {
		rows = append(rows, []interface{}{sheetValue(pt.Ex), sheetValue(pt.Em), sheetValue(pt.MaxF)})
	}
	if err := writeSheet(f, SheetCurve, []interface{}{"Ex", "Em at max", "MaxF"}, rows); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// sheetValue keeps finite numbers numeric; a cell cannot hold ±Inf or NaN,
// so those are written as text.
func sheetValue(v float64) interface{} {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return FormatNumber(v)
	}
	return v
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
