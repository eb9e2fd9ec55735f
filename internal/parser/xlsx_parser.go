package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseXLSXFile reads a measurement table from a workbook. sheet selects the
// worksheet by name; an empty sheet means the first one in the workbook.
func ParseXLSXFile(filepath string, sheet string) (*ParsedTable, error) {
	f, err := excelize.OpenFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseWorkbook(f, filepath, sheet)
}

// ParseXLSX is ParseXLSXFile for an already open stream.
func ParseXLSX(r io.Reader, source string, sheet string) (*ParsedTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseWorkbook(f, source, sheet)
}

func parseWorkbook(f *excelize.File, source string, sheet string) (*ParsedTable, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", source)
	}
	if sheet == "" {
		sheet = sheets[0]
	}

	// Raw values keep numbers in invariant form ("1234.5"), independent of
	// the cell's display format.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	table := NewParsedTable(fmt.Sprintf("%s[%s]", source, sheet))

	headerIdx := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return table, nil
	}
	for _, name := range rows[headerIdx] {
		table.Header = append(table.Header, strings.TrimSpace(name))
	}

	for rowIdx, row := range rows[headerIdx+1:] {
		if isBlankRow(row) {
			continue
		}
		if len(row) > len(table.Header) {
			table.ParseErrors = append(table.ParseErrors, fmt.Sprintf("Warning: sheet %q row %d has values beyond the header. Extra cells ignored.", sheet, headerIdx+rowIdx+2))
			row = row[:len(table.Header)]
		}

		// GetRows trims trailing empty cells, so short rows are normal here.
		cells := make([]Cell, 0, len(row))
		for _, v := range row {
			cells = append(cells, workbookCell(v))
		}
		table.Records = append(table.Records, NewRecord(table.Header[:len(row)], cells))
	}

	return table, nil
}

// workbookCell turns a raw cell value into a Cell. Values stored as numbers
// come back in Go float syntax and are passed through as numeric; text
// cells such as "1.234,5" stay text for the locale-aware parser.
func workbookCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TextCell(raw)
	}
	if leadingFloat.FindString(trimmed) == trimmed {
		if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return NumberCell(v)
		}
	}
	return TextCell(raw)
}
