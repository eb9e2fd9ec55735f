package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// candidateDelimiters are tried in order; ties go to the earlier entry.
var candidateDelimiters = []rune{',', ';', '\t'}

// ParseCSVFile opens a delimited text export and reads it with ParseCSV.
func ParseCSVFile(filepath string) (*ParsedTable, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return ParseCSV(file, filepath)
}

// ParseCSV reads a header row followed by data rows. The delimiter is
// detected from the header line (comma, semicolon or tab) so that exports
// using ';' with decimal commas read the same as plain CSV. Blank lines are
// skipped. Cells are kept as text; number parsing happens later.
func ParseCSV(r io.Reader, source string) (*ParsedTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")) // UTF-8 BOM

	table := NewParsedTable(source)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.TrimLeadingSpace = reader.Comma != '\t' // would swallow empty tab-separated fields
	reader.FieldsPerRecord = -1                    // Ragged rows are reported, not rejected
	reader.LazyQuotes = true

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}

	headerIdx := -1
	for i, row := range allRows {
		if !isBlankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return table, nil // No header, no rows
	}
	for _, name := range allRows[headerIdx] {
		table.Header = append(table.Header, strings.TrimSpace(name))
	}

	for rowIdx, row := range allRows[headerIdx+1:] {
		if isBlankRow(row) {
			continue
		}
		lineNo := headerIdx + rowIdx + 2 // 1-based, header included
		if len(row) < len(table.Header) {
			table.ParseErrors = append(table.ParseErrors, fmt.Sprintf("Warning: row %d has %d fields, header has %d. Missing columns left out of the row.", lineNo, len(row), len(table.Header)))
		} else if len(row) > len(table.Header) {
			table.ParseErrors = append(table.ParseErrors, fmt.Sprintf("Warning: row %d has %d fields, header has %d. Extra fields ignored.", lineNo, len(row), len(table.Header)))
			row = row[:len(table.Header)]
		}

		cells := make([]Cell, len(row))
		for i, v := range row {
			cells[i] = TextCell(v)
		}
		table.Records = append(table.Records, NewRecord(table.Header[:len(row)], cells))
	}

	return table, nil
}

// detectDelimiter counts candidate delimiters on the first non-blank line,
// ignoring anything inside double quotes, and returns the most frequent one.
func detectDelimiter(data []byte) rune {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var header string
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			header = line
			break
		}
	}

	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, ch := range header {
		if ch == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[ch]++
		}
	}

	best := candidateDelimiters[0]
	for _, d := range candidateDelimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
