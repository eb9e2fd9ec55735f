package parser

import (
	"path/filepath"
	"strings"
)

// ParseFile picks a reader from the file extension: workbooks (.xlsx, .xlsm)
// go through excelize, everything else is treated as delimited text.
func ParseFile(path string, sheet string) (*ParsedTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ParseXLSXFile(path, sheet)
	default:
		return ParseCSVFile(path)
	}
}
