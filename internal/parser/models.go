package parser

// Cell holds one raw value read from an input row. A reader that already
// knows the value is numeric (e.g. a typed spreadsheet cell) sets Numeric;
// everything else is kept as the original text.
type Cell struct {
	Text    string
	Number  float64
	Numeric bool
}

// TextCell wraps a raw string value.
func TextCell(s string) Cell {
	return Cell{Text: s}
}

// NumberCell wraps an already-parsed numeric value.
func NumberCell(v float64) Cell {
	return Cell{Number: v, Numeric: true}
}

// Record is one input row: an ordered mapping from column name to raw cell.
// Column names are stored exactly as they appear in the header.
// A Record is not modified after construction.
type Record struct {
	columns []string
	cells   map[string]Cell
}

// NewRecord builds a Record from parallel column and cell slices. If a column
// name repeats, the later cell wins but the name keeps its first position.
func NewRecord(columns []string, cells []Cell) Record {
	r := Record{
		columns: make([]string, 0, len(columns)),
		cells:   make(map[string]Cell, len(columns)),
	}
	for i, name := range columns {
		if i >= len(cells) {
			break
		}
		if _, dup := r.cells[name]; !dup {
			r.columns = append(r.columns, name)
		}
		r.cells[name] = cells[i]
	}
	return r
}

// Columns returns the column names in header order.
func (r Record) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Get returns the cell stored under the exact column name.
func (r Record) Get(column string) (Cell, bool) {
	c, ok := r.cells[column]
	return c, ok
}

// Has reports whether the row carries the given column.
func (r Record) Has(column string) bool {
	_, ok := r.cells[column]
	return ok
}

// Len is the number of columns in the row.
func (r Record) Len() int {
	return len(r.columns)
}

// ParsedTable is what the file readers produce: every data row materialized
// in memory plus any non-fatal problems found while reading.
type ParsedTable struct {
	Header      []string
	Records     []Record
	Source      string // file path or sheet the rows came from
	ParseErrors []string
}

// NewParsedTable returns an empty table for the given source.
func NewParsedTable(source string) *ParsedTable {
	return &ParsedTable{
		Header:      make([]string, 0),
		Records:     make([]Record, 0),
		Source:      source,
		ParseErrors: make([]string, 0),
	}
}
