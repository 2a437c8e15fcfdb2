package dataset

import (
	"strings"
	"time"
)

// Dataset is an immutable in-memory table with a stable column order.
// Cells are kept as trimmed strings; typed access goes through Float and Time.
type Dataset struct {
	name    string
	columns []string
	rows    [][]string
	format  NumberFormat
}

// NumberFormat describes locale separators used when parsing numeric cells.
// Zero values mean auto-detect per value.
type NumberFormat struct {
	Decimal   rune
	Thousands rune
}

// New builds a Dataset from column names and rows. Inputs are copied; short
// rows are padded with empty cells and long rows truncated to the header width.
func New(name string, columns []string, rows [][]string) *Dataset {
	return NewWithFormat(name, columns, rows, NumberFormat{})
}

// NewWithFormat is New with explicit numeric separators.
func NewWithFormat(name string, columns []string, rows [][]string, nf NumberFormat) *Dataset {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = strings.TrimSpace(c)
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := make([]string, len(cols))
		for j := range cols {
			if j < len(r) {
				row[j] = strings.TrimSpace(r[j])
			}
		}
		out = append(out, row)
	}
	return &Dataset{name: name, columns: cols, rows: out, format: nf}
}

func (d *Dataset) Name() string { return d.name }

// Columns returns a copy of the column names in order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

func (d *Dataset) NumRows() int { return len(d.rows) }
func (d *Dataset) NumCols() int { return len(d.columns) }

// Column returns the name of column j.
func (d *Dataset) Column(j int) string {
	if j < 0 || j >= len(d.columns) {
		return ""
	}
	return d.columns[j]
}

// ColumnIndex finds a column by case-insensitive name, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	name = strings.TrimSpace(name)
	for j, c := range d.columns {
		if strings.EqualFold(c, name) {
			return j
		}
	}
	return -1
}

// Cell returns the raw cell at row i, column j ("" when out of range).
func (d *Dataset) Cell(i, j int) string {
	if i < 0 || i >= len(d.rows) || j < 0 || j >= len(d.columns) {
		return ""
	}
	return d.rows[i][j]
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) []string {
	if i < 0 || i >= len(d.rows) {
		return nil
	}
	out := make([]string, len(d.rows[i]))
	copy(out, d.rows[i])
	return out
}

// Float parses cell (i, j) as a number using the dataset's number format.
func (d *Dataset) Float(i, j int) (float64, bool) {
	v := d.Cell(i, j)
	if v == "" {
		return 0, false
	}
	return ParseNumber(v, d.format)
}

// Time parses cell (i, j) as a date or timestamp.
func (d *Dataset) Time(i, j int) (time.Time, bool) {
	v := d.Cell(i, j)
	if v == "" {
		return time.Time{}, false
	}
	return ParseTime(v)
}

// Floats returns the parsable numeric values of column j with their row indexes.
func (d *Dataset) Floats(j int) (vals []float64, rows []int) {
	for i := range d.rows {
		if x, ok := d.Float(i, j); ok {
			vals = append(vals, x)
			rows = append(rows, i)
		}
	}
	return vals, rows
}

// Head returns up to n rows as copies.
func (d *Dataset) Head(n int) [][]string {
	if n > len(d.rows) {
		n = len(d.rows)
	}
	out := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, d.Row(i))
	}
	return out
}
