// Package dataset loads, deduplicates, and writes tabular bibliographic
// exports. Tables are kept fully in memory; row order is stable across every
// operation.
package dataset

import (
	"github.com/rotisserie/eris"
)

// Table is an in-memory tabular dataset with a header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable builds a table, padding or truncating ragged rows to header width.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		t.Rows = append(t.Rows, normalizeRow(row, len(header)))
	}
	return t
}

func normalizeRow(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Cell returns the value at (row, col), or "" when col is out of range.
func (t *Table) Cell(row, col int) string {
	if col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Column returns the values of one column in row order.
func (t *Table) Column(col int) []string {
	out := make([]string, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Cell(i, col)
	}
	return out
}

// Select returns a new table containing the rows at the given indices,
// in the given order. Row slices are shared, not copied.
func (t *Table) Select(indices []int) *Table {
	out := &Table{Header: t.Header, Rows: make([][]string, 0, len(indices))}
	for _, i := range indices {
		out.Rows = append(out.Rows, t.Rows[i])
	}
	return out
}

// ColumnIndex returns the index of the named header column.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return 0, eris.Errorf("dataset: column not found: %s", name)
}

// AddColumn appends a column with the given values. Missing values render
// as empty cells.
func (t *Table) AddColumn(name string, values []string) {
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		t.Rows[i] = append(t.Rows[i], v)
	}
}
