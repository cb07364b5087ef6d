// Package table holds the in-memory tabular form shared by every stage of a
// merge run: the source Data table, the ERP result table and the master table.
//
// Cell values are one of nil (empty), float64, string, bool, time.Time
// (a date or date-time) or TimeOfDay.
package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrDuplicateColumn is returned when inserting a column whose name is taken
var ErrDuplicateColumn = errors.New("column already exists")

// Table is an ordered list of named columns over rectangular rows
type Table struct {
	Columns []string
	Rows    [][]any
}

// New creates an empty table with the given header
func New(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Width returns the number of columns
func (t *Table) Width() int {
	return len(t.Columns)
}

// AppendRow adds a row, padding short rows with empty cells.
// Cells beyond the header width are dropped.
func (t *Table) AppendRow(row []any) {
	r := make([]any, len(t.Columns))
	copy(r, row)
	t.Rows = append(t.Rows, r)
}

// ColumnIndex returns the position of a column by name
func (t *Table) ColumnIndex(name string) (int, bool) {
	key := columnKey(name)
	for i, c := range t.Columns {
		if columnKey(c) == key {
			return i, true
		}
	}
	return -1, false
}

// Value returns the cell at row i in the named column, nil if absent
func (t *Table) Value(i int, column string) any {
	idx, ok := t.ColumnIndex(column)
	if !ok || i < 0 || i >= len(t.Rows) {
		return nil
	}
	return t.Rows[i][idx]
}

// Clone returns a deep copy of the table structure (cell values are immutable)
func (t *Table) Clone() *Table {
	c := New(t.Columns)
	c.Rows = make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]any(nil), row...)
	}
	return c
}

// InsertLeading inserts a column at position 0 with the same value in every row
func (t *Table) InsertLeading(name string, value any) error {
	if _, exists := t.ColumnIndex(name); exists {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
	}
	t.Columns = append([]string{name}, t.Columns...)
	for i, row := range t.Rows {
		t.Rows[i] = append([]any{value}, row...)
	}
	return nil
}

// UniqueHeaders turns a raw header row into usable column names:
// blank headers become "Unnamed: <index>" and repeated names get a
// ".<n>" suffix, so every column can be addressed by name.
func UniqueHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		for n := 1; seen[columnKey(candidate)]; n++ {
			candidate = name + "." + strconv.Itoa(n)
		}
		seen[columnKey(candidate)] = true
		headers[i] = candidate
	}
	return headers
}

// columnKey is the identity used when matching columns by name.
// Names are compared in Unicode NFC form so that the same header typed on
// different systems (composed vs decomposed accents) aligns.
func columnKey(name string) string {
	return norm.NFC.String(name)
}
