// Package source reads the Data sheet of a per-project workbook into a table.
package source

import (
	"errors"
	"fmt"

	"erp-merge/internal/table"
	"erp-merge/internal/workbook"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when the source workbook has no sheet of the
// requested name
var ErrSheetNotFound = errors.New("source sheet not found")

// Read loads sheet from the workbook at path. The first row is the header;
// every following row up to the last non-empty one is data. Time-of-day
// cells are normalized to HH:MM:SS text.
func Read(path, sheet string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	actual, ok := workbook.FindSheet(f, sheet)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrSheetNotFound, sheet, path)
	}

	rows, err := workbook.TypedRows(f, actual)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s of %s: %w", actual, path, err)
	}
	return build(rows), nil
}

// build turns typed rows into a table, the first row naming the columns
func build(rows [][]any) *table.Table {
	if len(rows) == 0 {
		return table.New(nil)
	}

	raw := make([]string, len(rows[0]))
	for i, v := range rows[0] {
		raw[i] = workbook.HeaderText(v)
	}

	t := table.New(table.UniqueHeaders(raw))
	for _, row := range rows[1:] {
		t.AppendRow(row)
	}
	return table.NormalizeTimes(t)
}
