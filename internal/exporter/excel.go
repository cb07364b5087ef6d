package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"erp-merge/internal/table"

	"github.com/xuri/excelize/v2"
)

const (
	minColWidth = 10
	maxColWidth = 50
	widthSample = 200 // rows inspected when sizing columns
)

// MasterWriter writes the merged ERP table as a plain spreadsheet: one
// sheet, a header row, no index column
type MasterWriter struct {
	// Stateless
}

// NewMasterWriter creates a new MasterWriter
func NewMasterWriter() *MasterWriter {
	return &MasterWriter{}
}

// Write saves t to path on the named sheet, replacing any existing file
func (w *MasterWriter) Write(path, sheet string, t *table.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("invalid output sheet name %q: %w", sheet, err)
		}
	}

	styler, err := NewStyler(f)
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	// Column widths and panes must be set before the first row
	for i := range t.Columns {
		if err := sw.SetColWidth(i+1, i+1, columnWidth(t, i)); err != nil {
			return err
		}
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = excelize.Cell{StyleID: styler.HeaderStyle, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range t.Rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = cellValue(styler, v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func cellValue(s *Styler, v any) interface{} {
	switch x := v.(type) {
	case time.Time:
		style := s.DateTimeStyle
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			style = s.DateStyle
		}
		return excelize.Cell{StyleID: style, Value: x}
	case table.TimeOfDay:
		return x.String()
	default:
		return v
	}
}

// columnWidth estimates a display width from the header and the first rows
func columnWidth(t *table.Table, col int) float64 {
	width := utf8.RuneCountInString(t.Columns[col])
	for i, row := range t.Rows {
		if i == widthSample {
			break
		}
		var n int
		switch x := row[col].(type) {
		case nil:
		case string:
			n = utf8.RuneCountInString(x)
		case time.Time:
			n = len(dateTimeFormat)
		default:
			n = len(fmt.Sprint(x))
		}
		width = max(width, n)
	}
	return float64(min(max(width+2, minColWidth), maxColWidth))
}
