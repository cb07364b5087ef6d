// Package workbooktest builds small real workbooks for tests: per-project
// source files with a Data sheet and a main workbook whose ERP sheet holds
// formulas over its Data sheet.
package workbooktest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ERPColumns is the header written by MainWorkbook on the ERP sheet
var ERPColumns = []string{"Item", "Qty", "Total"}

// SourceWorkbook writes dir/name with a sheet holding header and rows and
// returns its path. An empty sheet name produces a workbook with only the
// default sheet.
func SourceWorkbook(t testing.TB, dir, name, sheet string, header []string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
		writeTable(t, f, sheet, header, rows)
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
	return path
}

// MainWorkbook writes a main workbook with a Data sheet and an ERP sheet.
// ERP row r (2 <= r <= formulaRows+1) holds Item =Data!A<r>, Qty =Data!B<r>
// and Total =Data!B<r>*Data!C<r>, so the ERP table ends where the Data
// sheet's column A does. The Data sheet starts with stale content
// so tests can see it replaced.
func MainWorkbook(t testing.TB, dir, name string, formulaRows int) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Data"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	writeTable(t, f, "Data", []string{"Item", "Qty", "Price", "Stale"}, [][]any{
		{"old", 1, 1, "x"},
		{"old", 2, 2, "y"},
	})

	if _, err := f.NewSheet("ERP"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	if err := f.SetSheetRow("ERP", "A1", &[]any{ERPColumns[0], ERPColumns[1], ERPColumns[2]}); err != nil {
		t.Fatalf("write ERP header: %v", err)
	}
	for r := 2; r <= formulaRows+1; r++ {
		formulas := map[string]string{
			fmt.Sprintf("A%d", r): fmt.Sprintf("Data!A%d", r),
			fmt.Sprintf("B%d", r): fmt.Sprintf("Data!B%d", r),
			fmt.Sprintf("C%d", r): fmt.Sprintf("Data!B%d*Data!C%d", r, r),
		}
		for cell, formula := range formulas {
			if err := f.SetCellFormula("ERP", cell, formula); err != nil {
				t.Fatalf("set formula %s: %v", cell, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
	return path
}

func writeTable(t testing.TB, f *excelize.File, sheet string, header []string, rows [][]any) {
	t.Helper()
	h := make([]any, len(header))
	for i, v := range header {
		h[i] = v
	}
	if err := f.SetSheetRow(sheet, "A1", &h); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		r := append([]any(nil), row...)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("write row %d: %v", i+2, err)
		}
	}
}
