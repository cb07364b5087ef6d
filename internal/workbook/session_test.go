package workbook

import (
	"errors"
	"path/filepath"
	"testing"

	"erp-merge/internal/model"
	"erp-merge/internal/table"
	"erp-merge/internal/workbook/workbooktest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func openMain(t *testing.T, formulaRows int, opts Options) (*Session, string) {
	t.Helper()
	path := workbooktest.MainWorkbook(t, t.TempDir(), "main.xlsm", formulaRows)
	s, err := Open(path, opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func dataTable(rows ...[]any) *table.Table {
	t := table.New([]string{"Item", "Qty", "Price"})
	for _, r := range rows {
		t.AppendRow(r)
	}
	return t
}

func stepByName(steps []model.StepOutcome, name string) model.StepOutcome {
	for _, s := range steps {
		if s.Step == name {
			return s
		}
	}
	return model.StepOutcome{}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsm"), Options{})
	assert.Error(t, err)
}

func TestRequireSheets(t *testing.T) {
	s, _ := openMain(t, 5, Options{})

	names, err := s.RequireSheets("data", "ERP")
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "ERP"}, names)

	_, err = s.RequireSheets("Data", "Summary", "Totals")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSheetNotFound))
	assert.Contains(t, err.Error(), "Summary, Totals")
}

func TestWriteRecalculateRead(t *testing.T) {
	s, _ := openMain(t, 10, Options{})

	s.Prepare("Data")
	require.NoError(t, s.Write("Data", dataTable(
		[]any{"Bolt", 3.0, 2.5},
		[]any{"Nut", 4.0, 0.5},
		[]any{"Washer", 10.0, 1.0},
	)))

	stats, err := s.Recalculate()
	require.NoError(t, err)
	assert.Equal(t, 30, stats.Formulas)

	result, err := s.ReadRegion("ERP")
	require.NoError(t, err)
	assert.Equal(t, workbooktest.ERPColumns, result.Columns)
	require.Equal(t, 3, result.Len())

	assert.Equal(t, "Bolt", result.Value(0, "Item"))
	assert.Equal(t, 3.0, result.Value(0, "Qty"))
	assert.Equal(t, 7.5, result.Value(0, "Total"))
	assert.Equal(t, "Washer", result.Value(2, "Item"))
	assert.Equal(t, 10.0, result.Value(2, "Total"))
}

func TestSecondWriteReplacesFirst(t *testing.T) {
	s, _ := openMain(t, 10, Options{})

	s.Prepare("Data")
	require.NoError(t, s.Write("Data", dataTable(
		[]any{"Bolt", 3.0, 2.5},
		[]any{"Nut", 4.0, 0.5},
		[]any{"Washer", 10.0, 1.0},
	)))
	_, err := s.Recalculate()
	require.NoError(t, err)

	steps := s.Prepare("Data")
	assert.True(t, stepByName(steps, model.StepClear).Applied)
	require.NoError(t, s.Write("Data", dataTable([]any{"Gear", 2.0, 6.0})))
	_, err = s.Recalculate()
	require.NoError(t, err)

	result, err := s.ReadRegion("ERP")
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
	assert.Equal(t, "Gear", result.Value(0, "Item"))
	assert.Equal(t, 12.0, result.Value(0, "Total"))
}

func TestReadRegionKeepsTextResults(t *testing.T) {
	s, _ := openMain(t, 10, Options{})

	s.Prepare("Data")
	require.NoError(t, s.Write("Data", dataTable(
		[]any{"007", 3.0, 2.5},
		[]any{"TRUE", 1.0, 1.0},
		[]any{"1e3", 1.0, 1.0},
		[]any{true, 2.0, 1.0},
		[]any{42.0, 1.0, 1.0},
	)))
	_, err := s.Recalculate()
	require.NoError(t, err)

	result, err := s.ReadRegion("ERP")
	require.NoError(t, err)
	require.Equal(t, 5, result.Len())

	assert.Equal(t, "007", result.Value(0, "Item"))
	assert.Equal(t, "TRUE", result.Value(1, "Item"))
	assert.Equal(t, "1e3", result.Value(2, "Item"))
	assert.Equal(t, true, result.Value(3, "Item"))
	assert.Equal(t, 42.0, result.Value(4, "Item"))
	assert.Equal(t, 3.0, result.Value(0, "Qty"))
	assert.Equal(t, 7.5, result.Value(0, "Total"))

	// result types are learned again after every recalculation
	s.Prepare("Data")
	require.NoError(t, s.Write("Data", dataTable([]any{7.0, 1.0, 1.0})))
	_, err = s.Recalculate()
	require.NoError(t, err)

	result, err = s.ReadRegion("ERP")
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
	assert.Equal(t, 7.0, result.Value(0, "Item"))
}

func TestWriteTimeOfDayAsText(t *testing.T) {
	s, _ := openMain(t, 3, Options{})

	s.Prepare("Data")
	require.NoError(t, s.Write("Data", dataTable([]any{table.TimeOfDay{Hour: 7, Minute: 30}, 1.0, 1.0})))
	_, err := s.Recalculate()
	require.NoError(t, err)

	result, err := s.ReadRegion("ERP")
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
	assert.Equal(t, "07:30:00", result.Value(0, "Item"))
}

func TestReadRegionEmpty(t *testing.T) {
	s, _ := openMain(t, 3, Options{})

	s.Prepare("Data")
	_, err := s.ReadRegion("Data")
	assert.True(t, errors.Is(err, ErrEmptyRegion))
}

func TestSessionNeverSaves(t *testing.T) {
	s, path := openMain(t, 3, Options{})

	s.Prepare("Data")
	require.NoError(t, s.Write("Data", dataTable([]any{"Gear", 2.0, 6.0})))
	_, err := s.Recalculate()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Data", "A2")
	require.NoError(t, err)
	assert.Equal(t, "old", v)
}

// lockedMain returns a main workbook whose Data sheet is hidden, protected
// with password and holds a merged range
func lockedMain(t *testing.T, password string) string {
	t.Helper()
	path := workbooktest.MainWorkbook(t, t.TempDir(), "main.xlsm", 3)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	erp, err := f.GetSheetIndex("ERP")
	require.NoError(t, err)
	f.SetActiveSheet(erp)
	require.NoError(t, f.MergeCell("Data", "A5", "C6"))
	require.NoError(t, f.ProtectSheet("Data", &excelize.SheetProtectionOptions{Password: password}))
	require.NoError(t, f.SetSheetVisible("Data", false))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())
	return path
}

func TestPrepareLockedSheet(t *testing.T) {
	path := lockedMain(t, "secret")
	s, err := Open(path, Options{Password: "secret"})
	require.NoError(t, err)
	defer s.Close()

	steps := s.Prepare("Data")
	require.Len(t, steps, 4)
	assert.Equal(t, []string{model.StepShow, model.StepUnprotect, model.StepClear, model.StepUnmerge},
		[]string{steps[0].Step, steps[1].Step, steps[2].Step, steps[3].Step})

	for _, step := range steps {
		assert.NoError(t, step.Err, step.Step)
		assert.True(t, step.Needed, step.Step)
		assert.True(t, step.Applied, step.Step)
	}
	assert.Empty(t, stepByName(steps, model.StepUnprotect).Detail)

	visible, err := s.file.GetSheetVisible("Data")
	require.NoError(t, err)
	assert.True(t, visible)
	merged, err := s.file.GetMergeCells("Data")
	require.NoError(t, err)
	assert.Empty(t, merged)

	again := s.Prepare("Data")
	for _, name := range []string{model.StepShow, model.StepUnprotect, model.StepUnmerge} {
		step := stepByName(again, name)
		assert.False(t, step.Needed, name)
		assert.NoError(t, step.Err, name)
	}
}

func TestPrepareWrongPassword(t *testing.T) {
	path := lockedMain(t, "secret")
	s, err := Open(path, Options{Password: "guess"})
	require.NoError(t, err)
	defer s.Close()

	step := stepByName(s.Prepare("Data"), model.StepUnprotect)
	assert.True(t, step.Applied)
	assert.NoError(t, step.Err)
	assert.Contains(t, step.Detail, "password did not match")
}

func TestPrepareUnknownSheet(t *testing.T) {
	s, _ := openMain(t, 3, Options{})

	failed := 0
	for _, step := range s.Prepare("Missing") {
		if step.Err != nil {
			failed++
			assert.NotEmpty(t, step.Error)
		}
	}
	assert.Positive(t, failed)
}
