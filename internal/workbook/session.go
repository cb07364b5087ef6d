// Package workbook drives the main ERP workbook as a live session: the Data
// sheet is rewritten for every source file, every formula is recalculated,
// and the ERP sheet is read back with the recalculated values.
//
// The session works on an in-memory copy of the workbook and never saves it,
// so the file on disk is left exactly as it was found.
package workbook

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"erp-merge/internal/model"
	"erp-merge/internal/table"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
)

var (
	// ErrSheetNotFound is returned when an addressed sheet does not exist
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrEmptyRegion is returned when a sheet has no table anchored at A1
	ErrEmptyRegion = errors.New("no table anchored at A1")
)

// scratchSheet holds the helper formulas the session evaluates to learn the
// type of a formula result. It exists only in memory.
const scratchSheet = "_erp_merge_scratch"

// maxTrustedDimension bounds how far a stored <dimension> is trusted when
// it is larger than the real content. Some writers store whole-sheet ranges.
const maxTrustedDimension = 1 << 20

// Options configures a Session
type Options struct {
	Password string // tried first when lifting sheet protection
}

// RecalcStats summarizes one full recalculation
type RecalcStats struct {
	Formulas int // formula cells evaluated
	Errors   int // formula cells the engine could not evaluate
}

// Session is a long-lived handle on the main workbook
type Session struct {
	path    string
	opts    Options
	file    *excelize.File
	reader  *valueReader
	values  map[string]map[string]string // recalculated results: sheet -> cell -> raw
	kinds   map[string]resultKind        // result types by sheet!cell, reset on recalculation
	scratch bool
	written map[string]bounds // extent of the last table written per sheet
}

type bounds struct {
	cols, rows int
}

func (b bounds) union(o bounds) bounds {
	return bounds{cols: max(b.cols, o.cols), rows: max(b.rows, o.rows)}
}

func (b bounds) empty() bool {
	return b.cols == 0 || b.rows == 0
}

// Open opens the workbook at path for the duration of a run
func Open(path string, opts Options) (*Session, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Session{
		path:    path,
		opts:    opts,
		file:    f,
		reader:  newValueReader(f),
		values:  make(map[string]map[string]string),
		kinds:   make(map[string]resultKind),
		written: make(map[string]bounds),
	}, nil
}

// Close releases the workbook without saving it
func (s *Session) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Path returns the workbook path
func (s *Session) Path() string {
	return s.path
}

// Sheet resolves a sheet name the way spreadsheet applications do,
// ignoring case. It returns the name as stored in the workbook.
func (s *Session) Sheet(name string) (string, bool) {
	return FindSheet(s.file, name)
}

// RequireSheets returns the stored names of the given sheets, or an error
// wrapping ErrSheetNotFound naming every missing one
func (s *Session) RequireSheets(names ...string) ([]string, error) {
	var resolved, missing []string
	for _, n := range names {
		actual, ok := s.Sheet(n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		resolved = append(resolved, actual)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w in %s: %s", ErrSheetNotFound, s.path, strings.Join(missing, ", "))
	}
	return resolved, nil
}

// FindSheet looks a sheet up by case-insensitive name
func FindSheet(f *excelize.File, name string) (string, bool) {
	fold := cases.Fold()
	want := fold.String(name)
	for _, sheet := range f.GetSheetList() {
		if fold.String(sheet) == want {
			return sheet, true
		}
	}
	return "", false
}

// Prepare readies a sheet for a rectangular write. Each step checks whether
// it is needed before acting and reports its outcome; a failed step does not
// stop the following ones. The caller decides what a failure means.
func (s *Session) Prepare(sheet string) []model.StepOutcome {
	return []model.StepOutcome{
		s.show(sheet),
		s.unprotect(sheet),
		s.clear(sheet),
		s.unmerge(sheet),
	}
}

func (s *Session) show(sheet string) model.StepOutcome {
	out := model.StepOutcome{Step: model.StepShow}
	visible, err := s.file.GetSheetVisible(sheet)
	if err != nil {
		return out.Failed(err)
	}
	if visible {
		return out
	}
	out.Needed = true
	if err := s.file.SetSheetVisible(sheet, true); err != nil {
		return out.Failed(err)
	}
	out.Applied = true
	return out
}

// unprotect checks protection with the configured password. The library
// reports ErrUnprotectSheet when the sheet carries no protection at all.
// A protected sheet whose password does not match is unprotected anyway:
// the session edits the file structure directly, no password is enforced.
func (s *Session) unprotect(sheet string) model.StepOutcome {
	out := model.StepOutcome{Step: model.StepUnprotect}
	err := s.file.UnprotectSheet(sheet, s.opts.Password)
	switch {
	case err == nil:
		out.Needed, out.Applied = true, true
		return out
	case errors.Is(err, excelize.ErrUnprotectSheet):
		return out
	}
	out.Needed = true
	if errors.Is(err, excelize.ErrUnprotectSheetPassword) && s.opts.Password != "" {
		out.Detail = "password did not match, protection removed"
	}
	if err := s.file.UnprotectSheet(sheet); err != nil {
		return out.Failed(err)
	}
	out.Applied = true
	return out
}

// clear removes values, formulas and formatting from the used range
func (s *Session) clear(sheet string) model.StepOutcome {
	out := model.StepOutcome{Step: model.StepClear}
	b, err := s.usedBounds(sheet)
	if err != nil {
		return out.Failed(err)
	}
	if b.empty() {
		return out
	}
	out.Needed = true
	for r := 1; r <= b.rows; r++ {
		for c := 1; c <= b.cols; c++ {
			cell := cellName(c, r)
			if err := s.file.SetCellFormula(sheet, cell, ""); err != nil {
				return out.Failed(err)
			}
			if err := s.file.SetCellValue(sheet, cell, nil); err != nil {
				return out.Failed(err)
			}
		}
	}
	if err := s.file.SetCellStyle(sheet, "A1", cellName(b.cols, b.rows), 0); err != nil {
		return out.Failed(err)
	}
	delete(s.written, sheet)
	out.Applied = true
	out.Detail = fmt.Sprintf("cleared A1:%s", cellName(b.cols, b.rows))
	return out
}

func (s *Session) unmerge(sheet string) model.StepOutcome {
	out := model.StepOutcome{Step: model.StepUnmerge}
	merged, err := s.file.GetMergeCells(sheet, true)
	if err != nil {
		return out.Failed(err)
	}
	if len(merged) == 0 {
		return out
	}
	out.Needed = true
	for i := range merged {
		mc := merged[i]
		if err := s.file.UnmergeCell(sheet, mc.GetStartAxis(), mc.GetEndAxis()); err != nil {
			return out.Failed(err)
		}
	}
	out.Applied = true
	out.Detail = fmt.Sprintf("unmerged %d range(s)", len(merged))
	return out
}

// usedBounds returns the extent of a sheet: the rows and columns holding
// content, widened to the stored dimension when that is plausible and to
// the last table this session wrote there
func (s *Session) usedBounds(sheet string) (bounds, error) {
	rows, err := s.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return bounds{}, err
	}
	b := bounds{rows: len(rows)}
	for _, row := range rows {
		b.cols = max(b.cols, len(row))
	}

	if dim, err := s.file.GetSheetDimension(sheet); err == nil && dim != "" {
		parts := strings.Split(dim, ":")
		if col, row, err := excelize.CellNameToCoordinates(parts[len(parts)-1]); err == nil && col*row <= maxTrustedDimension {
			b = b.union(bounds{cols: col, rows: row})
		}
	}
	if w, ok := s.written[sheet]; ok {
		b = b.union(w)
	}
	if b.empty() {
		return bounds{}, nil
	}
	return b, nil
}

// Write puts the table into sheet starting at A1: the header row followed
// by the data rows. Time-of-day values are written as HH:MM:SS text.
func (s *Session) Write(sheet string, t *table.Table) error {
	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := s.file.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", sheet, err)
	}

	for i, row := range t.Rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			if tod, ok := v.(table.TimeOfDay); ok {
				v = tod.String()
			}
			values[j] = v
		}
		if err := s.file.SetSheetRow(sheet, cellName(1, i+2), &values); err != nil {
			return fmt.Errorf("failed to write row %d to %s: %w", i+2, sheet, err)
		}
	}

	s.written[sheet] = bounds{cols: t.Width(), rows: t.Len() + 1}
	return nil
}

// Recalculate evaluates every formula of every sheet against the current
// cell contents and keeps the results for reading. It always recalculates
// the whole workbook.
func (s *Session) Recalculate() (RecalcStats, error) {
	var stats RecalcStats
	s.values = make(map[string]map[string]string)
	s.kinds = make(map[string]resultKind)

	for _, sheet := range s.file.GetSheetList() {
		if sheet == scratchSheet {
			continue
		}
		b, err := s.usedBounds(sheet)
		if err != nil {
			return stats, fmt.Errorf("failed to size sheet %s: %w", sheet, err)
		}
		results := make(map[string]string)
		for r := 1; r <= b.rows; r++ {
			for c := 1; c <= b.cols; c++ {
				cell := cellName(c, r)
				formula, err := s.file.GetCellFormula(sheet, cell)
				if err != nil {
					return stats, fmt.Errorf("failed to read formula %s!%s: %w", sheet, cell, err)
				}
				if formula == "" {
					continue
				}
				stats.Formulas++
				value, err := s.file.CalcCellValue(sheet, cell, excelize.Options{RawCellValue: true})
				if err != nil {
					stats.Errors++
				}
				results[cell] = value
			}
		}
		s.values[sheet] = results
	}
	return stats, nil
}

// ReadRegion reads the table anchored at A1 of sheet. The region extends
// right along row 1 and down along column A until the first empty cell, and
// its first row is the header. Formula cells report recalculated values.
func (s *Session) ReadRegion(sheet string) (*table.Table, error) {
	width := 0
	for s.value(sheet, 1+width, 1) != nil {
		width++
	}
	if width == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRegion, sheet)
	}
	height := 1
	for s.value(sheet, 1, height+1) != nil {
		height++
	}

	raw := make([]string, width)
	for c := 1; c <= width; c++ {
		raw[c-1] = HeaderText(s.value(sheet, c, 1))
	}

	t := table.New(table.UniqueHeaders(raw))
	for r := 2; r <= height; r++ {
		row := make([]any, width)
		for c := 1; c <= width; c++ {
			row[c-1] = s.value(sheet, c, r)
		}
		t.AppendRow(row)
	}
	return t, nil
}

func (s *Session) value(sheet string, col, row int) any {
	cell := cellName(col, row)
	if results, ok := s.values[sheet]; ok {
		if v, ok := results[cell]; ok {
			return s.reader.computed(sheet, cell, v, s.resultKind(sheet, cell, v))
		}
	}
	raw, err := s.file.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil
	}
	return s.reader.stored(sheet, cell, raw)
}

// resultKind tells text results from numbers and booleans. The raw result
// alone cannot: "007" and 7 both look numeric. Ambiguous results are
// resolved by evaluating TYPE() over the cell.
func (s *Session) resultKind(sheet, cell, raw string) resultKind {
	looksBool := strings.EqualFold(raw, "TRUE") || strings.EqualFold(raw, "FALSE")
	if _, err := strconv.ParseFloat(raw, 64); err != nil && !looksBool {
		return resultText
	}

	key := sheet + "!" + cell
	if k, ok := s.kinds[key]; ok {
		return k
	}

	k := resultNumber
	if looksBool {
		k = resultBool
	}
	switch t, err := s.typeOf(sheet, cell); {
	case err != nil:
	case t == "2":
		k = resultText
	case t == "4":
		k = resultBool
	case t == "1":
		k = resultNumber
	}
	s.kinds[key] = k
	return k
}

// typeOf evaluates TYPE(sheet!cell) on the scratch sheet
func (s *Session) typeOf(sheet, cell string) (string, error) {
	if !s.scratch {
		if _, err := s.file.NewSheet(scratchSheet); err != nil {
			return "", err
		}
		s.scratch = true
	}
	formula := fmt.Sprintf("TYPE(%s!%s)", sheetRef(sheet), cell)
	if err := s.file.SetCellFormula(scratchSheet, "A1", formula); err != nil {
		return "", err
	}
	return s.file.CalcCellValue(scratchSheet, "A1", excelize.Options{RawCellValue: true})
}

// sheetRef quotes a sheet name for use in a formula when it needs quoting
func sheetRef(name string) string {
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}
