package workbook

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"erp-merge/internal/table"

	"github.com/xuri/excelize/v2"
)

// formatKind classifies a cell number format
type formatKind int

const (
	kindGeneral formatKind = iota
	kindDateTime
)

// builtInDateFormats lists the built-in number format ids that render dates
// or times (ECMA-376 18.8.30, including the East Asian date ids).
var builtInDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// valueReader turns stored cells into typed table values
type valueReader struct {
	f        *excelize.File
	date1904 bool
	kinds    map[int]formatKind
}

func newValueReader(f *excelize.File) *valueReader {
	r := &valueReader{f: f, kinds: make(map[int]formatKind)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r
}

// stored returns the typed value of a non-formula cell given its raw text
func (r *valueReader) stored(sheet, cell, raw string) any {
	if raw == "" {
		return nil
	}
	cellType, _ := r.f.GetCellType(sheet, cell)
	switch cellType {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return raw
	case excelize.CellTypeDate:
		return parseISODate(raw)
	default:
		return r.number(sheet, cell, raw)
	}
}

// resultKind is the value type a formula produced
type resultKind int

const (
	resultNumber resultKind = iota
	resultText
	resultBool
)

// computed returns the typed value of a recalculated formula result. Text
// results stay text even when they look like numbers or booleans.
func (r *valueReader) computed(sheet, cell, raw string, kind resultKind) any {
	switch {
	case raw == "":
		return nil
	case kind == resultText:
		return raw
	case kind == resultBool:
		return strings.EqualFold(raw, "TRUE")
	}
	return r.number(sheet, cell, raw)
}

// number parses a numeric cell, honoring date and time number formats.
// Serials in [0, 1) under a date/time format are times of day, larger
// serials are date-times. Text that does not parse stays text.
func (r *valueReader) number(sheet, cell, raw string) any {
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if r.kind(sheet, cell) != kindDateTime {
		return n
	}
	if tod, ok := table.TimeOfDayFromSerial(n); ok {
		return tod
	}
	if t, err := excelize.ExcelDateToTime(n, r.date1904); err == nil {
		return t
	}
	return n
}

func (r *valueReader) kind(sheet, cell string) formatKind {
	styleID, err := r.f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return kindGeneral
	}
	if k, ok := r.kinds[styleID]; ok {
		return k
	}
	k := kindGeneral
	if style, err := r.f.GetStyle(styleID); err == nil {
		if builtInDateFormats[style.NumFmt] {
			k = kindDateTime
		} else if style.CustomNumFmt != nil && isDateFormatCode(*style.CustomNumFmt) {
			k = kindDateTime
		}
	}
	r.kinds[styleID] = k
	return k
}

// isDateFormatCode reports whether a custom number format code renders a
// date or a time. Quoted literals, escaped characters and bracketed
// sections (colors, locales, conditions) are ignored, elapsed-time brackets
// such as [h] count as time tokens.
func isDateFormatCode(code string) bool {
	section := code
	if i := strings.Index(code, ";"); i >= 0 {
		section = code[:i]
	}
	inQuote := false
	for i := 0; i < len(section); i++ {
		ch := section[i]
		switch {
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		case ch == '[':
			end := strings.IndexByte(section[i:], ']')
			if end < 0 {
				return false
			}
			inner := strings.ToLower(section[i+1 : i+end])
			if inner != "" && strings.Trim(inner, "hms") == "" {
				return true
			}
			i += end
		default:
			switch ch | 0x20 {
			case 'y', 'm', 'd', 'h', 's':
				return true
			}
		}
	}
	return false
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseISODate(raw string) any {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return raw
}

// cellName converts 1-based coordinates to an A1 reference
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// HeaderText renders a header cell as a column name
func HeaderText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}

// TypedRows reads every row of a sheet with typed cell values. Trailing
// empty rows are dropped and every row is padded to the widest one.
func TypedRows(f *excelize.File, sheet string) ([][]any, error) {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	r := newValueReader(f)

	rows := make([][]any, 0, len(raw))
	width, last := 0, 0
	for i, cells := range raw {
		row := make([]any, len(cells))
		for j, text := range cells {
			row[j] = r.stored(sheet, cellName(j+1, i+1), text)
			if row[j] != nil {
				width = max(width, j+1)
				last = i + 1
			}
		}
		rows = append(rows, row)
	}

	rows = rows[:last]
	for i, row := range rows {
		padded := make([]any, width)
		copy(padded, row)
		rows[i] = padded
	}
	return rows, nil
}
