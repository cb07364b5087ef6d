package table

import (
	"fmt"
	"math"
)

const millisPerDay = 24 * 60 * 60 * 1000

// TimeOfDay is a wall-clock value without a date part, the form spreadsheets
// use for cells holding only a time (serial number in [0, 1)).
type TimeOfDay struct {
	Hour, Minute, Second, Millisecond int
}

// TimeOfDayFromSerial converts the fractional day of a spreadsheet serial to
// a TimeOfDay. ok is false when the serial is outside [0, 1) once rounded to
// the millisecond, in which case the value is a date, not a time of day.
func TimeOfDayFromSerial(serial float64) (TimeOfDay, bool) {
	if serial < 0 || serial >= 1 {
		return TimeOfDay{}, false
	}
	ms := int(math.Round(serial * millisPerDay))
	if ms >= millisPerDay {
		return TimeOfDay{}, false
	}
	return TimeOfDay{
		Hour:        ms / 3600000,
		Minute:      ms / 60000 % 60,
		Second:      ms / 1000 % 60,
		Millisecond: ms % 1000,
	}, true
}

// String renders the value as HH:MM:SS, dropping milliseconds
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// NormalizeTimes returns a copy of t in which every time-of-day cell of a
// column that holds at least one time-of-day value is replaced by its
// HH:MM:SS string. Other cells, the column order and the row count are
// unchanged.
func NormalizeTimes(t *Table) *Table {
	out := t.Clone()
	for col := range out.Columns {
		if !columnHasTime(out, col) {
			continue
		}
		for _, row := range out.Rows {
			if tod, ok := row[col].(TimeOfDay); ok {
				row[col] = tod.String()
			}
		}
	}
	return out
}

func columnHasTime(t *Table, col int) bool {
	for _, row := range t.Rows {
		if _, ok := row[col].(TimeOfDay); ok {
			return true
		}
	}
	return false
}
