package table

// SchemaDiff describes how a table's columns differ from a reference schema
type SchemaDiff struct {
	Missing []string // in the reference, absent from the table
	Extra   []string // in the table, absent from the reference
}

// Empty reports whether both schemas hold the same column names
func (d SchemaDiff) Empty() bool {
	return len(d.Missing) == 0 && len(d.Extra) == 0
}

// CompareSchema compares the column names of t against reference by name,
// ignoring order
func CompareSchema(reference, t *Table) SchemaDiff {
	var diff SchemaDiff
	for _, c := range reference.Columns {
		if _, ok := t.ColumnIndex(c); !ok {
			diff.Missing = append(diff.Missing, c)
		}
	}
	for _, c := range t.Columns {
		if _, ok := reference.ColumnIndex(c); !ok {
			diff.Extra = append(diff.Extra, c)
		}
	}
	return diff
}

// Concat stacks the rows of tables in order. Columns are aligned by name;
// the result holds the union of all columns in order of first appearance,
// and rows from a table lacking a column get an empty cell there.
func Concat(tables []*Table) *Table {
	var columns []string
	index := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.Columns {
			key := columnKey(c)
			if _, ok := index[key]; ok {
				continue
			}
			index[key] = len(columns)
			columns = append(columns, c)
		}
	}

	out := New(columns)
	for _, t := range tables {
		positions := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			positions[i] = index[columnKey(c)]
		}
		for _, row := range t.Rows {
			r := make([]any, len(columns))
			for i, v := range row {
				r[positions[i]] = v
			}
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
