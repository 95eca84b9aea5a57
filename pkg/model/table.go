// pkg/model/table.go
package model

import (
	"fmt"
	"time"
)

// Row holds one record as a column-name -> value map.
// A nil value marks a missing (null) cell.
type Row = map[string]interface{}

// Table is the in-memory tabular record set every pipeline stage consumes
// and produces. Columns carries the declared column order; Rows may hold
// nil cells for missing values.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given column order.
func NewTable(name string, columns ...string) *Table {
	return &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
	}
}

// HasColumn reports whether the table declares the given column.
func (t *Table) HasColumn(name string) bool {
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// RequireColumns returns an error naming the first declared column that is
// absent. Join and key-derivation code must call this before relying on a
// column; a missing required column is a schema mismatch, not a data-quality
// condition.
func (t *Table) RequireColumns(names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return fmt.Errorf("table %s: required column %q is missing", t.Name, name)
		}
	}
	return nil
}

// AppendRow adds a row to the table.
func (t *Table) AppendRow(row Row) {
	t.Rows = append(t.Rows, row)
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// Copy returns a deep copy of the table. Stages that mutate rows work on a
// copy so the previous stage's output stays untouched.
func (t *Table) Copy() *Table {
	out := NewTable(t.Name, t.Columns...)
	out.Rows = make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		copied := make(Row, len(row))
		for k, v := range row {
			copied[k] = v
		}
		out.Rows = append(out.Rows, copied)
	}
	return out
}

// RenameColumn renames a column in both the declaration and every row.
// Renaming a column that does not exist is a no-op.
func (t *Table) RenameColumn(from, to string) {
	renamed := false
	for i, col := range t.Columns {
		if col == from {
			t.Columns[i] = to
			renamed = true
			break
		}
	}
	if !renamed {
		return
	}
	for _, row := range t.Rows {
		if v, ok := row[from]; ok {
			row[to] = v
			delete(row, from)
		}
	}
}

// DropColumns removes the named columns from the declaration and all rows.
func (t *Table) DropColumns(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := t.Columns[:0]
	for _, col := range t.Columns {
		if !drop[col] {
			kept = append(kept, col)
		}
	}
	t.Columns = kept
	for _, row := range t.Rows {
		for n := range drop {
			delete(row, n)
		}
	}
}

// Project returns a new table holding only the named columns, in the given
// order. Rows reference fresh maps so the projection can be mutated freely.
func (t *Table) Project(name string, columns ...string) (*Table, error) {
	if err := t.RequireColumns(columns...); err != nil {
		return nil, err
	}
	out := NewTable(name, columns...)
	out.Rows = make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		projected := make(Row, len(columns))
		for _, col := range columns {
			projected[col] = row[col]
		}
		out.Rows = append(out.Rows, projected)
	}
	return out, nil
}

// NullCounts returns the number of nil cells per declared column.
func (t *Table) NullCounts() map[string]int {
	counts := make(map[string]int, len(t.Columns))
	for _, col := range t.Columns {
		counts[col] = 0
	}
	for _, row := range t.Rows {
		for _, col := range t.Columns {
			if row[col] == nil {
				counts[col]++
			}
		}
	}
	return counts
}

// DistinctCount returns the number of distinct non-nil values in a column.
func (t *Table) DistinctCount(column string) int {
	seen := make(map[interface{}]struct{})
	for _, row := range t.Rows {
		if v := row[column]; v != nil {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// FormatValue renders a cell for audit records and CSV artifacts.
// Nil cells render as the empty string.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case float32:
		return fmt.Sprintf("%g", val)
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
