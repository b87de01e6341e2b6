// Package table holds the in-memory tables that flow between pipeline stages:
// comment tables, sentence tables and topic-labeled tables. A table is value
// data; every transformation returns a new table and leaves its input intact.
package table

import (
	"fmt"
)

const (
	// CommentColumn is required on every comment-bearing table.
	CommentColumn = "comment"
	// TopicsColumn carries the integer topic label assigned by a topic model.
	TopicsColumn = "topics"
)

// SchemaError reports a table that lacks a required column.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing %q column", e.Column)
}

// Table is an ordered set of rows under a header. Cells are strings; row
// order is significant and preserved by every operation.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// New creates an empty table with the given header.
func New(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// NewCommentTable builds a single-column comment table in the given order.
func NewCommentTable(comments []string) *Table {
	t := New(CommentColumn)
	t.Rows = make([][]string, 0, len(comments))
	for _, c := range comments {
		t.Rows = append(t.Rows, []string{c})
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of name in the header, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether name is in the header.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Require returns the index of name or a *SchemaError.
func (t *Table) Require(name string) (int, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return -1, &SchemaError{Column: name}
	}
	return idx, nil
}

// Column returns a copy of every value in the named column.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.Require(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = cell(row, idx)
	}
	return values, nil
}

// Append adds a row. Short rows are padded with empty cells.
func (t *Table) Append(values ...string) {
	row := make([]string, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := New(t.Columns...)
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]string, len(row))
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

// Filter returns the rows for which keep returns true, in their original order.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	out := New(t.Columns...)
	for _, row := range t.Rows {
		if keep(row) {
			r := make([]string, len(row))
			copy(r, row)
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// DropColumn returns a copy of t without the named column.
func (t *Table) DropColumn(name string) (*Table, error) {
	idx, err := t.Require(name)
	if err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(t.Columns)-1)
	cols = append(cols, t.Columns[:idx]...)
	cols = append(cols, t.Columns[idx+1:]...)

	out := &Table{Columns: cols, Rows: make([][]string, 0, len(t.Rows))}
	for _, row := range t.Rows {
		r := make([]string, 0, len(cols))
		for i := range t.Columns {
			if i != idx {
				r = append(r, cell(row, i))
			}
		}
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}

// WithColumn returns a copy of t with an extra column holding values.
func (t *Table) WithColumn(name string, values []string) (*Table, error) {
	if len(values) != len(t.Rows) {
		return nil, fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}
	if t.HasColumn(name) {
		return nil, fmt.Errorf("column %q already present", name)
	}

	out := New(append(append([]string{}, t.Columns...), name)...)
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]string, len(t.Columns), len(t.Columns)+1)
		copy(r, row)
		out.Rows[i] = append(r, values[i])
	}
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
