package tabular

import (
	"database/sql"
	"fmt"

	"mercator-hq/tabular/pkg/cistring"
)

// Row is one row of a relational result set. Column names are matched
// case-insensitively.
type Row interface {
	// Value returns the raw value of the named column and whether the
	// column exists.
	Value(column string) (any, bool)

	// IsNull reports whether the named column holds a null.
	IsNull(column string) bool
}

// RowSet is a finite relational result set with a fixed column list.
type RowSet interface {
	Columns() []string
	Rows() []Row
}

// Table is an in-memory RowSet.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// NewTable builds a table from literal values. Each row must have one value
// per column; a nil value is a null. When column names collide
// case-insensitively the first one wins.
func NewTable(columns []string, rows ...[]any) (*Table, error) {
	t := newTable(columns)
	for i, values := range rows {
		if len(values) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(values), len(columns))
		}
		t.append(values)
	}
	return t, nil
}

func newTable(columns []string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		key := cistring.New(c).Key()
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	return t
}

func (t *Table) append(values []any) {
	t.rows = append(t.rows, &tableRow{table: t, values: values})
}

// Columns returns the column names in result order. A nil table has none.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.columns...)
}

// Rows returns the rows in result order.
func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}
	return t.rows
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.lookup(name)
	return ok
}

func (t *Table) lookup(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[cistring.New(name).Key()]
	return i, ok
}

type tableRow struct {
	table  *Table
	values []any
}

func (r *tableRow) Value(column string) (any, bool) {
	i, ok := r.table.lookup(column)
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

func (r *tableRow) IsNull(column string) bool {
	v, ok := r.Value(column)
	return !ok || isNull(v)
}

// ScanRows reads every row of rows into a Table. maxRows <= 0 means no
// limit; otherwise more than maxRows rows fails with ErrTooManyRows.
// ScanRows does not close rows.
func ScanRows(rows *sql.Rows, maxRows int) (*Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	t := newTable(columns)
	for rows.Next() {
		if maxRows > 0 && t.Len() >= maxRows {
			return nil, fmt.Errorf("%w (%d)", ErrTooManyRows, maxRows)
		}

		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", t.Len(), err)
		}
		t.append(values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return t, nil
}
