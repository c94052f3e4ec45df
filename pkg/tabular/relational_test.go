package tabular

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "modernc.org/sqlite" // SQLite driver
)

// openTestDB opens an in-memory SQLite database with a single connection.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema := `
CREATE TABLE customers (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	city TEXT,
	balance REAL
);
INSERT INTO customers (id, name, city, balance) VALUES
	(1, 'Ada "The Countess"', 'London', 10.5),
	(2, 'Grace', NULL, NULL),
	(3, 'Linus', 'Helsinki', 0);
`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func queryTable(t *testing.T, db *sql.DB, query string, maxRows int) (*Table, error) {
	t.Helper()

	rows, err := db.QueryContext(context.Background(), query)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()
	return ScanRows(rows, maxRows)
}

func TestEncodeRelationalRows_FromSQLite(t *testing.T) {
	db := openTestDB(t)
	table, err := queryTable(t, db, "SELECT id, name, city, balance FROM customers ORDER BY id", 0)
	if err != nil {
		t.Fatalf("ScanRows() failed: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}

	m := MustMapping(
		Column{Source: "name", Heading: "Customer"},
		Column{Source: "ID", Heading: "Number"},
		Column{Source: "City"},
		Column{Source: "balance", Heading: "Balance"},
	)

	r, err := EncodeRelationalRows(table, m, true)
	if err != nil {
		t.Fatalf("EncodeRelationalRows() failed: %v", err)
	}

	want := "\"Customer\",\"Number\",\"City\",\"Balance\"\n" +
		"\"Ada \"\"The Countess\"\"\",\"1\",\"London\",\"10.5\"\n" +
		"\"Grace\",\"2\",\"\",\"\"\n" +
		"\"Linus\",\"3\",\"Helsinki\",\"0\"\n"
	if got := readAll(t, r); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestScanRows_MaxRows(t *testing.T) {
	db := openTestDB(t)

	if _, err := queryTable(t, db, "SELECT id FROM customers", 2); !errors.Is(err, ErrTooManyRows) {
		t.Errorf("error = %v, want ErrTooManyRows", err)
	}
	if _, err := queryTable(t, db, "SELECT id FROM customers", 3); err != nil {
		t.Errorf("ScanRows() with exact limit failed: %v", err)
	}
}

func TestEncodeRelationalRows_NullsAreEmpty(t *testing.T) {
	table, err := NewTable(
		[]string{"Id", "Note", "Score"},
		[]any{1, nil, sql.NullFloat64{}},
		[]any{2, sql.NullString{String: "x", Valid: true}, sql.NullFloat64{Float64: 1.25, Valid: true}},
	)
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}

	r, err := EncodeRelationalRows(table, MustMapping(Column{Source: "Id"}, Column{Source: "Note"}, Column{Source: "Score"}), true)
	if err != nil {
		t.Fatalf("EncodeRelationalRows() failed: %v", err)
	}

	output := readAll(t, r)
	if strings.Contains(strings.ToLower(output), "null") {
		t.Errorf("output contains a null marker: %q", output)
	}
	want := "\"Id\",\"Note\",\"Score\"\n\"1\",\"\",\"\"\n\"2\",\"x\",\"1.25\"\n"
	if output != want {
		t.Errorf("output = %q, want %q", output, want)
	}
}

func TestEncodeRelationalRows_QuoteEscapingToggle(t *testing.T) {
	table, _ := NewTable([]string{"Name"}, []any{`A"B`})
	m := MustMapping(Column{Source: "Name"})

	r, err := EncodeRelationalRows(table, m, false)
	if err != nil {
		t.Fatalf("EncodeRelationalRows() failed: %v", err)
	}
	if got := readAll(t, r); got != "\"Name\"\n\"A\"B\"\n" {
		t.Errorf("output = %q", got)
	}

	r, err = EncodeRelationalRows(table, m, true)
	if err != nil {
		t.Fatalf("EncodeRelationalRows() failed: %v", err)
	}
	if got := readAll(t, r); got != "\"Name\"\n\"A\"\"B\"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEncodeRelationalRows_EmptyTable(t *testing.T) {
	table, _ := NewTable([]string{"Id", "Name"})

	r, err := EncodeRelationalRows(table, idNameMapping(), true)
	if err != nil {
		t.Fatalf("EncodeRelationalRows() failed: %v", err)
	}
	if got := readAll(t, r); got != "\"ID\",\"Name\"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEncodeRelationalRows_NilTable(t *testing.T) {
	tests := []struct {
		name string
		rows RowSet
	}{
		{"untyped nil", nil},
		{"nil table", (*Table)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := EncodeRelationalRows(tt.rows, idNameMapping(), true)
			if err != nil {
				t.Fatalf("EncodeRelationalRows() failed: %v", err)
			}
			if got := readAll(t, r); got != "\"ID\",\"Name\"\n" {
				t.Errorf("output = %q", got)
			}
		})
	}

	var table *Table
	if table.Len() != 0 || table.Columns() != nil || table.HasColumn("Id") {
		t.Error("nil table should behave as an empty table without columns")
	}
}

func TestEncodeRelationalRows_UnknownColumn(t *testing.T) {
	table, _ := NewTable([]string{"Id"}, []any{1})

	r, err := EncodeRelationalRows(table, idNameMapping(), true)
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("error = %v, want ErrUnknownColumn", err)
	}
	if r != nil {
		t.Error("expected no output")
	}

	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected *EncodeError, got %T", err)
	}
	if encErr.Column != "Name" || encErr.Source != SourceRelational {
		t.Errorf("EncodeError = %+v", encErr)
	}
}

func TestEncodeRelationalRows_UnsupportedValue(t *testing.T) {
	table, _ := NewTable([]string{"Id", "Name"}, []any{1, []int{1, 2}})

	_, err := EncodeRelationalRows(table, idNameMapping(), true)
	if !errors.Is(err, ErrUnsupportedValue) {
		t.Fatalf("error = %v, want ErrUnsupportedValue", err)
	}
}

func TestEncodeRelationalRows_NilMapping(t *testing.T) {
	table, _ := NewTable([]string{"Id"})
	if _, err := EncodeRelationalRows(table, nil, true); !errors.Is(err, ErrNilMapping) {
		t.Errorf("error = %v, want ErrNilMapping", err)
	}
}

func TestNewTable_RowWidthMismatch(t *testing.T) {
	if _, err := NewTable([]string{"a", "b"}, []any{1}); err == nil {
		t.Error("expected error for short row")
	}
}

func TestTable_CaseInsensitiveColumns(t *testing.T) {
	table, _ := NewTable([]string{"CustomerName", "customername"}, []any{"first", "second"})

	if !table.HasColumn("CUSTOMERNAME") {
		t.Fatal("expected case-insensitive column lookup")
	}
	v, ok := table.Rows()[0].Value("customerName")
	if !ok || v != "first" {
		t.Errorf("Value() = %v, %v; want first column to win", v, ok)
	}
	if table.Rows()[0].IsNull("CustomerName") {
		t.Error("IsNull() = true for non-null value")
	}
	if !table.Rows()[0].IsNull("missing") {
		t.Error("IsNull() = false for missing column")
	}
}
