package tabular

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"
)

type user struct {
	ID      int `tabular:"Id"`
	Name    string
	Email   *string
	Created time.Time
	secret  string
}

type status int

type order struct {
	Number int
	Status status
	Total  float64
	Paid   bool
	Notes  string `tabular:"-"`
}

type upper string

func (u upper) String() string {
	return strings.ToUpper(string(u))
}

type labelled struct {
	Label upper
}

type nested struct {
	Inner struct{ A int }
}

// fieldBag implements Record.
type fieldBag struct {
	values map[string]any
}

func (b fieldBag) FieldNames() []string {
	return Map(b.values).FieldNames()
}

func (b fieldBag) Field(name string) (any, bool) {
	v, ok := b.values[name]
	return v, ok
}

type captureObserver struct {
	source string
	rows   int
	size   int
	err    error
	calls  int
}

func (o *captureObserver) ObserveEncode(source string, rows, size int, _ time.Duration, err error) {
	o.source, o.rows, o.size, o.err = source, rows, size, err
	o.calls++
}

func readAll(t *testing.T, r *bytes.Reader) string {
	t.Helper()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read stream: %v", err)
	}
	return string(data)
}

func idNameMapping() *Mapping {
	return MustMapping(
		Column{Source: "Id", Heading: "ID"},
		Column{Source: "Name", Heading: "Name"},
	)
}

func TestEncodeObjects_QuoteEscapingScenario(t *testing.T) {
	records := []user{{ID: 1, Name: `A"B`}}

	r, err := EncodeObjects(Objects(records), idNameMapping(), true)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}

	want := "\"ID\",\"Name\"\n\"1\",\"A\"\"B\"\n"
	if got := readAll(t, r); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestEncodeObjects_QuoteEscapingDisabled(t *testing.T) {
	records := []user{{ID: 1, Name: `A"B`}}

	r, err := EncodeObjects(Objects(records), idNameMapping(), false)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}

	want := "\"ID\",\"Name\"\n\"1\",\"A\"B\"\n"
	if got := readAll(t, r); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestEncodeObjects_EmptyRecords(t *testing.T) {
	r, err := EncodeObjects(nil, idNameMapping(), true)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}

	output := readAll(t, r)
	lines := strings.Split(strings.TrimSuffix(output, "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header), got %d: %q", len(lines), output)
	}
	if lines[0] != `"ID","Name"` {
		t.Errorf("header = %s", lines[0])
	}
}

func TestEncodeObjects_PreservesOrderAndWidth(t *testing.T) {
	records := []user{
		{ID: 3, Name: "c"},
		{ID: 1, Name: "a"},
		{ID: 2, Name: "b"},
	}
	m := MustMapping(
		Column{Source: "Name"},
		Column{Source: "Id", Heading: "ID"},
		Column{Source: "Email"},
	)

	r, err := EncodeObjects(Objects(records), m, true)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(readAll(t, r), "\n"), "\n")
	want := []string{
		`"Name","ID","Email"`,
		`"c","3",""`,
		`"a","1",""`,
		`"b","2",""`,
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %s, want %s", i, lines[i], want[i])
		}
		if n := strings.Count(lines[i], `","`) + 1; n != m.Len() {
			t.Errorf("line %d has %d fields, want %d", i, n, m.Len())
		}
	}
}

func TestEncodeObjects_PointerRecordsAndValues(t *testing.T) {
	email := "a@example.com"
	created := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	records := []*user{
		{ID: 1, Name: "a", Email: &email, Created: created},
		{ID: 2, Name: "b"},
	}
	m := MustMapping(Column{Source: "Id"}, Column{Source: "Email"}, Column{Source: "Created"})

	r, err := NewEncoder(WithTimeLayout("2006-01-02")).EncodeObjects(Objects(records), m)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}

	want := "\"Id\",\"Email\",\"Created\"\n" +
		"\"1\",\"a@example.com\",\"2025-01-15\"\n" +
		"\"2\",\"\",\"0001-01-01\"\n"
	if got := readAll(t, r); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestEncodeObjects_ScalarFormatting(t *testing.T) {
	records := []order{
		{Number: 7, Status: status(2), Total: 12.5, Paid: true, Notes: "hidden"},
	}
	m := MustMapping(
		Column{Source: "Number"},
		Column{Source: "Status"},
		Column{Source: "Total"},
		Column{Source: "Paid"},
		Column{Source: "Notes"},
	)

	r, err := EncodeObjects(Objects(records), m, true)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(readAll(t, r), "\n"), "\n")
	if lines[1] != `"7","2","12.5","true",""` {
		t.Errorf("data row = %s", lines[1])
	}
}

func TestEncodeObjects_StringerIsEscaped(t *testing.T) {
	records := []labelled{{Label: `say "hi"`}}
	m := MustMapping(Column{Source: "Label"})

	r, err := EncodeObjects(Objects(records), m, true)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(readAll(t, r), "\n"), "\n")
	if lines[1] != `"SAY ""HI"""` {
		t.Errorf("data row = %s", lines[1])
	}
}

func TestEncodeObjects_HeaderIsEscaped(t *testing.T) {
	m := MustMapping(Column{Source: "Name", Heading: `The "name"`})

	r, err := EncodeObjects(nil, m, true)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}
	if got := readAll(t, r); got != "\"The \"\"name\"\"\"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEncodeObjects_MapRecords(t *testing.T) {
	records := []any{
		map[string]any{"Id": 1, "Name": "a"},
		map[string]any{"Id": 2},
		map[string]any{"Name": "c", "Extra": true},
	}

	r, err := EncodeObjects(records, idNameMapping(), true)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}

	want := "\"ID\",\"Name\"\n\"1\",\"a\"\n\"2\",\"\"\n\"\",\"c\"\n"
	if got := readAll(t, r); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestEncodeObjects_TypedMapRecords(t *testing.T) {
	records := []any{
		map[string]string{"Id": "x", "Name": "y"},
	}

	r, err := EncodeObjects(records, idNameMapping(), true)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}
	if got := readAll(t, r); got != "\"ID\",\"Name\"\n\"x\",\"y\"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEncodeObjects_RecordInterface(t *testing.T) {
	records := []any{
		fieldBag{values: map[string]any{"Id": 10, "Name": "x"}},
		fieldBag{values: map[string]any{"Id": 11, "Name": nil}},
	}

	r, err := EncodeObjects(records, idNameMapping(), true)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}
	if got := readAll(t, r); got != "\"ID\",\"Name\"\n\"10\",\"x\"\n\"11\",\"\"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEncodeObjects_MapType(t *testing.T) {
	records := []any{Map{"Id": 1, "Name": "m"}}

	r, err := EncodeObjects(records, idNameMapping(), true)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}
	if got := readAll(t, r); got != "\"ID\",\"Name\"\n\"1\",\"m\"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEncodeObjects_MissingFieldSkipFails(t *testing.T) {
	records := []any{
		map[string]any{"Id": 1, "Name": "a"},
		map[string]any{"Name": "b"},
	}

	enc := NewEncoder(WithMissingFields(MissingSkip))
	r, err := enc.EncodeObjects(records, idNameMapping())
	if !errors.Is(err, ErrTemplateArity) {
		t.Fatalf("error = %v, want ErrTemplateArity", err)
	}
	if r != nil {
		t.Error("expected no output on failure")
	}

	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected *EncodeError, got %T", err)
	}
	if encErr.Row != 1 {
		t.Errorf("EncodeError.Row = %d, want 1", encErr.Row)
	}
}

func TestEncodeObjects_StructWithoutMappedField(t *testing.T) {
	m := MustMapping(Column{Source: "Id"}, Column{Source: "Unknown"}, Column{Source: "Name"})
	records := []user{{ID: 1, Name: "a"}}

	r, err := EncodeObjects(Objects(records), m, true)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(readAll(t, r), "\n"), "\n")
	if lines[1] != `"1","","a"` {
		t.Errorf("data row = %s", lines[1])
	}

	_, err = NewEncoder(WithMissingFields(MissingSkip)).EncodeObjects(Objects(records), m)
	if !errors.Is(err, ErrTemplateArity) {
		t.Errorf("error = %v, want ErrTemplateArity", err)
	}
}

func TestEncodeObjects_UnexportedFieldsAreNotFields(t *testing.T) {
	m := MustMapping(Column{Source: "secret"})
	records := []user{{secret: "s"}}

	r, err := EncodeObjects(Objects(records), m, true)
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}
	if got := readAll(t, r); got != "\"secret\"\n\"\"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEncodeObjects_Errors(t *testing.T) {
	tests := []struct {
		name    string
		records []any
		mapping *Mapping
		want    error
	}{
		{
			name:    "nil mapping",
			records: []any{user{}},
			want:    ErrNilMapping,
		},
		{
			name:    "heterogeneous records",
			records: []any{user{ID: 1}, order{Number: 1}},
			mapping: idNameMapping(),
			want:    ErrHeterogeneousRecords,
		},
		{
			name:    "struct then pointer",
			records: []any{user{ID: 1}, &user{ID: 2}},
			mapping: idNameMapping(),
			want:    ErrHeterogeneousRecords,
		},
		{
			name:    "unsupported record",
			records: []any{42},
			mapping: idNameMapping(),
			want:    ErrUnsupportedRecord,
		},
		{
			name:    "nil first record",
			records: []any{nil},
			mapping: idNameMapping(),
			want:    ErrNilRecord,
		},
		{
			name:    "nil later record",
			records: []any{user{}, nil},
			mapping: idNameMapping(),
			want:    ErrNilRecord,
		},
		{
			name:    "nil pointer record",
			records: []any{&user{}, (*user)(nil)},
			mapping: idNameMapping(),
			want:    ErrNilRecord,
		},
		{
			name:    "unsupported value",
			records: []any{nested{}},
			mapping: MustMapping(Column{Source: "Inner"}),
			want:    ErrUnsupportedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := EncodeObjects(tt.records, tt.mapping, true)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if r != nil {
				t.Error("expected nil reader on error")
			}
			var encErr *EncodeError
			if !errors.As(err, &encErr) {
				t.Fatalf("expected *EncodeError, got %T", err)
			}
			if encErr.Source != SourceObjects {
				t.Errorf("EncodeError.Source = %q", encErr.Source)
			}
		})
	}
}

func TestEncoder_CRLF(t *testing.T) {
	enc := NewEncoder(WithLineEnding(CRLF))
	r, err := enc.EncodeObjects(Objects([]user{{ID: 1, Name: "a"}}), idNameMapping())
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}
	if got := readAll(t, r); got != "\"ID\",\"Name\"\r\n\"1\",\"a\"\r\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEncoder_Windows1252(t *testing.T) {
	enc := NewEncoder(WithEncoding(charmap.Windows1252))
	r, err := enc.EncodeObjects(Objects([]user{{ID: 1, Name: "café"}}), idNameMapping())
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}

	data, _ := io.ReadAll(r)
	want := []byte("\"ID\",\"Name\"\n\"1\",\"caf\xe9\"\n")
	if !bytes.Equal(data, want) {
		t.Errorf("output = %q, want %q", data, want)
	}
}

func TestEncoder_UTF8BOM(t *testing.T) {
	utf8bom, err := LookupEncoding("utf-8-bom")
	if err != nil {
		t.Fatalf("LookupEncoding() failed: %v", err)
	}

	r, err := NewEncoder(WithEncoding(utf8bom)).EncodeObjects(nil, idNameMapping())
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}
	data, _ := io.ReadAll(r)
	if !bytes.HasPrefix(data, []byte("\xef\xbb\xbf\"ID\"")) {
		t.Errorf("expected BOM prefix, got %q", data)
	}
}

func TestEncoder_Observer(t *testing.T) {
	obs := &captureObserver{}
	enc := NewEncoder(WithObserver(obs))

	r, err := enc.EncodeObjects(Objects([]user{{ID: 1}, {ID: 2}}), idNameMapping())
	if err != nil {
		t.Fatalf("EncodeObjects() failed: %v", err)
	}
	if obs.calls != 1 || obs.source != SourceObjects || obs.rows != 2 || obs.err != nil {
		t.Errorf("observer = %+v", obs)
	}
	if obs.size != int(r.Size()) {
		t.Errorf("observed size %d, want %d", obs.size, r.Size())
	}

	_, _ = enc.EncodeObjects([]any{1}, idNameMapping())
	if obs.calls != 2 || obs.err == nil {
		t.Errorf("expected failed call to be observed, got %+v", obs)
	}
}

func TestLookupEncoding(t *testing.T) {
	tests := []struct {
		name      string
		charset   string
		canonical string
		wantNil   bool
		wantErr   bool
	}{
		{"empty", "", "utf-8", true, false},
		{"utf-8", "UTF-8", "utf-8", true, false},
		{"latin1", "iso-8859-1", "windows-1252", false, false},
		{"windows-1252", "windows-1252", "windows-1252", false, false},
		{"unknown", "no-such-charset", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := LookupEncoding(tt.charset)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LookupEncoding(%q) error = %v", tt.charset, err)
			}
			if (enc == nil) != tt.wantNil {
				t.Errorf("LookupEncoding(%q) = %v", tt.charset, enc)
			}
			if err == nil && EncodingName(enc) != tt.canonical {
				t.Errorf("EncodingName() = %q, want %q", EncodingName(enc), tt.canonical)
			}
		})
	}
}

func TestParseMissingFieldPolicy(t *testing.T) {
	if p, ok := ParseMissingFieldPolicy("skip"); !ok || p != MissingSkip {
		t.Errorf("skip parsed as %v, %v", p, ok)
	}
	if p, ok := ParseMissingFieldPolicy(""); !ok || p != MissingAsEmpty {
		t.Errorf("empty parsed as %v, %v", p, ok)
	}
	if _, ok := ParseMissingFieldPolicy("pad"); ok {
		t.Error("expected unknown policy to be rejected")
	}
}
