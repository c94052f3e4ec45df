package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"mercator-hq/tabular/pkg/tabular"
)

// OutputFormat is the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output rendered by the object encoder.
	FormatCSV OutputFormat = "csv"
)

// ParseOutputFormat parses a --format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatCSV:
		return f, nil
	}
	return "", NewConfigError("format", fmt.Sprintf("unsupported output format %q (want text, json or csv)", s))
}

// Formatter formats command output.
type Formatter interface {
	Format(data any) ([]byte, error)
	FormatTo(w io.Writer, data any) error
}

// TextFormatter formats output with fmt's default verb.
type TextFormatter struct{}

// Format converts data to text.
func (f *TextFormatter) Format(data any) ([]byte, error) {
	return []byte(fmt.Sprintf("%v\n", data)), nil
}

// FormatTo writes data to w as text.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format converts data to JSON.
func (f *JSONFormatter) Format(data any) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// FormatTo writes data to w as JSON.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter renders a slice of records (or a single record) through
// tabular.EncodeObjects using Mapping.
type CSVFormatter struct {
	Mapping       *tabular.Mapping
	QuoteEscaping bool
}

// Format converts data to CSV.
func (f *CSVFormatter) Format(data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.FormatTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatTo writes data to w as CSV.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	if f.Mapping == nil {
		return fmt.Errorf("csv output requires a column mapping")
	}

	r, err := tabular.EncodeObjects(records(data), f.Mapping, f.QuoteEscaping)
	if err != nil {
		return err
	}
	_, err = r.WriteTo(w)
	return err
}

// records flattens a slice or array into []any; any other value is a
// single record.
func records(data any) []any {
	if data == nil {
		return nil
	}
	if rs, ok := data.([]any); ok {
		return rs
	}

	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return []any{data}
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out
}

// NewFormatter creates a formatter for format. m is used by the CSV format
// and ignored otherwise.
func NewFormatter(format OutputFormat, m *tabular.Mapping) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{Mapping: m, QuoteEscaping: true}
	default:
		return &TextFormatter{}
	}
}
