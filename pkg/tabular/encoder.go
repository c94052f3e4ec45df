package tabular

import (
	"bytes"
	"log/slog"
	"time"

	"golang.org/x/text/encoding"
)

// Source labels used in errors, logs and metrics.
const (
	SourceObjects    = "objects"
	SourceRelational = "relational"
)

// MissingFieldPolicy decides what happens to a mapped field that a record
// does not carry.
type MissingFieldPolicy int

const (
	// MissingAsEmpty writes an empty value in the field's column.
	MissingAsEmpty MissingFieldPolicy = iota

	// MissingSkip drops the value from the row. The row then has fewer
	// values than the mapping has columns and the encode call fails with
	// ErrTemplateArity rather than emitting a shifted row.
	MissingSkip
)

// ParseMissingFieldPolicy parses "empty" or "skip".
func ParseMissingFieldPolicy(s string) (MissingFieldPolicy, bool) {
	switch s {
	case "", "empty":
		return MissingAsEmpty, true
	case "skip":
		return MissingSkip, true
	}
	return MissingAsEmpty, false
}

// String returns the policy name.
func (p MissingFieldPolicy) String() string {
	if p == MissingSkip {
		return "skip"
	}
	return "empty"
}

// Observer receives the outcome of every encode call.
type Observer interface {
	ObserveEncode(source string, rows, size int, duration time.Duration, err error)
}

// Encoder turns record sequences into CSV streams. An Encoder holds only
// configuration and may be used from multiple goroutines.
type Encoder struct {
	quoteEscaping bool
	encoding      encoding.Encoding
	lineEnding    string
	missing       MissingFieldPolicy
	timeLayout    string
	logger        *slog.Logger
	observer      Observer
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithQuoteEscaping enables or disables doubling of quotes in textual values.
func WithQuoteEscaping(enabled bool) Option {
	return func(e *Encoder) {
		e.quoteEscaping = enabled
	}
}

// WithEncoding sets the output text encoding. nil means UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(e *Encoder) {
		e.encoding = enc
	}
}

// WithLineEnding sets the line terminator (LF or CRLF).
func WithLineEnding(eol string) Option {
	return func(e *Encoder) {
		if eol != "" {
			e.lineEnding = eol
		}
	}
}

// WithMissingFields sets the policy for mapped fields absent on a record.
func WithMissingFields(p MissingFieldPolicy) Option {
	return func(e *Encoder) {
		e.missing = p
	}
}

// WithTimeLayout sets the layout used to format time.Time values.
func WithTimeLayout(layout string) Option {
	return func(e *Encoder) {
		if layout != "" {
			e.timeLayout = layout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Encoder) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver registers an observer for encode outcomes.
func WithObserver(o Observer) Option {
	return func(e *Encoder) {
		e.observer = o
	}
}

// NewEncoder creates an Encoder. By default quotes are escaped, output is
// UTF-8 with "\n" line endings, missing fields are written empty and times
// use RFC 3339.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		quoteEscaping: true,
		lineEnding:    LF,
		missing:       MissingAsEmpty,
		timeLayout:    time.RFC3339,
		logger:        slog.Default().With("component", "tabular.encoder"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EncodeObjects encodes records with the given mapping. The field layout
// is discovered from the first record; every record must have the same
// type. The returned reader is positioned at the start of the stream.
func EncodeObjects(records []any, m *Mapping, quoteEscaping bool) (*bytes.Reader, error) {
	return NewEncoder(WithQuoteEscaping(quoteEscaping)).EncodeObjects(records, m)
}

// EncodeRelationalRows encodes a relational result set with the given mapping.
func EncodeRelationalRows(rows RowSet, m *Mapping, quoteEscaping bool) (*bytes.Reader, error) {
	return NewEncoder(WithQuoteEscaping(quoteEscaping)).EncodeRelationalRows(rows, m)
}

// EncodeObjects encodes records with the given mapping.
func (e *Encoder) EncodeObjects(records []any, m *Mapping) (r *bytes.Reader, err error) {
	start := time.Now()
	defer func() {
		e.observe(SourceObjects, len(records), r, time.Since(start), err)
	}()

	if m == nil {
		return nil, NewEncodeError(SourceObjects, -1, "", ErrNilMapping)
	}
	tmpl, err := NewTemplate(m.Len())
	if err != nil {
		return nil, NewEncodeError(SourceObjects, -1, "", err)
	}

	rows := make([][]string, 0, len(records))
	if len(records) > 0 {
		sh, err := discoverShape(records[0], m)
		if err != nil {
			return nil, NewEncodeError(SourceObjects, 0, "", err)
		}
		if missing := sh.missing(records[0]); len(missing) > 0 {
			e.logger.Debug("mapped fields not found on first record",
				"fields", missing,
				"policy", e.missing.String(),
			)
		}

		for i, rec := range records {
			fields, err := sh.extract(rec)
			if err != nil {
				return nil, NewEncodeError(SourceObjects, i, "", err)
			}

			row := make([]string, 0, len(fields))
			for j, f := range fields {
				if !f.present {
					if e.missing == MissingSkip {
						continue
					}
					row = append(row, "")
					continue
				}
				text, err := e.text(f.value)
				if err != nil {
					return nil, NewEncodeError(SourceObjects, i, m.columns[j].Source, err)
				}
				row = append(row, text)
			}
			rows = append(rows, row)
		}
	}

	return e.assemble(SourceObjects, tmpl, m, rows)
}

// EncodeRelationalRows encodes a relational result set with the given
// mapping. Every mapped column must exist in the result set; nulls are
// written as empty values.
func (e *Encoder) EncodeRelationalRows(rows RowSet, m *Mapping) (r *bytes.Reader, err error) {
	start := time.Now()
	count := 0
	defer func() {
		e.observe(SourceRelational, count, r, time.Since(start), err)
	}()

	if m == nil {
		return nil, NewEncodeError(SourceRelational, -1, "", ErrNilMapping)
	}
	tmpl, err := NewTemplate(m.Len())
	if err != nil {
		return nil, NewEncodeError(SourceRelational, -1, "", err)
	}

	if t, ok := rows.(*Table); ok && t == nil {
		rows = nil
	}

	var source []Row
	if rows != nil {
		source = rows.Rows()
		if err := checkColumns(rows.Columns(), m); err != nil {
			return nil, err
		}
	}
	count = len(source)

	out := make([][]string, 0, len(source))
	for i, row := range source {
		values := make([]string, 0, m.Len())
		for _, c := range m.columns {
			if row.IsNull(c.Source) {
				values = append(values, "")
				continue
			}
			v, ok := row.Value(c.Source)
			if !ok {
				return nil, NewEncodeError(SourceRelational, i, c.Source, ErrUnknownColumn)
			}
			text, err := e.text(v)
			if err != nil {
				return nil, NewEncodeError(SourceRelational, i, c.Source, err)
			}
			values = append(values, text)
		}
		out = append(out, values)
	}

	return e.assemble(SourceRelational, tmpl, m, out)
}

// checkColumns fails fast when a mapped column is not in the result set.
func checkColumns(columns []string, m *Mapping) error {
	t := newTable(columns)
	for _, c := range m.columns {
		if !t.HasColumn(c.Source) {
			return NewEncodeError(SourceRelational, -1, c.Source, ErrUnknownColumn)
		}
	}
	return nil
}

// text formats v and applies quote duplication to textual values.
func (e *Encoder) text(v any) (string, error) {
	s, textual, err := formatValue(v, e.timeLayout)
	if err != nil {
		return "", err
	}
	if textual && e.quoteEscaping {
		s = DuplicateQuotes(s)
	}
	return s, nil
}

// assemble writes the header and rows through tmpl and returns the stream.
func (e *Encoder) assemble(source string, tmpl *Template, m *Mapping, rows [][]string) (*bytes.Reader, error) {
	header := m.Headings()
	if e.quoteEscaping {
		for i, h := range header {
			header[i] = DuplicateQuotes(h)
		}
	}

	var buf bytes.Buffer
	w := newLineWriter(&buf, e.encoding, e.lineEnding)

	line, err := tmpl.Format(header)
	if err != nil {
		return nil, NewEncodeError(source, -1, "", err)
	}
	if err := w.WriteLine(line); err != nil {
		return nil, NewEncodeError(source, -1, "", err)
	}

	for i, row := range rows {
		line, err := tmpl.Format(row)
		if err != nil {
			return nil, NewEncodeError(source, i, "", err)
		}
		if err := w.WriteLine(line); err != nil {
			return nil, NewEncodeError(source, i, "", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, NewEncodeError(source, -1, "", err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}

func (e *Encoder) observe(source string, rows int, r *bytes.Reader, d time.Duration, err error) {
	size := 0
	if r != nil {
		size = int(r.Size())
	}

	if err != nil {
		e.logger.Debug("encode failed", "source", source, "error", err)
	} else {
		e.logger.Debug("encoded records",
			"source", source,
			"rows", rows,
			"bytes", size,
			"duration_ms", d.Milliseconds(),
		)
	}

	if e.observer != nil {
		e.observer.ObserveEncode(source, rows, size, d, err)
	}
}
