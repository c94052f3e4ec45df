package tabular

import (
	"fmt"
	"strings"
)

// Column maps one source field to one output column.
type Column struct {
	// Source is the field or column name read from each record.
	Source string `yaml:"source" json:"source"`

	// Heading is the text written in the header row.
	Heading string `yaml:"heading" json:"heading"`
}

// NewColumn creates a column whose heading is its source name.
func NewColumn(source string) (Column, error) {
	if strings.TrimSpace(source) == "" {
		return Column{}, NewMappingError(-1, source, ErrEmptySource)
	}
	return Column{Source: source, Heading: source}, nil
}

// NewColumnWithHeading creates a column with an explicit heading.
func NewColumnWithHeading(source, heading string) (Column, error) {
	if strings.TrimSpace(source) == "" {
		return Column{}, NewMappingError(-1, source, ErrEmptySource)
	}
	if heading == "" {
		return Column{}, NewMappingError(-1, source, ErrEmptyHeading)
	}
	return Column{Source: source, Heading: heading}, nil
}

// Mapping is an ordered list of columns. The order of the columns is the
// order of the output. A Mapping is immutable once created.
type Mapping struct {
	columns []Column
}

// NewMapping validates cols and returns a Mapping holding a copy of them.
// A column with an empty heading gets its source name as heading.
func NewMapping(cols ...Column) (*Mapping, error) {
	if len(cols) == 0 {
		return nil, NewMappingError(-1, "", ErrNoColumns)
	}

	columns := make([]Column, len(cols))
	for i, c := range cols {
		if strings.TrimSpace(c.Source) == "" {
			return nil, NewMappingError(i, c.Source, ErrEmptySource)
		}
		if c.Heading == "" {
			c.Heading = c.Source
		}
		columns[i] = c
	}

	return &Mapping{columns: columns}, nil
}

// MustMapping is like NewMapping but panics on error.
func MustMapping(cols ...Column) *Mapping {
	m, err := NewMapping(cols...)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMapping builds a mapping from its compact form: a comma separated
// list of "source" or "source=Heading" entries.
//
//	m, err := tabular.ParseMapping("Id=ID,Name")
func ParseMapping(text string) (*Mapping, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewMappingError(-1, "", ErrNoColumns)
	}

	parts := strings.Split(text, ",")
	cols := make([]Column, 0, len(parts))
	for i, part := range parts {
		source, heading, found := strings.Cut(part, "=")
		source = strings.TrimSpace(source)
		if source == "" {
			return nil, NewMappingError(i, source, ErrEmptySource)
		}
		if !found {
			cols = append(cols, Column{Source: source, Heading: source})
			continue
		}
		heading = strings.TrimSpace(heading)
		if heading == "" {
			return nil, NewMappingError(i, source, ErrEmptyHeading)
		}
		cols = append(cols, Column{Source: source, Heading: heading})
	}

	return NewMapping(cols...)
}

// Columns returns a copy of the columns in output order.
func (m *Mapping) Columns() []Column {
	out := make([]Column, len(m.columns))
	copy(out, m.columns)
	return out
}

// Len returns the number of columns.
func (m *Mapping) Len() int {
	return len(m.columns)
}

// Sources returns the source names in output order.
func (m *Mapping) Sources() []string {
	out := make([]string, len(m.columns))
	for i, c := range m.columns {
		out[i] = c.Source
	}
	return out
}

// Headings returns the column headings in output order.
func (m *Mapping) Headings() []string {
	out := make([]string, len(m.columns))
	for i, c := range m.columns {
		out[i] = c.Heading
	}
	return out
}

// String returns the compact form accepted by ParseMapping.
func (m *Mapping) String() string {
	var sb strings.Builder
	for i, c := range m.columns {
		if i > 0 {
			sb.WriteByte(',')
		}
		if c.Heading == c.Source {
			sb.WriteString(c.Source)
			continue
		}
		fmt.Fprintf(&sb, "%s=%s", c.Source, c.Heading)
	}
	return sb.String()
}
