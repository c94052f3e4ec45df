package tabular

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	placeholderStart = "{"
	placeholderEnd   = "}"
)

// Template is a positional line template with one quoted placeholder per
// column, e.g. "{0}","{1}","{2}" for three columns. The same template
// formats the header and every data row.
type Template struct {
	slots int
	text  string
	tmpl  *fasttemplate.Template
}

// NewTemplate builds the template for the given number of columns.
func NewTemplate(columns int) (*Template, error) {
	if columns <= 0 {
		return nil, ErrNoColumns
	}

	var sb strings.Builder
	for i := 0; i < columns; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(placeholderStart)
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(placeholderEnd)
		sb.WriteByte('"')
	}

	text := sb.String()
	tmpl, err := fasttemplate.NewTemplate(text, placeholderStart, placeholderEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to compile line template: %w", err)
	}

	return &Template{
		slots: columns,
		text:  text,
		tmpl:  tmpl,
	}, nil
}

// Slots returns the number of placeholders.
func (t *Template) Slots() int {
	return t.slots
}

// String returns the template text.
func (t *Template) String() string {
	return t.text
}

// Format substitutes values into their placeholders. Values are inserted
// verbatim; escaping happens before Format. Extra values are ignored.
func (t *Template) Format(values []string) (string, error) {
	if len(values) < t.slots {
		return "", fmt.Errorf("%w: got %d, want %d", ErrTemplateArity, len(values), t.slots)
	}

	return t.tmpl.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		i, err := strconv.Atoi(tag)
		if err != nil || i < 0 || i >= len(values) {
			return 0, fmt.Errorf("invalid placeholder %q", tag)
		}
		return io.WriteString(w, values[i])
	})
}
