package tabular

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Line endings accepted by WithLineEnding.
const (
	LF   = "\n"
	CRLF = "\r\n"
)

// ParseLineEnding maps "lf" or "crlf" (any case) to its terminator. An
// empty name means LF.
func ParseLineEnding(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lf":
		return LF, nil
	case "crlf":
		return CRLF, nil
	}
	return "", fmt.Errorf("invalid line ending %q: must be 'lf' or 'crlf'", name)
}

// LookupEncoding returns the text encoding registered under name (WHATWG
// labels such as "windows-1252", "iso-8859-1", "utf-16le"). An empty name or
// "utf-8" returns nil, meaning UTF-8 without byte order mark; "utf-8-bom"
// returns UTF-8 with a byte order mark.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-8-bom", "utf8-bom", "utf-8-sig":
		return unicode.UTF8BOM, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown text encoding %q: %w", name, err)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}

// EncodingName returns the canonical charset name of enc for use in a
// Content-Type header.
func EncodingName(enc encoding.Encoding) string {
	if enc == nil || enc == unicode.UTF8BOM {
		return "utf-8"
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return "utf-8"
	}
	return name
}

// lineWriter writes lines through an optional text encoding. Runes the
// encoding cannot represent are replaced with its substitute character.
type lineWriter struct {
	bw     *bufio.Writer
	closer io.Closer
	eol    string
}

func newLineWriter(dst io.Writer, enc encoding.Encoding, eol string) *lineWriter {
	var closer io.Closer
	if enc != nil {
		tw := transform.NewWriter(dst, encoding.ReplaceUnsupported(enc.NewEncoder()))
		dst, closer = tw, tw
	}
	return &lineWriter{
		bw:     bufio.NewWriter(dst),
		closer: closer,
		eol:    eol,
	}
}

func (w *lineWriter) WriteLine(line string) error {
	if _, err := w.bw.WriteString(line); err != nil {
		return err
	}
	_, err := w.bw.WriteString(w.eol)
	return err
}

// Close flushes buffered output and the encoder.
func (w *lineWriter) Close() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
