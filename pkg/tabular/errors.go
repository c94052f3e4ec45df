package tabular

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySource is returned when a column has no source field name.
	ErrEmptySource = errors.New("column source name is empty")

	// ErrEmptyHeading is returned when a column is given an explicit empty heading.
	ErrEmptyHeading = errors.New("column heading is empty")

	// ErrNoColumns is returned when a mapping declares no columns.
	ErrNoColumns = errors.New("mapping has no columns")

	// ErrNilMapping is returned when an encode call receives a nil mapping.
	ErrNilMapping = errors.New("mapping is nil")

	// ErrNilRecord is returned for a nil record in an object sequence.
	ErrNilRecord = errors.New("record is nil")

	// ErrUnsupportedRecord is returned when a record is neither a struct,
	// a map with string keys, nor a Record.
	ErrUnsupportedRecord = errors.New("unsupported record type")

	// ErrHeterogeneousRecords is returned when a record does not have the
	// same type as the first record of the sequence.
	ErrHeterogeneousRecords = errors.New("records are not of the same type")

	// ErrUnknownColumn is returned when a mapped column does not exist in a
	// relational row set.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUnsupportedValue is returned for a value that has no text form.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrTooManyRows is returned by ScanRows when a result set exceeds its limit.
	ErrTooManyRows = errors.New("result set exceeds row limit")

	// ErrTemplateArity is returned when a row has fewer values than the
	// template has placeholders.
	ErrTemplateArity = errors.New("row has fewer values than columns")
)

// MappingError describes an invalid column mapping.
type MappingError struct {
	Index  int    // Column position, -1 for the mapping as a whole
	Source string // Source field name of the offending column
	Cause  error  // Underlying error
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("mapping error: %v", e.Cause)
	}
	return fmt.Sprintf("mapping error [column=%d, source=%q]: %v", e.Index, e.Source, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *MappingError) Unwrap() error {
	return e.Cause
}

// NewMappingError creates a new MappingError.
func NewMappingError(index int, source string, cause error) *MappingError {
	return &MappingError{
		Index:  index,
		Source: source,
		Cause:  cause,
	}
}

// EncodeError describes a failed encode call. No partial output is produced
// when an EncodeError is returned.
type EncodeError struct {
	Source string // "objects" or "relational"
	Row    int    // Zero-based record index, -1 when not row specific
	Column string // Mapped source name, empty when not column specific
	Cause  error  // Underlying error
}

// Error implements the error interface.
func (e *EncodeError) Error() string {
	switch {
	case e.Row >= 0 && e.Column != "":
		return fmt.Sprintf("encode error [source=%s, row=%d, column=%s]: %v", e.Source, e.Row, e.Column, e.Cause)
	case e.Row >= 0:
		return fmt.Sprintf("encode error [source=%s, row=%d]: %v", e.Source, e.Row, e.Cause)
	case e.Column != "":
		return fmt.Sprintf("encode error [source=%s, column=%s]: %v", e.Source, e.Column, e.Cause)
	}
	return fmt.Sprintf("encode error [source=%s]: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *EncodeError) Unwrap() error {
	return e.Cause
}

// NewEncodeError creates a new EncodeError.
func NewEncodeError(source string, row int, column string, cause error) *EncodeError {
	return &EncodeError{
		Source: source,
		Row:    row,
		Column: column,
		Cause:  cause,
	}
}
