package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no definition has the requested name.
	ErrNotFound = errors.New("export definition not found")

	// ErrDuplicateName is returned when two definitions share a name,
	// ignoring case.
	ErrDuplicateName = errors.New("duplicate export name")
)

// LoadError represents a failure to read a catalog file.
type LoadError struct {
	// FilePath is the path to the file that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load catalog %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load catalog %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError represents a YAML syntax or structure error in a catalog.
type ParseError struct {
	// FilePath is the catalog path, empty for in-memory data
	FilePath string

	// Cause is the underlying parser error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.FilePath == "" {
		return fmt.Sprintf("catalog parse error: %v", e.Cause)
	}
	return fmt.Sprintf("parse error in %q: %v", e.FilePath, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// DefinitionError reports an invalid export definition.
type DefinitionError struct {
	// Index is the position of the definition in the file
	Index int

	// Name is the definition name, if it has one
	Name string

	// Field is the offending field (e.g., "columns", "schedule")
	Field string

	// Message describes the problem
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	subject := fmt.Sprintf("exports[%d]", e.Index)
	if e.Name != "" {
		subject = fmt.Sprintf("export %q", e.Name)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", subject, e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", subject, e.Field, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *DefinitionError) Unwrap() error {
	return e.Cause
}
