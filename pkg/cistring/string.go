package cistring

import (
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// collators caches invariant, case-insensitive collators.
// A collate.Collator keeps per-call buffers and must not be shared.
var collators = sync.Pool{
	New: func() any {
		return collate.New(language.Und, collate.IgnoreCase)
	},
}

// String is a text value with case-insensitive equality and ordering.
type String struct {
	value string
}

// New wraps v.
func New(v string) *String {
	return &String{value: v}
}

// Original returns the wrapped value unchanged. It returns "" for nil.
func (s *String) Original() string {
	if s == nil {
		return ""
	}
	return s.value
}

// String implements fmt.Stringer and returns the wrapped value.
func (s *String) String() string {
	return s.Original()
}

// ToUpper returns the wrapped value in upper case.
func (s *String) ToUpper() string {
	return cases.Upper(language.Und).String(s.Original())
}

// Key returns the collation key of s, suitable as a map key. Two values
// produce the same Key exactly when they are Equal. A nil value has the
// empty key, which no non-nil value produces.
func (s *String) Key() string {
	if s == nil {
		return ""
	}

	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)

	var buf collate.Buffer
	return "\x00" + string(c.KeyFromString(&buf, s.value))
}

// Equal reports whether s and other are equal ignoring case.
func (s *String) Equal(other *String) bool {
	return Compare(s, other) == 0
}

// Compare returns -1, 0 or +1 depending on whether s orders before, equal to
// or after other.
func (s *String) Compare(other *String) int {
	return Compare(s, other)
}

// Contains reports whether term occurs in s, ignoring case.
// An empty term never matches.
func (s *String) Contains(term string) bool {
	if term == "" || s == nil {
		return false
	}
	return strings.Contains(fold(s.value), fold(term))
}

// ContainsString is like Contains but takes a *String. A nil term never matches.
func (s *String) ContainsString(term *String) bool {
	if term == nil {
		return false
	}
	return s.Contains(term.value)
}

// MarshalText implements encoding.TextMarshaler.
func (s *String) MarshalText() ([]byte, error) {
	return []byte(s.Original()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *String) UnmarshalText(text []byte) error {
	s.value = string(text)
	return nil
}

// Equal reports whether a and b are equal ignoring case. Two nils are equal.
func Equal(a, b *String) bool {
	return Compare(a, b) == 0
}

// Compare orders a and b with the invariant case-insensitive collation.
// nil orders before any non-nil value.
func Compare(a, b *String) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)
	return c.CompareString(a.value, b.value)
}

// Sort sorts values in place in ascending case-insensitive order.
func Sort(values []*String) {
	slices.SortStableFunc(values, Compare)
}

func fold(v string) string {
	return cases.Fold().String(v)
}
