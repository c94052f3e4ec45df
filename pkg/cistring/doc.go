// Package cistring provides a case-insensitive string value.
//
// A *String wraps a text value and compares it using a culture-invariant,
// case-insensitive collation. A nil *String is a valid value: it equals
// another nil and orders before every non-nil value.
//
//	a := cistring.New("SomeValue")
//	b := cistring.New("somevalue")
//	a.Equal(b)          // true
//	a.Contains("somev") // true
//	a.Contains("")      // false
//
// Use Key when a case-insensitive map key is needed:
//
//	index := map[string]int{}
//	index[cistring.New("Name").Key()] = 0
package cistring
