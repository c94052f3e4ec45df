package tabular

import "strings"

// DuplicateQuotes doubles every double-quote character in s.
func DuplicateQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
