// Package sqlsource runs export queries against SQLite and returns the
// results as tabular.Table values.
//
// Two drivers are supported: "sqlite" (modernc.org/sqlite, pure Go) and
// "sqlite3" (github.com/mattn/go-sqlite3, requires cgo).
package sqlsource
