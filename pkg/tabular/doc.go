// Package tabular encodes record sequences as CSV using a declarative column
// mapping.
//
// # Column Mapping
//
// A Mapping lists, in output order, which source field becomes which column
// and under what heading:
//
//	m := tabular.MustMapping(
//	    tabular.Column{Source: "Id", Heading: "ID"},
//	    tabular.Column{Source: "Name"},
//	)
//
// The compact form "Id=ID,Name" is accepted by ParseMapping.
//
// # Sources
//
// EncodeObjects reads plain values: structs (by exported field name or
// `tabular` tag), maps with string keys, or any Record implementation. The
// field layout is discovered once from the first record and every record
// must share its type.
//
// EncodeRelationalRows reads a RowSet such as a Table built by ScanRows from
// a database/sql result. Mapped columns must exist in the result set and
// are matched case-insensitively; nulls are written as empty values.
//
// # Output
//
// Every line is produced by the same positional template, one quoted
// placeholder per column:
//
//	"{0}","{1}"
//
// With quote escaping enabled, quote characters inside textual values are
// doubled before substitution. The header line is followed by one line per
// record, in input order:
//
//	r, err := tabular.EncodeObjects(tabular.Objects(users), m, true)
//	// "ID","Name"
//	// "1","A""B"
//
// The whole stream is built in memory and returned as a *bytes.Reader at
// offset 0. Options select the text encoding, line ending, time layout and
// the policy for mapped fields missing on a record.
//
// # Errors
//
// Invalid mappings fail at construction with *MappingError. Encode calls
// fail as a whole with *EncodeError; no partial stream is returned.
package tabular
