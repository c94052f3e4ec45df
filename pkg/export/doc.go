// Package export runs catalog export definitions.
//
// A Service resolves a definition, queries the relational source and
// encodes the rows into CSV. Handler exposes the catalog over HTTP and
// Scheduler writes scheduled exports to disk.
package export
