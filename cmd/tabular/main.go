// Tabular exports query results and record sets as mapped CSV.
//
// Usage:
//
//	# Export a catalog definition to stdout
//	tabular export customers
//
//	# Export to a file with a different text encoding
//	tabular export customers -o customers.csv --encoding windows-1252
//
//	# Export an inline query
//	tabular export --query "SELECT id, name FROM customers" --columns "id=ID,name=Name"
//
//	# List catalog definitions
//	tabular catalog list --format csv
//
//	# Serve downloads, metrics and scheduled exports
//	tabular serve --config tabular.yaml
package main

func main() {
	Execute()
}
