// Package catalog loads named export definitions from YAML.
//
// A catalog file lists exports, each a query plus the mapping that turns
// its result into CSV:
//
//	exports:
//	  - name: customers
//	    description: Active customers
//	    query: SELECT id, name, email FROM customers WHERE active = 1
//	    columns:
//	      - id=ID
//	      - source: name
//	        heading: Customer Name
//	      - email
//	    encoding: windows-1252
//	  - name: orders-nightly
//	    query: SELECT * FROM orders
//	    columns: id=Order,total=Total
//	    schedule: "0 2 * * *"
//	    output: orders.csv
//
// Names are matched without regard to case. A Store keeps the active
// catalog and a Watcher reloads it when the file changes.
package catalog
