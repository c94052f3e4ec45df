// Package config loads and validates tabular configuration.
//
// Configuration is read from a YAML file, completed with defaults and then
// overridden by TABULAR_SECTION_FIELD environment variables:
//
//	source:
//	  driver: sqlite
//	  dsn: data/shop.db
//	export:
//	  catalog_path: ./exports.yaml
//	  encoding: windows-1252
//	  line_ending: crlf
//	server:
//	  listen_address: 127.0.0.1:8080
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//
// Validate collects every invalid field into a single ValidationError.
package config
