package config

import "time"

// Config is the root configuration structure for tabular.
// It contains the relational source, export defaults, HTTP server and
// telemetry sections.
type Config struct {
	// Source contains the database connection used to run export queries.
	Source SourceConfig `yaml:"source"`

	// Export contains the export catalog location and the encoding
	// defaults applied to every export definition.
	Export ExportConfig `yaml:"export"`

	// Server contains HTTP download server configuration.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SourceConfig contains configuration for the relational source.
type SourceConfig struct {
	// Driver is the database/sql driver name.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// DSN is the data source name passed to the driver, usually a file path.
	// Default: "data/tabular.db"
	DSN string `yaml:"dsn"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 2
	MaxIdleConns int `yaml:"max_idle_conns"`

	// BusyTimeout is how long a query waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// QueryTimeout bounds each export query. Zero means no timeout.
	// Default: 30s
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// MaxRows caps the number of rows a single export may materialize.
	// Exports are built in memory, so this bounds memory use.
	// Default: 100000
	MaxRows int `yaml:"max_rows"`
}

// ExportConfig contains export catalog and encoding defaults.
type ExportConfig struct {
	// CatalogPath is the YAML file holding the export definitions.
	// Default: "./exports.yaml"
	CatalogPath string `yaml:"catalog_path"`

	// Watch reloads the catalog when the file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// WatchDebounce is the quiet period before a changed catalog is reloaded.
	// Default: 100ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// QuoteEscaping doubles quote characters in textual values.
	// Definitions may override it.
	// Default: true
	QuoteEscaping *bool `yaml:"quote_escaping"`

	// Encoding is the output text encoding (WHATWG label, or "utf-8-bom").
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`

	// LineEnding terminates every line.
	// Options: "lf", "crlf"
	// Default: "lf"
	LineEnding string `yaml:"line_ending"`

	// MissingFields decides how a mapped field absent on a record is written.
	// Options: "empty", "skip"
	// Default: "empty"
	MissingFields string `yaml:"missing_fields"`

	// TimeLayout formats date/time values.
	// Default: RFC 3339
	TimeLayout string `yaml:"time_layout"`

	// OutputDir is where scheduled exports with a relative output path are written.
	// Default: "data/exports"
	OutputDir string `yaml:"output_dir"`

	// Schedule enables cron scheduled exports when serving.
	// Default: false
	Schedule bool `yaml:"schedule"`
}

// QuoteEscapingEnabled reports the effective quote escaping default.
func (c *ExportConfig) QuoteEscapingEnabled() bool {
	if c.QuoteEscaping == nil {
		return DefaultExportQuoteEscaping
	}
	return *c.QuoteEscaping
}

// ServerConfig contains configuration for the HTTP download server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response,
	// including running the export query.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "tabular"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: ""
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for export duration (seconds).
	// Default: [0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}
