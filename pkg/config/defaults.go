package config

import "time"

// Default values for configuration fields.
const (
	// Source defaults
	DefaultSourceDriver       = "sqlite"
	DefaultSourceDSN          = "data/tabular.db"
	DefaultSourceMaxOpenConns = 4
	DefaultSourceMaxIdleConns = 2
	DefaultSourceBusyTimeout  = 5 * time.Second
	DefaultSourceQueryTimeout = 30 * time.Second
	DefaultSourceMaxRows      = 100000

	// Export defaults
	DefaultExportCatalogPath   = "./exports.yaml"
	DefaultExportWatchDebounce = 100 * time.Millisecond
	DefaultExportQuoteEscaping = true
	DefaultExportEncoding      = "utf-8"
	DefaultExportLineEnding    = "lf"
	DefaultExportMissingFields = "empty"
	DefaultExportTimeLayout    = time.RFC3339
	DefaultExportOutputDir     = "data/exports"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "tabular"
)

// DefaultDurationBuckets are the export duration histogram buckets in seconds.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

// ApplyDefaults fills every unset field of cfg with its default value.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Source defaults
	if cfg.Source.Driver == "" {
		cfg.Source.Driver = DefaultSourceDriver
	}
	if cfg.Source.DSN == "" {
		cfg.Source.DSN = DefaultSourceDSN
	}
	if cfg.Source.MaxOpenConns == 0 {
		cfg.Source.MaxOpenConns = DefaultSourceMaxOpenConns
	}
	if cfg.Source.MaxIdleConns == 0 {
		cfg.Source.MaxIdleConns = DefaultSourceMaxIdleConns
	}
	if cfg.Source.BusyTimeout == 0 {
		cfg.Source.BusyTimeout = DefaultSourceBusyTimeout
	}
	if cfg.Source.QueryTimeout == 0 {
		cfg.Source.QueryTimeout = DefaultSourceQueryTimeout
	}
	if cfg.Source.MaxRows == 0 {
		cfg.Source.MaxRows = DefaultSourceMaxRows
	}

	// Export defaults
	if cfg.Export.CatalogPath == "" {
		cfg.Export.CatalogPath = DefaultExportCatalogPath
	}
	if cfg.Export.WatchDebounce == 0 {
		cfg.Export.WatchDebounce = DefaultExportWatchDebounce
	}
	if cfg.Export.QuoteEscaping == nil {
		enabled := DefaultExportQuoteEscaping
		cfg.Export.QuoteEscaping = &enabled
	}
	if cfg.Export.Encoding == "" {
		cfg.Export.Encoding = DefaultExportEncoding
	}
	if cfg.Export.LineEnding == "" {
		cfg.Export.LineEnding = DefaultExportLineEnding
	}
	if cfg.Export.MissingFields == "" {
		cfg.Export.MissingFields = DefaultExportMissingFields
	}
	if cfg.Export.TimeLayout == "" {
		cfg.Export.TimeLayout = DefaultExportTimeLayout
	}
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = DefaultExportOutputDir
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
