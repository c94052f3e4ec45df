package config

import (
	"fmt"
	"strings"

	"mercator-hq/tabular/pkg/tabular"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "source.dsn").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateSource(&cfg.Source)...)
	errs = append(errs, validateExport(&cfg.Export)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// SupportedDrivers lists the database/sql driver names the source accepts.
var SupportedDrivers = []string{"sqlite", "sqlite3"}

func validateSource(cfg *SourceConfig) []FieldError {
	var errs []FieldError

	if !contains(SupportedDrivers, cfg.Driver) {
		errs = append(errs, FieldError{
			Field:   "source.driver",
			Message: fmt.Sprintf("unsupported driver %q: must be one of %s", cfg.Driver, strings.Join(SupportedDrivers, ", ")),
		})
	}
	if cfg.DSN == "" {
		errs = append(errs, FieldError{
			Field:   "source.dsn",
			Message: "data source name is required",
		})
	}
	if cfg.MaxOpenConns < 0 {
		errs = append(errs, FieldError{
			Field:   "source.max_open_conns",
			Message: "max open connections must be non-negative",
		})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "source.max_idle_conns",
			Message: "max idle connections must be non-negative",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "source.busy_timeout",
			Message: "busy timeout must be positive",
		})
	}
	if cfg.QueryTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "source.query_timeout",
			Message: "query timeout must be positive",
		})
	}
	if cfg.MaxRows < 0 {
		errs = append(errs, FieldError{
			Field:   "source.max_rows",
			Message: "max rows must be non-negative",
		})
	}

	return errs
}

func validateExport(cfg *ExportConfig) []FieldError {
	var errs []FieldError

	if cfg.Watch && cfg.CatalogPath == "" {
		errs = append(errs, FieldError{
			Field:   "export.catalog_path",
			Message: "catalog path is required when watch is enabled",
		})
	}
	if cfg.WatchDebounce < 0 {
		errs = append(errs, FieldError{
			Field:   "export.watch_debounce",
			Message: "watch debounce must be positive",
		})
	}
	if _, err := tabular.LookupEncoding(cfg.Encoding); err != nil {
		errs = append(errs, FieldError{
			Field:   "export.encoding",
			Message: err.Error(),
		})
	}
	if _, err := LineEnding(cfg.LineEnding); err != nil {
		errs = append(errs, FieldError{
			Field:   "export.line_ending",
			Message: err.Error(),
		})
	}
	if _, ok := tabular.ParseMissingFieldPolicy(cfg.MissingFields); !ok {
		errs = append(errs, FieldError{
			Field:   "export.missing_fields",
			Message: fmt.Sprintf("invalid missing fields policy %q: must be 'empty' or 'skip'", cfg.MissingFields),
		})
	}
	if cfg.Schedule && cfg.OutputDir == "" {
		errs = append(errs, FieldError{
			Field:   "export.output_dir",
			Message: "output directory is required when scheduling is enabled",
		})
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(cfg.Logging.Level)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be one of %s", cfg.Logging.Level, strings.Join(validLevels, ", ")),
		})
	}

	validFormats := []string{"json", "text", "console"}
	if !contains(validFormats, strings.ToLower(cfg.Logging.Format)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be one of %s", cfg.Logging.Format, strings.Join(validFormats, ", ")),
		})
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		for i := 1; i < len(cfg.Metrics.DurationBuckets); i++ {
			if cfg.Metrics.DurationBuckets[i] <= cfg.Metrics.DurationBuckets[i-1] {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.duration_buckets",
					Message: "buckets must be in increasing order",
				})
				break
			}
		}
	}

	return errs
}

// LineEnding maps a configured line ending name to its terminator.
func LineEnding(name string) (string, error) {
	return tabular.ParseLineEnding(name)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
