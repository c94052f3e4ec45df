// Package metrics provides Prometheus metrics for tabular.
//
// # Metrics
//
//   - tabular_exports_total{source,status}: encode calls
//   - tabular_export_duration_seconds{source}: encode duration
//   - tabular_export_rows_total{source}: data rows written
//   - tabular_export_bytes{source}: stream sizes
//   - tabular_export_runs_total{export,trigger,status}: catalog export runs
//   - tabular_export_run_duration_seconds{export}: run duration including the query
//   - tabular_export_last_success_timestamp_seconds{export}
//   - tabular_catalog_reloads_total{status}, tabular_catalog_definitions
//
// The source label is the encoder input kind ("objects" or "relational").
// Export names are capped by a CardinalityLimiter; names past the cap are
// recorded as "other".
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	enc := tabular.NewEncoder(tabular.WithObserver(collector))
//	mux.Handle("/metrics", collector.Handler())
//
// A disabled collector accepts every call and records nothing.
package metrics
