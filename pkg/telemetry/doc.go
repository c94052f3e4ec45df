// Package telemetry wires the observability of the tabular server.
//
// The subpackages can be used on their own:
//
//   - logging: slog-based structured logging with request and export context
//   - metrics: Prometheus metrics for encodes, export runs and catalog reloads
//   - health: liveness, readiness and version endpoints
//
// Telemetry bundles them for the serve command:
//
//	tel, err := telemetry.New(&cfg.Telemetry, version, commit, buildTime)
//	if err != nil {
//		return err
//	}
//	tel.Logger().SetDefault()
//	tel.Health().Register("source", source.Ping)
//	encoder := tabular.NewEncoder(tabular.WithObserver(tel.Metrics()))
package telemetry
