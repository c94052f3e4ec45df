package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"mercator-hq/tabular/pkg/config"
	"mercator-hq/tabular/pkg/telemetry/health"
	"mercator-hq/tabular/pkg/telemetry/logging"
	"mercator-hq/tabular/pkg/telemetry/metrics"
)

// Telemetry bundles the logger, metrics collector and health checker of a
// running server.
type Telemetry struct {
	config  *config.TelemetryConfig
	logger  *logging.Logger
	metrics *metrics.Collector
	health  *health.Checker

	version   string
	commit    string
	buildTime string
}

// New builds telemetry from cfg. The version fields are reported by the
// /version endpoint.
func New(cfg *config.TelemetryConfig, version, commit, buildTime string) (*Telemetry, error) {
	logger, err := logging.New(logging.FromConfig(cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &Telemetry{
		config:    cfg,
		logger:    logger,
		metrics:   metrics.NewCollector(&cfg.Metrics, nil),
		health:    health.New(5 * time.Second),
		version:   version,
		commit:    commit,
		buildTime: buildTime,
	}, nil
}

// Logger returns the structured logger.
func (t *Telemetry) Logger() *logging.Logger {
	return t.logger
}

// Metrics returns the metrics collector.
func (t *Telemetry) Metrics() *metrics.Collector {
	return t.metrics
}

// Health returns the health checker.
func (t *Telemetry) Health() *health.Checker {
	return t.health
}

// MetricsHandler returns the metrics endpoint handler and its path, or a
// nil handler when metrics are disabled.
func (t *Telemetry) MetricsHandler() (http.Handler, string) {
	if !t.config.Metrics.Enabled {
		return nil, ""
	}
	return t.metrics.Handler(), t.config.Metrics.Path
}

// RegisterHealth mounts /healthz, /readyz and /version on mux.
func (t *Telemetry) RegisterHealth(mux *http.ServeMux) {
	health.Register(mux, t.health, t.version, t.commit, t.buildTime)
}
