package metrics

import (
	"time"

	"mercator-hq/tabular/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ExportMetrics tracks runs of catalog export definitions.
type ExportMetrics struct {
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

// NewExportMetrics creates and registers export run metrics.
func NewExportMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ExportMetrics {
	xm := &ExportMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "export_runs_total",
				Help:      "Total number of export definition runs",
			},
			[]string{"export", "trigger", "status"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "export_run_duration_seconds",
				Help:      "Duration of export runs including the query, in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"export"},
		),

		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "export_last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run of each export",
			},
			[]string{"export"},
		),
	}

	registry.MustRegister(
		xm.runsTotal,
		xm.runDuration,
		xm.lastSuccess,
	)

	return xm
}

// Record records one export run.
func (xm *ExportMetrics) Record(export, trigger, status string, duration time.Duration) {
	xm.runsTotal.WithLabelValues(export, trigger, status).Inc()
	xm.runDuration.WithLabelValues(export).Observe(duration.Seconds())
	if status == StatusSuccess {
		xm.lastSuccess.WithLabelValues(export).SetToCurrentTime()
	}
}

// CatalogMetrics tracks export catalog reloads.
type CatalogMetrics struct {
	reloadsTotal *prometheus.CounterVec
	definitions  prometheus.Gauge
}

// NewCatalogMetrics creates and registers catalog metrics.
func NewCatalogMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CatalogMetrics {
	cm := &CatalogMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "catalog_reloads_total",
				Help:      "Total number of export catalog loads",
			},
			[]string{"status"},
		),

		definitions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "catalog_definitions",
				Help:      "Number of export definitions in the active catalog",
			},
		),
	}

	registry.MustRegister(cm.reloadsTotal, cm.definitions)

	return cm
}

// Record records a catalog load. The definition gauge keeps its previous
// value when the load failed.
func (cm *CatalogMetrics) Record(definitions int, err error) {
	s := status(err)
	cm.reloadsTotal.WithLabelValues(s).Inc()
	if s == StatusSuccess {
		cm.definitions.Set(float64(definitions))
	}
}
