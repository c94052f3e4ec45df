package metrics

import (
	"time"

	"mercator-hq/tabular/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EncodeMetrics tracks encoder calls.
//
// Metrics:
//   - tabular_exports_total: encode calls by source kind and status
//   - tabular_export_duration_seconds: encode duration histogram
//   - tabular_export_rows_total: data rows written
//   - tabular_export_bytes: size of produced streams
type EncodeMetrics struct {
	exportsTotal   *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	rowsTotal      *prometheus.CounterVec
	sizeBytes      *prometheus.HistogramVec
}

// NewEncodeMetrics creates and registers encoder metrics.
func NewEncodeMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EncodeMetrics {
	em := &EncodeMetrics{
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "exports_total",
				Help:      "Total number of CSV encode calls",
			},
			[]string{"source", "status"},
		),

		exportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "export_duration_seconds",
				Help:      "Duration of CSV encode calls in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"source"},
		),

		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "export_rows_total",
				Help:      "Total number of data rows written",
			},
			[]string{"source"},
		),

		sizeBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "export_bytes",
				Help:      "Size of produced CSV streams in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to 256MB
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(
		em.exportsTotal,
		em.exportDuration,
		em.rowsTotal,
		em.sizeBytes,
	)

	return em
}

// Record records one encode call. Row and size figures are only recorded
// for successful calls.
func (em *EncodeMetrics) Record(source, status string, rows, size int, duration time.Duration) {
	em.exportsTotal.WithLabelValues(source, status).Inc()
	em.exportDuration.WithLabelValues(source).Observe(duration.Seconds())

	if status != StatusSuccess {
		return
	}
	if rows > 0 {
		em.rowsTotal.WithLabelValues(source).Add(float64(rows))
	}
	em.sizeBytes.WithLabelValues(source).Observe(float64(size))
}
