package metrics

import (
	"sync"
	"time"

	"mercator-hq/tabular/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// OverflowLabel replaces export names once the cardinality limit is reached.
const OverflowLabel = "other"

// Collector owns every Prometheus metric tabular exposes. It implements
// tabular.Observer so an Encoder can report to it directly.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	encodeMetrics  *EncodeMetrics
	exportMetrics  *ExportMetrics
	catalogMetrics *CatalogMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector registering its metrics on registry. A
// nil registry gets a fresh one.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "tabular"}
//	collector := metrics.NewCollector(cfg, nil)
//	enc := tabular.NewEncoder(tabular.WithObserver(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		encodeMetrics:      NewEncodeMetrics(cfg, registry),
		exportMetrics:      NewExportMetrics(cfg, registry),
		catalogMetrics:     NewCatalogMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

// ObserveEncode records the outcome of one encode call.
func (c *Collector) ObserveEncode(source string, rows, size int, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}
	c.encodeMetrics.Record(source, status(err), rows, size, duration)
}

// RecordExport records a completed export run.
//
// Parameters:
//   - export: definition name, or "adhoc" for inline queries
//   - trigger: "cli", "http" or "schedule"
//   - duration: query plus encode time
//   - err: nil on success
func (c *Collector) RecordExport(export, trigger string, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinalityLimiter.Allow(export) {
		export = OverflowLabel
	}
	c.exportMetrics.Record(export, trigger, status(err), duration)
}

// RecordCatalogReload records a catalog load attempt and, on success, the
// number of definitions it holds.
func (c *Collector) RecordCatalogReload(definitions int, err error) {
	if !c.config.Enabled {
		return
	}
	c.catalogMetrics.Record(definitions, err)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// CardinalityLimiter caps the number of distinct label values a metric
// may carry.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter allowing maxCardinality values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already tracked or can still be added.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
