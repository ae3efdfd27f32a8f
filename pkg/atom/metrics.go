package atom

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the optional Prometheus instrumentation of a
// store.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "atomo").
	Namespace string

	// Subsystem is the metrics subsystem (default: "store").
	Subsystem string

	// ConstLabels are constant labels added to all metrics. Use these to
	// distinguish stores when instrumenting more than one scope.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for propagation duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus instrumentation.
type MetricsOption func(*MetricsConfig)

// WithMetricsNamespace sets the metrics namespace.
func WithMetricsNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) { c.Namespace = namespace }
}

// WithMetricsSubsystem sets the metrics subsystem.
func WithMetricsSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) { c.Subsystem = subsystem }
}

// WithMetricsConstLabels sets constant labels for all metrics.
func WithMetricsConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) { c.ConstLabels = labels }
}

// WithMetricsBuckets sets the propagation duration histogram buckets.
func WithMetricsBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) { c.Buckets = buckets }
}

// WithMetricsRegistry sets the Prometheus registry.
func WithMetricsRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) { c.Registry = registry }
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "atomo",
		Subsystem: "store",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// WithMetrics enables Prometheus instrumentation on the store.
//
// Metrics collected:
//   - atomo_store_reads_total: Counter of reads by result
//   - atomo_store_writes_total: Counter of writes by status
//   - atomo_store_propagation_duration_seconds: Histogram of write passes
//   - atomo_store_recomputed_atoms: Histogram of recomputations per pass
//   - atomo_store_async_discards_total: Counter of stale async resolutions
//   - atomo_store_atoms: Gauge of live graph entries
//   - atomo_store_mounted_atoms: Gauge of mounted atoms
func WithMetrics(opts ...MetricsOption) StoreOption {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return func(s *Store) {
		s.metrics = initStoreMetrics(config)
		// Entries seeded by options applied before this one predate the
		// gauge; count them so option order does not skew it.
		s.metrics.atoms.Set(float64(len(s.states)))
	}
}

// storeMetrics holds the Prometheus collectors for one store.
type storeMetrics struct {
	reads               *prometheus.CounterVec
	writes              *prometheus.CounterVec
	propagationDuration prometheus.Histogram
	recomputedAtoms     prometheus.Histogram
	asyncDiscards       prometheus.Counter
	atoms               prometheus.Gauge
	mounted             prometheus.Gauge
}

func initStoreMetrics(config MetricsConfig) *storeMetrics {
	factory := promauto.With(config.Registry)

	return &storeMetrics{
		reads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reads_total",
			Help:        "Total number of store reads by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_total",
			Help:        "Total number of store writes by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		propagationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "propagation_duration_seconds",
			Help:        "Write-and-propagate pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		recomputedAtoms: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recomputed_atoms",
			Help:        "Atoms recomputed per propagation pass",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),

		asyncDiscards: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "async_discards_total",
			Help:        "Total number of superseded async resolutions discarded",
			ConstLabels: config.ConstLabels,
		}),

		atoms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "atoms",
			Help:        "Number of live atom entries in the store",
			ConstLabels: config.ConstLabels,
		}),

		mounted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mounted_atoms",
			Help:        "Number of mounted atoms in the store",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// recordRead updates the read counter when metrics are enabled.
func (s *Store) recordRead(err error) {
	if s.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case errors.Is(err, ErrPending):
		result = "pending"
	case err != nil:
		result = "error"
	}
	s.metrics.reads.WithLabelValues(result).Inc()
}

// recordWrite updates the write counters when metrics are enabled.
func (s *Store) recordWrite(elapsed time.Duration, recomputed int, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.writes.WithLabelValues(status).Inc()
	if err == nil {
		s.metrics.propagationDuration.Observe(elapsed.Seconds())
		s.metrics.recomputedAtoms.Observe(float64(recomputed))
	}
}
