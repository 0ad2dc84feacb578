package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the graph engine
type Registry struct {
	// Sort Metrics
	SortsTotal         *prometheus.CounterVec
	SortDuration       *prometheus.HistogramVec
	SortedNodes        *prometheus.HistogramVec
	SortUnvisitedNodes prometheus.Histogram
	SubgraphMismatches prometheus.Counter
	DelayedChainsTotal prometheus.Counter
	GraphsSortedTotal  prometheus.Counter

	// Mutation Metrics
	MutationsTotal *prometheus.CounterVec

	// Dump Metrics
	DumpsTotal    *prometheus.CounterVec
	DumpSizeBytes prometheus.Histogram

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initSortMetrics()
	r.initMutationMetrics()
	r.initDumpMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
