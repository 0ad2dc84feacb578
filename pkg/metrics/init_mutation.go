package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initMutationMetrics() {
	r.MutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphir_mutations_total",
			Help: "Structural graph edits by operation",
		},
		[]string{"operation"},
	)
}

func (r *Registry) initDumpMetrics() {
	r.DumpsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphir_dumps_total",
			Help: "Diagnostic graph dumps written",
		},
		[]string{"status"},
	)

	r.DumpSizeBytes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphir_dump_size_bytes",
			Help:    "Compressed size of diagnostic dumps in bytes",
			Buckets: prometheus.ExponentialBuckets(512, 4, 8),
		},
	)
}
