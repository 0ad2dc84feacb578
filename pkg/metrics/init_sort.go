package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSortMetrics() {
	r.SortsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphir_sorts_total",
			Help: "Total number of topological sorts by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	r.SortDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphir_sort_duration_seconds",
			Help:    "Topological sort duration in seconds, subgraphs included",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"strategy"},
	)

	r.SortedNodes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphir_sorted_nodes",
			Help:    "Number of nodes ordered per sort, subgraphs included",
			Buckets: []float64{10, 100, 1000, 10000, 100000},
		},
		[]string{"strategy"},
	)

	r.SortUnvisitedNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphir_sort_unvisited_nodes",
			Help:    "Number of nodes left unordered by a failed sort",
			Buckets: []float64{1, 2, 5, 10, 100, 1000},
		},
	)

	r.SubgraphMismatches = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphir_subgraph_count_mismatches_total",
			Help: "Sorts whose rediscovered subgraph count differed from the recorded list",
		},
	)

	r.DelayedChainsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphir_delayed_chains_total",
			Help: "Single-consumer chains moved later by delay scheduling",
		},
	)

	r.GraphsSortedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphir_graphs_sorted_total",
			Help: "Graphs and subgraphs that received a committed order",
		},
	)
}
