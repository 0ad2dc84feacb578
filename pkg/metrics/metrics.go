package metrics

import (
	"runtime"
	"time"
)

// Sort outcomes
const (
	OutcomeSuccess = "success"
	OutcomeCycle   = "cycle"
	OutcomeError   = "error"
)

// RecordSort records one sort call over a graph and its subgraphs
func (r *Registry) RecordSort(strategy, outcome string, duration time.Duration, nodes int) {
	r.SortsTotal.WithLabelValues(strategy, outcome).Inc()
	r.SortDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		r.SortedNodes.WithLabelValues(strategy).Observe(float64(nodes))
	}
}

// RecordUnvisited records the residual size of a failed sort
func (r *Registry) RecordUnvisited(count int) {
	r.SortUnvisitedNodes.Observe(float64(count))
}

// RecordSubgraphMismatch counts a kept subgraph list after a sort
func (r *Registry) RecordSubgraphMismatch() {
	r.SubgraphMismatches.Inc()
}

// RecordDelayedChains counts chains moved by delay scheduling
func (r *Registry) RecordDelayedChains(count int) {
	if count > 0 {
		r.DelayedChainsTotal.Add(float64(count))
	}
}

// RecordGraphsSorted counts graphs that received a committed order
func (r *Registry) RecordGraphsSorted(count int) {
	r.GraphsSortedTotal.Add(float64(count))
}

// ObserveMutation counts a structural edit. It lets a Registry be attached
// to a graph as its mutation observer.
func (r *Registry) ObserveMutation(op string) {
	r.MutationsTotal.WithLabelValues(op).Inc()
}

// RecordDump records a diagnostic dump attempt
func (r *Registry) RecordDump(err error, size int) {
	if err != nil {
		r.DumpsTotal.WithLabelValues("error").Inc()
		return
	}
	r.DumpsTotal.WithLabelValues("success").Inc()
	r.DumpSizeBytes.Observe(float64(size))
}

// UpdateSystemMetrics refreshes process gauges
func (r *Registry) UpdateSystemMetrics(start time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(start).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}
