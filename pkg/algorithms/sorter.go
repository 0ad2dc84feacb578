package algorithms

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-graphir/pkg/ir"
	"github.com/dd0wney/cluso-graphir/pkg/logging"
	"github.com/dd0wney/cluso-graphir/pkg/metrics"
)

// DumpSink persists a diagnostic snapshot of a graph under label and returns
// where it was written.
type DumpSink interface {
	Dump(g *ir.Graph, label string) (string, error)
}

// Options selects how a graph is ordered.
type Options struct {
	Strategy Strategy
	// MemoryPriority orders ready nodes by downstream consumer count, then
	// estimated output size, then name.
	MemoryPriority bool
	// Reverse flips the push order of each ready batch under DFS.
	Reverse bool
	// InputOrder names the graph-input nodes of the sorted graph in their
	// declared order. Empty means the graph's recorded input order.
	// Subgraphs always use their recorded input order.
	InputOrder []string
}

// Sorter runs topological sorts over a graph and its subgraphs.
type Sorter struct {
	logger  logging.Logger
	metrics *metrics.Registry
	dump    DumpSink
}

// SorterOption configures a Sorter.
type SorterOption func(*Sorter)

// WithLogger overrides the graph's own logger.
func WithLogger(l logging.Logger) SorterOption {
	return func(s *Sorter) { s.logger = l }
}

// WithMetrics records sort outcomes in r.
func WithMetrics(r *metrics.Registry) SorterOption {
	return func(s *Sorter) { s.metrics = r }
}

// WithDumpSink writes a snapshot of the unsorted graph to d when a sort fails.
func WithDumpSink(d DumpSink) SorterOption {
	return func(s *Sorter) { s.dump = d }
}

// NewSorter creates a Sorter.
func NewSorter(opts ...SorterOption) *Sorter {
	s := &Sorter{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TopologicalSort sorts g and its subgraphs with a default Sorter.
func TopologicalSort(g *ir.Graph, opts Options) error {
	return NewSorter().Sort(g, opts)
}

// Sort orders g and every subgraph beneath it.
//
// Orders are planned for all graphs first and committed only when every
// plan succeeds. On a cycle the offending graph is marked failed, the other
// graphs return to their previous state, no order changes, and a
// *CycleError listing the unvisited nodes is returned.
//
// When g is the root, the recorded subgraph list is rebuilt from the new
// node order. If the rebuilt list does not cover the recorded one the old
// list is kept and a warning is logged.
func (s *Sorter) Sort(g *ir.Graph, opts Options) error {
	if g == nil {
		return fmt.Errorf("topological sort: nil graph: %w", ir.ErrInvalidArgument)
	}
	switch opts.Strategy {
	case BFS, DFS, RDFS:
	default:
		return fmt.Errorf("topological sort: %s: %w", opts.Strategy, ir.ErrInvalidArgument)
	}

	logger := s.loggerFor(g)
	timer := logging.StartTimer(logger, "topological sort",
		logging.Graph(g.Name()),
		logging.Strategy(opts.Strategy.String()),
		logging.Bool("memory_priority", opts.MemoryPriority))

	graphs := sortTree(g)
	for i, sg := range graphs {
		if err := sg.BeginSort(); err != nil {
			cancelSort(graphs[:i])
			s.recordSort(opts.Strategy, metrics.OutcomeError, timer.EndError(err), 0)
			return err
		}
	}

	plans := make([][]*ir.Node, len(graphs))
	total, delayed := 0, 0
	for i, sg := range graphs {
		names := opts.InputOrder
		if sg != g {
			names = nil
		}
		order, d, cerr := plan(sg, opts, declaredInputs(sg, names, logger), logger)
		if cerr != nil {
			sg.AbortSort()
			for _, other := range graphs {
				if other != sg {
					other.CancelSort()
				}
			}
			return s.fail(g, cerr, timer, logger)
		}
		plans[i] = order
		total += len(order)
		delayed += d
	}

	for i, sg := range graphs {
		if err := sg.CommitOrder(plans[i]); err != nil {
			cancelSort(graphs[i:])
			s.recordSort(opts.Strategy, metrics.OutcomeError, timer.EndError(err), 0)
			return err
		}
	}

	if g.Root() == g {
		s.reorderSubgraphs(g, logger)
	}

	elapsed := timer.End(logging.Count(total), logging.Int("graphs", len(graphs)), logging.Int("delayed_chains", delayed))
	s.recordSort(opts.Strategy, metrics.OutcomeSuccess, elapsed, total)
	if s.metrics != nil {
		s.metrics.RecordGraphsSorted(len(graphs))
		s.metrics.RecordDelayedChains(delayed)
	}
	return nil
}

func (s *Sorter) loggerFor(g *ir.Graph) logging.Logger {
	if s.logger != nil {
		return s.logger
	}
	return g.Logger()
}

func (s *Sorter) recordSort(strategy Strategy, outcome string, d time.Duration, nodes int) {
	if s.metrics != nil {
		s.metrics.RecordSort(strategy.String(), outcome, d, nodes)
	}
}

func (s *Sorter) fail(g *ir.Graph, cerr *CycleError, timer *logging.TimedOperation, logger logging.Logger) error {
	elapsed := timer.EndError(cerr,
		logging.String("failed_graph", cerr.Graph),
		logging.Strings("unvisited", cerr.Unvisited))
	s.recordSort(cerr.Strategy, metrics.OutcomeCycle, elapsed, 0)
	if s.metrics != nil {
		s.metrics.RecordUnvisited(len(cerr.Unvisited))
	}

	if s.dump != nil {
		path, err := s.dump.Dump(g, "topo_sort_failed_"+g.Name())
		if err != nil {
			logger.Warn("diagnostic dump failed", logging.Graph(g.Name()), logging.Error(err))
		} else {
			logger.Info("diagnostic dump written", logging.Graph(g.Name()), logging.Path(path))
		}
	}
	return cerr
}

// reorderSubgraphs rebuilds the root's subgraph list by walking the sorted
// nodes in pre-order, descending into each owned subgraph as it is reached.
func (s *Sorter) reorderSubgraphs(root *ir.Graph, logger logging.Logger) {
	recorded := root.RecordedSubgraphNames()
	if len(recorded) == 0 {
		return
	}

	var found []string
	seen := make(map[string]bool)
	var walk func(g *ir.Graph)
	walk = func(g *ir.Graph) {
		for n := range g.Nodes() {
			for _, name := range n.SubgraphInstanceNames() {
				if seen[name] {
					continue
				}
				sg := root.GetSubgraph(name)
				if sg == nil {
					continue
				}
				seen[name] = true
				found = append(found, name)
				walk(sg)
			}
		}
	}
	walk(root)

	if len(found) == len(recorded) && root.ReorderSubgraphs(found) {
		return
	}
	logger.Warn("subgraph count changed during sort, keeping recorded order",
		logging.Graph(root.Name()),
		logging.Int("recorded", len(recorded)),
		logging.Int("discovered", len(found)))
	if s.metrics != nil {
		s.metrics.RecordSubgraphMismatch()
	}
}

// sortTree returns g followed by its subgraphs in pre-order.
func sortTree(g *ir.Graph) []*ir.Graph {
	graphs := []*ir.Graph{g}
	for _, sg := range g.Subgraphs() {
		graphs = append(graphs, sortTree(sg)...)
	}
	return graphs
}

func cancelSort(graphs []*ir.Graph) {
	for _, g := range graphs {
		g.CancelSort()
	}
}
