package algorithms

import (
	"github.com/dd0wney/cluso-graphir/pkg/ir"
	"github.com/dd0wney/cluso-graphir/pkg/logging"
	"github.com/dd0wney/cluso-graphir/pkg/pools"
)

var (
	nodeIndexPool = pools.NewMapPool[*ir.Node, int]()
	nodeSlicePool = pools.NewSlicePool[*ir.Node]()
)

// kahn orders nodes by repeatedly emitting a ready node and releasing its
// successors, data edges before control edges. The returned order is short
// of len(nodes) when a cycle blocks the frontier.
func kahn(nodes []*ir.Node, ready readySet, declared []*ir.Node) []*ir.Node {
	index := nodeIndexPool.Get()
	defer nodeIndexPool.Put(index)
	pending := pools.GetInts(len(nodes))
	defer pools.PutInts(pending)

	seeds := nodeSlicePool.Get(len(nodes))
	for i, n := range nodes {
		index[n] = i
		pending[i] = inDegree(n)
		if pending[i] == 0 {
			seeds = append(seeds, n)
		}
	}
	ready.seed(orderSeeds(seeds, declared))
	nodeSlicePool.Put(seeds)

	order := make([]*ir.Node, 0, len(nodes))
	batch := nodeSlicePool.Get(pools.SmallSize)
	release := func(c *ir.Node) {
		i, ok := index[c]
		if !ok {
			return
		}
		pending[i]--
		if pending[i] == 0 {
			batch = append(batch, c)
		}
	}

	for ready.len() > 0 {
		n := ready.pop()
		order = append(order, n)

		batch = batch[:0]
		forEachDataConsumer(n, release)
		ready.pushBatch(batch)

		batch = batch[:0]
		forEachControlConsumer(n, release)
		ready.pushBatch(batch)
	}
	nodeSlicePool.Put(batch)
	return order
}

// orderSeeds rewrites the seed positions held by declared inputs so those
// inputs appear in declared order. Other seeds keep their list position.
func orderSeeds(seeds, declared []*ir.Node) []*ir.Node {
	if len(declared) == 0 {
		return seeds
	}
	isSeed := make(map[*ir.Node]bool, len(seeds))
	for _, n := range seeds {
		isSeed[n] = true
	}
	isDeclared := make(map[*ir.Node]bool, len(declared))
	present := make([]*ir.Node, 0, len(declared))
	for _, n := range declared {
		if isSeed[n] && !isDeclared[n] {
			present = append(present, n)
		}
		isDeclared[n] = true
	}

	k := 0
	for i, n := range seeds {
		if isDeclared[n] {
			seeds[i] = present[k]
			k++
		}
	}
	return seeds
}

const (
	notWalked = iota
	walking
	walked
)

// reverseDFS walks backwards from every sink in list order and emits nodes
// in post-order, so each node follows all of its predecessors. ok is false
// when the walk re-enters a node it is still expanding or leaves nodes
// unreached.
func reverseDFS(nodes []*ir.Node) (order []*ir.Node, ok bool) {
	status := make(map[*ir.Node]int, len(nodes))
	order = make([]*ir.Node, 0, len(nodes))

	var walk func(n *ir.Node) bool
	walk = func(n *ir.Node) bool {
		switch status[n] {
		case walked:
			return true
		case walking:
			return false
		}
		status[n] = walking

		preds := uniqueProducers(n)
		byOutputBytesDesc(preds)
		for _, p := range preds {
			if !walk(p) {
				return false
			}
		}

		status[n] = walked
		order = append(order, n)
		return true
	}

	for _, n := range nodes {
		if hasConsumers(n) {
			continue
		}
		if !walk(n) {
			return order, false
		}
	}
	return order, len(order) == len(nodes)
}

// uniqueProducers returns the ordering predecessors of n, data first, each once.
func uniqueProducers(n *ir.Node) []*ir.Node {
	var out []*ir.Node
	seen := make(map[*ir.Node]struct{})
	for _, p := range append(dataProducers(n), controlProducers(n)...) {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// newReadySet returns the frontier for a Kahn traversal.
func newReadySet(opts Options) readySet {
	switch {
	case opts.MemoryPriority:
		return newMemoryPriority()
	case opts.Strategy == DFS:
		return &lifo{reverse: opts.Reverse}
	default:
		return &fifo{}
	}
}

// plan computes the order of the direct nodes of g without touching g.
// delayed is the number of chains the delay pass moved.
func plan(g *ir.Graph, opts Options, declared []*ir.Node, logger logging.Logger) (order []*ir.Node, delayed int, cerr *CycleError) {
	nodes := g.DirectNodes()

	switch opts.Strategy {
	case RDFS:
		if opts.Reverse {
			logger.Debug("reverse flag has no effect on rdfs", logging.Graph(g.Name()))
		}
		var ok bool
		if order, ok = reverseDFS(nodes); !ok {
			return nil, 0, newCycleError(g, opts.Strategy, nodes)
		}
	default:
		order = kahn(nodes, newReadySet(opts), declared)
		if len(order) != len(nodes) {
			return nil, 0, newCycleError(g, opts.Strategy, nodes)
		}
	}

	if opts.Strategy != DFS || opts.MemoryPriority {
		order, delayed = delayChains(order, longLivedIn(g, declared))
	}
	return order, delayed, nil
}

// newCycleError reports the Kahn residual of nodes and the cycles inside it.
func newCycleError(g *ir.Graph, strategy Strategy, nodes []*ir.Node) *CycleError {
	visited := make(map[*ir.Node]bool, len(nodes))
	for _, n := range kahn(nodes, &fifo{}, nil) {
		visited[n] = true
	}

	e := &CycleError{Graph: g.Name(), Strategy: strategy}
	var residual []*ir.Node
	for _, n := range nodes {
		if !visited[n] {
			residual = append(residual, n)
			e.Unvisited = append(e.Unvisited, n.Name())
		}
	}
	for _, c := range detectCycles(residual, func(n *ir.Node) bool { return !visited[n] }) {
		e.Cycles = append(e.Cycles, c.Names())
	}
	return e
}

// declaredInputs resolves the declared graph-input order for g: names when
// given, otherwise the graph's recorded input nodes.
func declaredInputs(g *ir.Graph, names []string, logger logging.Logger) []*ir.Node {
	if len(names) == 0 {
		return g.InputNodes()
	}
	nodes := make([]*ir.Node, 0, len(names))
	for _, name := range names {
		n := g.FindNode(name)
		if n == nil {
			logger.Debug("declared input not in graph", logging.Graph(g.Name()), logging.Node(name))
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// longLivedIn reports whether a node's value lives for the whole execution
// of g: constants, variables, input placeholders and declared inputs.
func longLivedIn(g *ir.Graph, declared []*ir.Node) func(*ir.Node) bool {
	inputs := make(map[*ir.Node]bool)
	for _, n := range declared {
		inputs[n] = true
	}
	for _, n := range g.InputNodes() {
		inputs[n] = true
	}
	return func(n *ir.Node) bool {
		return inputs[n] || ir.IsLongLivedType(n.Type())
	}
}
