package ir

import (
	"slices"

	"github.com/dd0wney/cluso-graphir/pkg/logging"
)

// SortState tracks a graph through the topological sort lifecycle.
type SortState uint8

const (
	SortUnsorted SortState = iota
	SortSorting
	SortSorted
	SortFailed
)

func (s SortState) String() string {
	switch s {
	case SortUnsorted:
		return "unsorted"
	case SortSorting:
		return "sorting"
	case SortSorted:
		return "sorted"
	case SortFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// OutputRef designates one data output of a node as a graph output.
type OutputRef struct {
	Node  *Node
	Index int
}

// Graph is an ordered container of nodes plus input/output bookkeeping and
// named child subgraphs.
//
// A Graph is not safe for concurrent use. Passes run sequentially over one
// instance; independent graphs may be processed on separate goroutines.
type Graph struct {
	name    string
	nodes   []*Node
	byName  map[string]*Node
	inputs  []*Node
	outputs []OutputRef

	// subgraphs owns the direct children, subgraphOrder keeps insertion order.
	subgraphs     map[string]*Graph
	subgraphOrder []string

	arena      *arena
	handle     Handle
	parent     parentRef
	parentNode *Node

	state     SortState
	prevState SortState
	logger    logging.Logger
	observer  MutationObserver
}

// MutationObserver is notified after each successful structural edit.
type MutationObserver interface {
	ObserveMutation(op string)
}

// NewGraph creates an empty root graph.
func NewGraph(name string) *Graph {
	g := &Graph{
		name:      name,
		byName:    make(map[string]*Node),
		subgraphs: make(map[string]*Graph),
		arena:     newArena(),
	}
	g.handle = g.arena.register(g)
	return g
}

func (g *Graph) Name() string { return g.name }

// NodeCount returns the number of directly owned nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// DirectNodes returns the directly owned nodes in their current order.
func (g *Graph) DirectNodes() []*Node { return slices.Clone(g.nodes) }

// FindNode returns the directly owned node called name, or nil.
func (g *Graph) FindNode(name string) *Node { return g.byName[name] }

// SortState returns where the graph is in the sort lifecycle.
func (g *Graph) SortState() SortState { return g.state }

// IsValid reports whether the current node order is a committed topological
// order that no mutation has invalidated since.
func (g *Graph) IsValid() bool { return g.state == SortSorted }

// SetLogger attaches a logger; child graphs without their own inherit it.
func (g *Graph) SetLogger(l logging.Logger) { g.logger = l }

// Logger returns the graph's logger, falling back to the parent chain and
// finally to a no-op logger.
func (g *Graph) Logger() logging.Logger {
	for cur := g; cur != nil; {
		if cur.logger != nil {
			return cur.logger
		}
		p, ok := cur.ParentGraph()
		if !ok {
			break
		}
		cur = p
	}
	return logging.NewNopLogger()
}

// SetObserver attaches a mutation observer; child graphs without their own
// inherit it.
func (g *Graph) SetObserver(o MutationObserver) { g.observer = o }

func (g *Graph) observe(op string) {
	for cur := g; cur != nil; {
		if cur.observer != nil {
			cur.observer.ObserveMutation(op)
			return
		}
		p, ok := cur.ParentGraph()
		if !ok {
			return
		}
		cur = p
	}
}

func (g *Graph) invalidate() {
	if g != nil && g.state != SortSorting {
		g.state = SortUnsorted
	}
}

// AddNode appends n and gives it the position id len(nodes).
func (g *Graph) AddNode(n *Node) (*Node, error) {
	if err := g.checkAddable("AddNode", n); err != nil {
		return nil, err
	}
	n.id = int64(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.adoptNode(n)
	return n, nil
}

// AddNodeFront prepends n. A leading graph-input node stays first, so n is
// placed at position 1 in that case.
func (g *Graph) AddNodeFront(n *Node) (*Node, error) {
	if err := g.checkAddable("AddNodeFront", n); err != nil {
		return nil, err
	}
	n.id = int64(len(g.nodes))
	pos := 0
	if len(g.nodes) > 0 && g.isInputNode(g.nodes[0]) {
		pos = 1
	}
	g.nodes = slices.Insert(g.nodes, pos, n)
	g.adoptNode(n)
	return n, nil
}

// AddOp creates a node from desc and appends it.
func (g *Graph) AddOp(name string, desc OpDesc) (*Node, error) {
	n, err := NewNode(name, desc)
	if err != nil {
		return nil, err
	}
	return g.AddNode(n)
}

func (g *Graph) checkAddable(op string, n *Node) error {
	if n == nil || n.desc == nil {
		return newError(op).node(n).cause(ErrInvalidArgument)
	}
	if n.graph != nil {
		return newError(op).node(n).context("already owned by graph %q", n.graph.name).cause(ErrStructural)
	}
	if _, exists := g.byName[n.name]; exists {
		return newError(op).node(n).context("graph %q", g.name).cause(ErrDuplicateName)
	}
	return nil
}

func (g *Graph) adoptNode(n *Node) {
	n.graph = g
	g.byName[n.name] = n
	g.invalidate()
}

func (g *Graph) isInputNode(n *Node) bool {
	return IsInputType(n.Type()) || slices.Contains(g.inputs, n)
}

// RemoveNode deletes n from the graph. Constant producers that feed only n
// are removed with it and returned. n is isolated without relinking, so its
// consumers lose those inputs and control ordering through n is kept by
// linking n's control predecessors to its control successors. Subgraphs
// owned by n are detached from the forest as with RemoveSubgraph.
func (g *Graph) RemoveNode(n *Node) ([]*Node, error) {
	if n == nil {
		return nil, newError("RemoveNode").node(nil).cause(ErrInvalidArgument)
	}
	if n.graph != g {
		return nil, newError("RemoveNode").node(n).context("graph %q", g.name).cause(ErrNotFound)
	}

	for _, name := range slices.Clone(g.subgraphOrder) {
		if g.subgraphs[name].parentNode != n {
			continue
		}
		if err := g.RemoveSubgraph(name); err != nil {
			return nil, err
		}
	}

	removed := g.removeDanglingConstInputs(n)

	g.RemoveInputNode(n)
	g.RemoveOutputNode(n)
	if err := IsolateNode(n, nil); err != nil {
		return removed, err
	}
	g.eraseNode(n)
	g.Logger().Debug("node removed", logging.Graph(g.name), logging.Node(n.name), logging.Count(len(removed)))
	return removed, nil
}

// removeDanglingConstInputs drops constant producers whose only consumer is n.
func (g *Graph) removeDanglingConstInputs(n *Node) []*Node {
	var removed []*Node
	for _, in := range n.inData {
		src := in.Peer()
		if src == nil {
			continue
		}
		p := src.owner
		if p.graph != g || !IsConstType(p.Type()) || totalOutEdges(p) != 1 {
			continue
		}
		unlink(src, in)
		g.RemoveInputNode(p)
		g.RemoveOutputNode(p)
		// in was p's only consumer, so only incoming edges remain.
		for _, a := range p.allAnchors() {
			unlinkAll(a)
		}
		g.eraseNode(p)
		removed = append(removed, p)
	}
	return removed
}

func totalOutEdges(n *Node) int {
	return n.OutDataEdgeCount() + len(n.outCtrl.links)
}

func (g *Graph) eraseNode(n *Node) {
	if i := slices.Index(g.nodes, n); i >= 0 {
		g.nodes = slices.Delete(g.nodes, i, i+1)
	}
	delete(g.byName, n.name)
	n.graph = nil
	g.invalidate()
}

// InputNodes returns the designated graph inputs in insertion order.
func (g *Graph) InputNodes() []*Node { return slices.Clone(g.inputs) }

// AddInputNode designates n as a graph input. Repeated calls are ignored.
func (g *Graph) AddInputNode(n *Node) error {
	if n == nil {
		return newError("AddInputNode").node(nil).cause(ErrInvalidArgument)
	}
	if n.graph != g {
		return newError("AddInputNode").node(n).context("graph %q", g.name).cause(ErrNotFound)
	}
	if !slices.Contains(g.inputs, n) {
		g.inputs = append(g.inputs, n)
		g.invalidate()
	}
	return nil
}

// RemoveInputNode drops n from the input list if present.
func (g *Graph) RemoveInputNode(n *Node) {
	if i := slices.Index(g.inputs, n); i >= 0 {
		g.inputs = slices.Delete(g.inputs, i, i+1)
		g.invalidate()
	}
}

// OutputNodes returns the designated graph outputs in insertion order.
func (g *Graph) OutputNodes() []OutputRef { return slices.Clone(g.outputs) }

// AddOutputNode designates data output index of n as a graph output. A node
// may be designated several times with different indices.
func (g *Graph) AddOutputNode(n *Node, index int) error {
	if n == nil {
		return newError("AddOutputNode").node(nil).cause(ErrInvalidArgument)
	}
	if n.graph != g {
		return newError("AddOutputNode").node(n).context("graph %q", g.name).cause(ErrNotFound)
	}
	if index < 0 || index >= len(n.outData) {
		return newError("AddOutputNode").node(n).context("output index %d", index).cause(ErrInvalidArgument)
	}
	ref := OutputRef{Node: n, Index: index}
	if !slices.Contains(g.outputs, ref) {
		g.outputs = append(g.outputs, ref)
		g.invalidate()
	}
	return nil
}

// RemoveOutputNode drops every output designation of n.
func (g *Graph) RemoveOutputNode(n *Node) {
	before := len(g.outputs)
	g.outputs = slices.DeleteFunc(g.outputs, func(r OutputRef) bool { return r.Node == n })
	if len(g.outputs) != before {
		g.invalidate()
	}
}

// BeginSort moves the graph into the Sorting state.
func (g *Graph) BeginSort() error {
	if g.state == SortSorting {
		return newError("BeginSort").graph(g).cause(ErrSortInProgress)
	}
	g.prevState = g.state
	g.state = SortSorting
	return nil
}

// CommitOrder installs order as the node list, assigns position ids and marks
// the graph valid. order must be a permutation of the direct nodes.
func (g *Graph) CommitOrder(order []*Node) error {
	if len(order) != len(g.nodes) {
		return newError("CommitOrder").graph(g).
			context("order has %d nodes, graph has %d", len(order), len(g.nodes)).cause(ErrInvalidArgument)
	}
	seen := make(map[*Node]struct{}, len(order))
	for _, n := range order {
		if n == nil || n.graph != g {
			return newError("CommitOrder").node(n).context("graph %q", g.name).cause(ErrNotFound)
		}
		if _, dup := seen[n]; dup {
			return newError("CommitOrder").node(n).context("listed twice").cause(ErrInvalidArgument)
		}
		seen[n] = struct{}{}
	}
	g.nodes = slices.Clone(order)
	for i, n := range g.nodes {
		n.id = int64(i)
	}
	g.state = SortSorted
	return nil
}

// AbortSort records a failed sort. The node order is left as it was.
func (g *Graph) AbortSort() {
	g.state = SortFailed
}

// CancelSort leaves the Sorting state without a verdict, restoring the state
// held before BeginSort. It is a no-op on a graph that is not being sorted.
func (g *Graph) CancelSort() {
	if g.state == SortSorting {
		g.state = g.prevState
	}
}
