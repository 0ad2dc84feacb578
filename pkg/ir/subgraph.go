package ir

import (
	"slices"

	"github.com/dd0wney/cluso-graphir/pkg/logging"
)

// parentRef addresses the parent graph by handle inside the parent's arena.
// It is set before the child is adopted, so it cannot rely on the child's
// own arena.
type parentRef struct {
	arena  *arena
	handle Handle
}

// Handle returns the graph's handle in its forest arena.
func (g *Graph) Handle() Handle { return g.handle }

// Resolve looks up a handle in the forest g belongs to. Handles of removed
// subgraphs no longer resolve.
func (g *Graph) Resolve(h Handle) (*Graph, bool) {
	return g.arena.resolve(h)
}

// SetParentGraph records p as the parent graph. It must be called before the
// graph is added to p with AddSubgraph.
func (g *Graph) SetParentGraph(p *Graph) {
	if p == nil {
		g.parent = parentRef{}
		return
	}
	g.parent = parentRef{arena: p.arena, handle: p.handle}
}

// SetParentNode records the node in the parent graph that owns this subgraph.
func (g *Graph) SetParentNode(n *Node) { g.parentNode = n }

// ParentGraph returns the parent graph, or false for a root graph or when the
// parent is gone.
func (g *Graph) ParentGraph() (*Graph, bool) {
	return g.parent.arena.resolve(g.parent.handle)
}

// ParentNode returns the owning node, or nil once that node has been removed
// from its graph.
func (g *Graph) ParentNode() *Node {
	if g.parentNode == nil || g.parentNode.graph == nil {
		return nil
	}
	return g.parentNode
}

// Root returns the ownership root of the forest g belongs to.
func (g *Graph) Root() *Graph {
	cur := g
	for {
		p, ok := cur.ParentGraph()
		if !ok {
			return cur
		}
		cur = p
	}
}

// AddSubgraph makes child a direct subgraph of g under the instance name.
// The child must already point back at g through SetParentGraph and at its
// owning node through SetParentNode. Names are unique across the forest.
func (g *Graph) AddSubgraph(name string, child *Graph) error {
	if child == nil || name == "" {
		return newError("AddSubgraph").subgraph(name).cause(ErrInvalidArgument)
	}
	if child == g || child.arena == g.arena {
		return newError("AddSubgraph").subgraph(name).context("already part of this forest").cause(ErrStructural)
	}
	if child.parentNode == nil {
		return newError("AddSubgraph").subgraph(name).context("parent node not set").cause(ErrStructural)
	}
	p, ok := child.ParentGraph()
	if !ok {
		return newError("AddSubgraph").subgraph(name).context("parent graph not set").cause(ErrStructural)
	}
	if p != g {
		return newError("AddSubgraph").subgraph(name).
			context("recorded parent %q, adding to %q", p.name, g.name).cause(ErrStructural)
	}

	root := g.Root()
	incoming := append([]string{name}, subtreeNames(child)...)
	seen := make(map[string]struct{}, len(incoming))
	for _, n := range incoming {
		_, exists := root.arena.names[n]
		if _, dup := seen[n]; exists || dup {
			return newError("AddSubgraph").subgraph(n).context("graph %q", root.name).cause(ErrDuplicateName)
		}
		seen[n] = struct{}{}
	}

	if child.name == "" {
		child.name = name
	}
	g.subgraphs[name] = child
	g.subgraphOrder = append(g.subgraphOrder, name)
	adoptTree(root.arena, name, child, g.handle)

	g.Logger().Debug("subgraph added", logging.Graph(g.name), logging.Subgraph(name))
	return nil
}

// RemoveSubgraph removes the named subgraph, wherever it sits in the forest,
// together with its own subgraphs. The removed graph becomes a standalone
// root and every handle to it or its descendants stops resolving.
func (g *Graph) RemoveSubgraph(name string) error {
	sg := g.GetSubgraph(name)
	if sg == nil {
		return newError("RemoveSubgraph").subgraph(name).cause(ErrNotFound)
	}
	owner, ok := sg.ParentGraph()
	if !ok {
		return newError("RemoveSubgraph").subgraph(name).context("parent graph gone").cause(ErrStructural)
	}

	delete(owner.subgraphs, name)
	if i := slices.Index(owner.subgraphOrder, name); i >= 0 {
		owner.subgraphOrder = slices.Delete(owner.subgraphOrder, i, i+1)
	}
	a := sg.arena
	releaseTree(a, name, sg)

	// Detached graphs keep their subtree navigable in a fresh arena.
	detached := newArena()
	sg.parent = parentRef{}
	sg.handle = detached.register(sg)
	sg.arena = detached
	for _, child := range sg.subgraphOrder {
		adoptTree(detached, child, sg.subgraphs[child], sg.handle)
	}

	owner.Logger().Debug("subgraph removed", logging.Graph(owner.name), logging.Subgraph(name))
	return nil
}

// GetSubgraph resolves an instance name against the root graph's table, so it
// finds subgraphs at any nesting depth.
func (g *Graph) GetSubgraph(name string) *Graph {
	a := g.Root().arena
	h, ok := a.names[name]
	if !ok {
		return nil
	}
	sg, _ := a.resolve(h)
	return sg
}

// Subgraphs returns the direct subgraphs in insertion order.
func (g *Graph) Subgraphs() []*Graph {
	out := make([]*Graph, 0, len(g.subgraphOrder))
	for _, name := range g.subgraphOrder {
		out = append(out, g.subgraphs[name])
	}
	return out
}

// SubgraphNames returns the instance names of the direct subgraphs.
func (g *Graph) SubgraphNames() []string { return slices.Clone(g.subgraphOrder) }

// AllSubgraphs returns every subgraph of the forest in the root's recorded
// order.
func (g *Graph) AllSubgraphs() []*Graph {
	a := g.Root().arena
	out := make([]*Graph, 0, len(a.order))
	for _, name := range a.order {
		if sg, ok := a.resolve(a.names[name]); ok {
			out = append(out, sg)
		}
	}
	return out
}

// RecordedSubgraphNames returns the root's recorded subgraph list.
func (g *Graph) RecordedSubgraphNames() []string {
	return slices.Clone(g.Root().arena.order)
}

// ReorderSubgraphs replaces the root's recorded subgraph list. names must be
// a permutation of the current list; otherwise the list is kept and false is
// returned.
func (g *Graph) ReorderSubgraphs(names []string) bool {
	a := g.Root().arena
	if len(names) != len(a.order) {
		return false
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := a.names[n]; !ok {
			return false
		}
		if _, dup := seen[n]; dup {
			return false
		}
		seen[n] = struct{}{}
	}
	a.order = slices.Clone(names)
	return true
}

func subtreeNames(g *Graph) []string {
	var names []string
	for _, name := range g.subgraphOrder {
		names = append(names, name)
		names = append(names, subtreeNames(g.subgraphs[name])...)
	}
	return names
}

func adoptTree(a *arena, name string, g *Graph, parent Handle) {
	g.arena = a
	g.parent = parentRef{arena: a, handle: parent}
	g.handle = a.register(g)
	a.names[name] = g.handle
	a.order = append(a.order, name)
	for _, child := range g.subgraphOrder {
		adoptTree(a, child, g.subgraphs[child], g.handle)
	}
}

func releaseTree(a *arena, name string, g *Graph) {
	for _, child := range g.subgraphOrder {
		releaseTree(a, child, g.subgraphs[child])
	}
	a.removeName(name)
	a.release(g.handle)
}
