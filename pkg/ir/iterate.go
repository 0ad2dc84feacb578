package ir

import (
	"iter"
	"slices"
)

// NodePredicate selects nodes during iteration.
type NodePredicate interface {
	Match(n *Node) bool
}

// NodePredicateFunc adapts a function to NodePredicate.
type NodePredicateFunc func(n *Node) bool

func (f NodePredicateFunc) Match(n *Node) bool { return f(n) }

// GraphPredicate decides whether iteration descends from owner into sub.
type GraphPredicate interface {
	Match(owner *Node, sub *Graph) bool
}

// GraphPredicateFunc adapts a function to GraphPredicate.
type GraphPredicateFunc func(owner *Node, sub *Graph) bool

func (f GraphPredicateFunc) Match(owner *Node, sub *Graph) bool { return f(owner, sub) }

// Nodes iterates the direct nodes in their current order. Each iteration
// works on a snapshot taken when it starts.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return g.FilteredNodes(nil)
}

// FilteredNodes iterates the direct nodes matching pred; nil matches all.
func (g *Graph) FilteredNodes(pred NodePredicate) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, n := range slices.Clone(g.nodes) {
			if pred != nil && !pred.Match(n) {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// AllNodes iterates g's nodes and, after each node, the nodes of the
// subgraphs it owns, depth first. nodePred filters what is yielded and
// graphPred decides which subgraphs are entered; nil accepts everything.
func (g *Graph) AllNodes(nodePred NodePredicate, graphPred GraphPredicate) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		g.walkNodes(nodePred, graphPred, yield)
	}
}

func (g *Graph) walkNodes(nodePred NodePredicate, graphPred GraphPredicate, yield func(*Node) bool) bool {
	root := g.Root()
	for _, n := range slices.Clone(g.nodes) {
		if nodePred == nil || nodePred.Match(n) {
			if !yield(n) {
				return false
			}
		}
		for _, name := range n.subgraphNames {
			sg := root.GetSubgraph(name)
			if sg == nil || sg == g {
				continue
			}
			if graphPred != nil && !graphPred.Match(n, sg) {
				continue
			}
			if !sg.walkNodes(nodePred, graphPred, yield) {
				return false
			}
		}
	}
	return true
}

// Edges iterates every edge leaving a direct node: data edges in output
// order, then control edges.
func (g *Graph) Edges() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		for _, n := range slices.Clone(g.nodes) {
			for _, a := range append(slices.Clone(n.outData), n.outCtrl) {
				for _, l := range a.links {
					if !yield(Edge{Src: a, Dst: l.peer, Kind: l.kind}) {
						return
					}
				}
			}
		}
	}
}
