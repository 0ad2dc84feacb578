package ir

import (
	"fmt"
	"slices"
)

// Equal reports whether g and other describe the same graph: the same
// input and output bookkeeping, the same nodes matched by name (order is
// ignored since sorting reorders), and recursively equal subgraphs in list
// order.
func (g *Graph) Equal(other *Graph) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.name != other.name || len(g.nodes) != len(other.nodes) {
		return false
	}
	if !slices.Equal(nodeNames(g.inputs), nodeNames(other.inputs)) {
		return false
	}
	if !slices.Equal(outputKeys(g.outputs), outputKeys(other.outputs)) {
		return false
	}
	if nameOf(g.ParentNode()) != nameOf(other.ParentNode()) {
		return false
	}
	for _, n := range g.nodes {
		m := other.byName[n.name]
		if m == nil || !n.Equal(m) {
			return false
		}
	}
	if !slices.Equal(g.subgraphOrder, other.subgraphOrder) {
		return false
	}
	for _, name := range g.subgraphOrder {
		if !g.subgraphs[name].Equal(other.subgraphs[name]) {
			return false
		}
	}
	return true
}

// Equal compares identity, signature, edges by peer name and index, and
// subgraph instance names. Graph membership and position ids are ignored.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.name != other.name || n.Type() != other.Type() ||
		len(n.inData) != len(other.inData) || len(n.outData) != len(other.outData) {
		return false
	}
	for i := range n.inData {
		if !slices.Equal(peerKeys(n.inData[i]), peerKeys(other.inData[i])) {
			return false
		}
	}
	for i := range n.outData {
		if !slices.Equal(peerKeys(n.outData[i]), peerKeys(other.outData[i])) {
			return false
		}
	}
	return slices.Equal(peerKeys(n.inCtrl), peerKeys(other.inCtrl)) &&
		slices.Equal(peerKeys(n.outCtrl), peerKeys(other.outCtrl)) &&
		slices.Equal(n.subgraphNames, other.subgraphNames)
}

func peerKeys(a *Anchor) []string {
	keys := make([]string, len(a.links))
	for i, l := range a.links {
		keys[i] = fmt.Sprintf("%s/%s", l.peer, l.kind)
	}
	slices.Sort(keys)
	return keys
}

func nodeNames(nodes []*Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.name
	}
	return names
}

func outputKeys(refs []OutputRef) []string {
	keys := make([]string, len(refs))
	for i, r := range refs {
		keys[i] = fmt.Sprintf("%s:%d", r.Node.name, r.Index)
	}
	return keys
}

func nameOf(n *Node) string {
	if n == nil {
		return ""
	}
	return n.name
}
