package ir

import (
	"slices"
	"testing"
)

// TestAllNodesDescendsIntoSubgraphs tests recursive iteration and its filters
func TestAllNodesDescendsIntoSubgraphs(t *testing.T) {
	root := NewGraph("root")
	mustAdd(t, root, "x", "Op", 0, 1)
	ifNode := mustAdd(t, root, "if", "If", 1, 1)
	mustAdd(t, root, "y", "Op", 1, 0)
	thenG := newBranch(t, root, ifNode, "then")
	mustAdd(t, thenG, "t1", "Relu", 1, 1)
	newBranch(t, root, ifNode, "else")

	var all []string
	for n := range root.AllNodes(nil, nil) {
		all = append(all, n.Name())
	}
	want := []string{"x", "if", "then_in", "t1", "else_in", "y"}
	if !slices.Equal(all, want) {
		t.Errorf("AllNodes = %v, want %v", all, want)
	}

	skipElse := GraphPredicateFunc(func(owner *Node, sub *Graph) bool { return sub.Name() != "else" })
	onlyData := NodePredicateFunc(func(n *Node) bool { return n.Type() == TypeData })
	var filtered []string
	for n := range root.AllNodes(onlyData, skipElse) {
		filtered = append(filtered, n.Name())
	}
	if !slices.Equal(filtered, []string{"then_in"}) {
		t.Errorf("filtered = %v", filtered)
	}
}

// TestNodesIsRestartable tests that iteration can stop early and start again
func TestNodesIsRestartable(t *testing.T) {
	g := NewGraph("g")
	for _, name := range []string{"a", "b", "c"} {
		mustAdd(t, g, name, "Op", 0, 0)
	}

	var first []string
	for n := range g.Nodes() {
		first = append(first, n.Name())
		if len(first) == 2 {
			break
		}
	}
	var second []string
	for n := range g.Nodes() {
		second = append(second, n.Name())
	}
	if !slices.Equal(first, []string{"a", "b"}) || !slices.Equal(second, []string{"a", "b", "c"}) {
		t.Errorf("first=%v second=%v", first, second)
	}
}

// TestEdgesOrder tests that data edges are listed before control edges
func TestEdgesOrder(t *testing.T) {
	g := NewGraph("g")
	a := mustAdd(t, g, "a", "Op", 0, 1)
	b := mustAdd(t, g, "b", "Op", 1, 0)
	mustCtrl(t, a, b)
	mustLink(t, a, 0, b, 0)

	var kinds []AnchorKind
	for e := range g.Edges() {
		kinds = append(kinds, e.Src.Kind())
	}
	if !slices.Equal(kinds, []AnchorKind{DataOut, ControlOut}) {
		t.Errorf("edge kinds = %v", kinds)
	}
}
