package ir

import "testing"

// mustAdd appends a node with the given signature to g.
func mustAdd(t *testing.T, g *Graph, name, typ string, inputs, outputs int) *Node {
	t.Helper()
	n, err := g.AddOp(name, NewOp(typ, inputs, outputs))
	if err != nil {
		t.Fatalf("AddOp(%s): %v", name, err)
	}
	return n
}

// mustLink connects output out of src to input in of dst.
func mustLink(t *testing.T, src *Node, out int, dst *Node, in int) {
	t.Helper()
	if err := AddEdge(src.OutDataAnchor(out), dst.InDataAnchor(in)); err != nil {
		t.Fatalf("AddEdge(%s:%d -> %s:%d): %v", src.Name(), out, dst.Name(), in, err)
	}
}

// mustCtrl adds a control edge src -> dst.
func mustCtrl(t *testing.T, src, dst *Node) {
	t.Helper()
	if err := AddEdge(src.OutControlAnchor(), dst.InControlAnchor()); err != nil {
		t.Fatalf("AddEdge(%s ctrl -> %s ctrl): %v", src.Name(), dst.Name(), err)
	}
}

// checkSymmetry verifies every link in g is recorded on both endpoints.
func checkSymmetry(g *Graph) bool {
	for _, n := range g.nodes {
		for _, a := range n.allAnchors() {
			for _, l := range a.links {
				back := l.peer.findLink(a)
				if back < 0 || l.peer.links[back].kind != l.kind {
					return false
				}
				if l.peer.owner.graph != nil && l.peer.owner.graph != g {
					return false
				}
			}
			if a.kind == DataIn && len(a.links) > 1 {
				return false
			}
		}
	}
	return true
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}
