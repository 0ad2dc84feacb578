package algorithms

import (
	"fmt"

	"github.com/dd0wney/cluso-graphir/pkg/ir"
)

// OrderViolation is an ordering edge whose producer does not precede its
// consumer in the node list.
type OrderViolation struct {
	Edge     ir.Edge
	SrcIndex int
	DstIndex int
}

func (v OrderViolation) String() string {
	return fmt.Sprintf("%s (#%d) -> %s (#%d)", v.Edge.Src, v.SrcIndex, v.Edge.Dst, v.DstIndex)
}

// VerifyOrder checks that every ordering edge of g and of each subgraph
// beneath it points forward in node-list position, and that position ids
// match list positions. It returns nil when the order is valid.
func VerifyOrder(g *ir.Graph) error {
	for _, sg := range sortTree(g) {
		if v := Violations(sg); len(v) > 0 {
			return fmt.Errorf("graph %q: %d edge(s) out of order, first %s", sg.Name(), len(v), v[0])
		}
		for i, n := range sg.DirectNodes() {
			if n.ID() != int64(i) {
				return fmt.Errorf("graph %q: node %s at position %d has id %d", sg.Name(), n.Name(), i, n.ID())
			}
		}
	}
	return nil
}

// Violations lists the ordering edges of g's direct nodes that point
// backwards in the current node list.
func Violations(g *ir.Graph) []OrderViolation {
	pos := make(map[*ir.Node]int, g.NodeCount())
	for i, n := range g.DirectNodes() {
		pos[n] = i
	}
	var out []OrderViolation
	for e := range g.Edges() {
		if e.Kind == ir.EdgeBack {
			continue
		}
		src, dst := pos[e.Src.Owner()], pos[e.Dst.Owner()]
		if src >= dst {
			out = append(out, OrderViolation{Edge: e, SrcIndex: src, DstIndex: dst})
		}
	}
	return out
}
