package algorithms

import (
	"testing"

	"github.com/dd0wney/cluso-graphir/pkg/ir"
)

// addNode appends a node whose outputs have unknown shape.
func addNode(t *testing.T, g *ir.Graph, name, typ string, inputs, outputs int) *ir.Node {
	t.Helper()
	n, err := g.AddOp(name, ir.NewOp(typ, inputs, outputs))
	if err != nil {
		t.Fatalf("AddOp(%s): %v", name, err)
	}
	return n
}

// addSized appends a node with a single output of the given byte size.
func addSized(t *testing.T, g *ir.Graph, name, typ string, inputs int, bytes int64) *ir.Node {
	t.Helper()
	op := &ir.Op{OpType: typ, Inputs: inputs, Outputs: []ir.TensorDesc{{Dims: []int64{bytes}, ElemSize: 1}}}
	n, err := g.AddOp(name, op)
	if err != nil {
		t.Fatalf("AddOp(%s): %v", name, err)
	}
	return n
}

func link(t *testing.T, src *ir.Node, out int, dst *ir.Node, in int) {
	t.Helper()
	if err := ir.AddEdge(src.OutDataAnchor(out), dst.InDataAnchor(in)); err != nil {
		t.Fatalf("AddEdge(%s:%d -> %s:%d): %v", src.Name(), out, dst.Name(), in, err)
	}
}

func ctrl(t *testing.T, src, dst *ir.Node) {
	t.Helper()
	if err := ir.AddEdge(src.OutControlAnchor(), dst.InControlAnchor()); err != nil {
		t.Fatalf("AddEdge(%s ctrl -> %s ctrl): %v", src.Name(), dst.Name(), err)
	}
}

func orderOf(g *ir.Graph) []string {
	var names []string
	for n := range g.Nodes() {
		names = append(names, n.Name())
	}
	return names
}

// branch creates a subgraph of parent owned by owner.
func branch(t *testing.T, parent *ir.Graph, owner *ir.Node, name string) *ir.Graph {
	t.Helper()
	sg := ir.NewGraph(name)
	sg.SetParentGraph(parent)
	sg.SetParentNode(owner)
	if err := parent.AddSubgraph(name, sg); err != nil {
		t.Fatalf("AddSubgraph(%s): %v", name, err)
	}
	owner.AddSubgraphInstanceName(name)
	return sg
}

// recordingSink is a DumpSink that remembers what it was asked to write.
type recordingSink struct {
	labels []string
	graphs []*ir.Graph
	err    error
}

func (s *recordingSink) Dump(g *ir.Graph, label string) (string, error) {
	s.labels = append(s.labels, label)
	s.graphs = append(s.graphs, g)
	if s.err != nil {
		return "", s.err
	}
	return "/tmp/" + label + ".json.sz", nil
}
