// Package dump writes diagnostic snapshots of IR graphs to disk and reads
// them back. A snapshot records every node, edge, input, output and
// subgraph, so a graph can be rebuilt from it for offline inspection.
package dump

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-graphir/pkg/ir"
)

// Snapshot is a serialisable copy of a graph tree.
type Snapshot struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	CreatedAt time.Time     `json:"created_at"`
	Graph     GraphSnapshot `json:"graph"`
	// RecordedSubgraphs is the root's recorded subgraph order.
	RecordedSubgraphs []string `json:"recorded_subgraphs,omitempty"`
}

// GraphSnapshot captures one graph and, recursively, its subgraphs.
type GraphSnapshot struct {
	Name       string           `json:"name"`
	State      string           `json:"state"`
	ParentNode string           `json:"parent_node,omitempty"`
	Nodes      []NodeSnapshot   `json:"nodes"`
	Edges      []EdgeSnapshot   `json:"edges,omitempty"`
	Inputs     []string         `json:"inputs,omitempty"`
	Outputs    []OutputSnapshot `json:"outputs,omitempty"`
	Subgraphs  []GraphSnapshot  `json:"subgraphs,omitempty"`
}

// NodeSnapshot captures a node and its operation descriptor.
type NodeSnapshot struct {
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	ID          int64            `json:"id"`
	Inputs      int              `json:"inputs"`
	Outputs     []TensorSnapshot `json:"outputs,omitempty"`
	OutputBytes int64            `json:"output_bytes"`
	Subgraphs   []string         `json:"subgraphs,omitempty"`
}

// TensorSnapshot mirrors ir.TensorDesc.
type TensorSnapshot struct {
	Dims        []int64 `json:"dims,omitempty"`
	ElemSize    int64   `json:"elem_size,omitempty"`
	UnknownRank bool    `json:"unknown_rank,omitempty"`
}

// EdgeSnapshot captures one edge. Control edges carry index -1 on both ends.
type EdgeSnapshot struct {
	Src      string `json:"src"`
	SrcIndex int    `json:"src_index"`
	Dst      string `json:"dst"`
	DstIndex int    `json:"dst_index"`
	Control  bool   `json:"control,omitempty"`
	Back     bool   `json:"back,omitempty"`
}

// OutputSnapshot mirrors ir.OutputRef.
type OutputSnapshot struct {
	Node  string `json:"node"`
	Index int    `json:"index"`
}

// Capture snapshots g and every subgraph beneath it.
func Capture(g *ir.Graph) GraphSnapshot {
	s := GraphSnapshot{
		Name:  g.Name(),
		State: g.SortState().String(),
		Nodes: make([]NodeSnapshot, 0, g.NodeCount()),
	}
	if p := g.ParentNode(); p != nil {
		s.ParentNode = p.Name()
	}

	for n := range g.Nodes() {
		desc := n.Desc()
		ns := NodeSnapshot{
			Name:        n.Name(),
			Type:        n.Type(),
			ID:          n.ID(),
			Inputs:      desc.InputCount(),
			OutputBytes: ir.EstimateOutputBytes(n),
			Subgraphs:   n.SubgraphInstanceNames(),
		}
		for i := 0; i < desc.OutputCount(); i++ {
			t := desc.OutputTensor(i)
			ns.Outputs = append(ns.Outputs, TensorSnapshot{Dims: t.Dims, ElemSize: t.ElemSize, UnknownRank: t.UnknownRank})
		}
		s.Nodes = append(s.Nodes, ns)
	}

	for e := range g.Edges() {
		s.Edges = append(s.Edges, EdgeSnapshot{
			Src:      e.Src.Owner().Name(),
			SrcIndex: e.Src.Index(),
			Dst:      e.Dst.Owner().Name(),
			DstIndex: e.Dst.Index(),
			Control:  e.Src.Kind().IsControl(),
			Back:     e.Kind == ir.EdgeBack,
		})
	}
	for _, n := range g.InputNodes() {
		s.Inputs = append(s.Inputs, n.Name())
	}
	for _, o := range g.OutputNodes() {
		s.Outputs = append(s.Outputs, OutputSnapshot{Node: o.Node.Name(), Index: o.Index})
	}
	for _, sg := range g.Subgraphs() {
		s.Subgraphs = append(s.Subgraphs, Capture(sg))
	}
	return s
}

// Restore rebuilds the graph tree held by s. The root's recorded subgraph
// order and each graph's sort state are restored as well.
func (s *Snapshot) Restore() (*ir.Graph, error) {
	g, err := restoreGraph(&s.Graph)
	if err != nil {
		return nil, err
	}
	if len(s.RecordedSubgraphs) > 0 && !g.ReorderSubgraphs(s.RecordedSubgraphs) {
		return nil, fmt.Errorf("restore %s: recorded subgraphs %v do not match the snapshot", s.Graph.Name, s.RecordedSubgraphs)
	}
	return g, nil
}

func restoreGraph(s *GraphSnapshot) (*ir.Graph, error) {
	g := ir.NewGraph(s.Name)

	for _, ns := range s.Nodes {
		op := &ir.Op{OpType: ns.Type, Inputs: ns.Inputs}
		for _, t := range ns.Outputs {
			op.Outputs = append(op.Outputs, ir.TensorDesc{Dims: t.Dims, ElemSize: t.ElemSize, UnknownRank: t.UnknownRank})
		}
		n, err := g.AddOp(ns.Name, op)
		if err != nil {
			return nil, fmt.Errorf("restore %s: %w", s.Name, err)
		}
		for _, name := range ns.Subgraphs {
			n.AddSubgraphInstanceName(name)
		}
	}

	for _, es := range s.Edges {
		if err := restoreEdge(g, es); err != nil {
			return nil, fmt.Errorf("restore %s: %w", s.Name, err)
		}
	}
	for _, name := range s.Inputs {
		if err := g.AddInputNode(g.FindNode(name)); err != nil {
			return nil, fmt.Errorf("restore %s input %s: %w", s.Name, name, err)
		}
	}
	for _, o := range s.Outputs {
		if err := g.AddOutputNode(g.FindNode(o.Node), o.Index); err != nil {
			return nil, fmt.Errorf("restore %s output %s:%d: %w", s.Name, o.Node, o.Index, err)
		}
	}

	for i := range s.Subgraphs {
		sub := &s.Subgraphs[i]
		sg, err := restoreGraph(sub)
		if err != nil {
			return nil, err
		}
		sg.SetParentGraph(g)
		sg.SetParentNode(g.FindNode(sub.ParentNode))
		if err := g.AddSubgraph(sub.Name, sg); err != nil {
			return nil, fmt.Errorf("restore %s subgraph %s: %w", s.Name, sub.Name, err)
		}
	}

	return g, restoreState(g, s.State)
}

func restoreEdge(g *ir.Graph, es EdgeSnapshot) error {
	src, dst := g.FindNode(es.Src), g.FindNode(es.Dst)
	if src == nil || dst == nil {
		return fmt.Errorf("edge %s -> %s: %w", es.Src, es.Dst, ir.ErrNotFound)
	}
	var from, to *ir.Anchor
	if es.Control {
		from, to = src.OutControlAnchor(), dst.InControlAnchor()
	} else {
		from, to = src.OutDataAnchor(es.SrcIndex), dst.InDataAnchor(es.DstIndex)
	}
	if es.Back {
		return ir.AddBackEdge(from, to)
	}
	return ir.AddEdge(from, to)
}

func restoreState(g *ir.Graph, state string) error {
	switch state {
	case ir.SortSorted.String():
		if err := g.BeginSort(); err != nil {
			return err
		}
		return g.CommitOrder(g.DirectNodes())
	case ir.SortFailed.String():
		if err := g.BeginSort(); err != nil {
			return err
		}
		g.AbortSort()
	}
	return nil
}
