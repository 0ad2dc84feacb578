package graphdef

import (
	"fmt"

	"github.com/dd0wney/cluso-graphir/pkg/ir"
)

// Build constructs the graph tree described by def.
func Build(def *Definition) (*ir.Graph, error) {
	return build(def, nil, nil)
}

func build(def *Definition, parent *ir.Graph, owner *ir.Node) (*ir.Graph, error) {
	g := ir.NewGraph(def.Name)
	if parent != nil {
		g.SetParentGraph(parent)
		g.SetParentNode(owner)
	}

	for _, nd := range def.Nodes {
		if _, err := g.AddOp(nd.Name, nd.op()); err != nil {
			return nil, fmt.Errorf("graph %s: %w", def.Name, err)
		}
	}

	for i, ed := range def.Edges {
		if err := addEdge(g, ed); err != nil {
			return nil, fmt.Errorf("graph %s: edges[%d]: %w", def.Name, i, err)
		}
	}

	for _, name := range def.Inputs {
		if err := g.AddInputNode(g.FindNode(name)); err != nil {
			return nil, fmt.Errorf("graph %s: input %s: %w", def.Name, name, err)
		}
	}
	for _, out := range def.Outputs {
		ep, err := parseEndpoint(out, false)
		if err != nil {
			return nil, fmt.Errorf("graph %s: output: %w", def.Name, err)
		}
		if err := g.AddOutputNode(g.FindNode(ep.node), ep.index); err != nil {
			return nil, fmt.Errorf("graph %s: output %s: %w", def.Name, out, err)
		}
	}

	for _, sd := range def.Subgraphs {
		ownerNode := g.FindNode(sd.Owner)
		if ownerNode == nil {
			return nil, fmt.Errorf("graph %s: subgraph %s owner %s: %w", def.Name, sd.Graph.Name, sd.Owner, ir.ErrNotFound)
		}
		sg, err := build(&sd.Graph, g, ownerNode)
		if err != nil {
			return nil, err
		}
		if err := g.AddSubgraph(sd.Graph.Name, sg); err != nil {
			return nil, fmt.Errorf("graph %s: %w", def.Name, err)
		}
		ownerNode.AddSubgraphInstanceName(sd.Graph.Name)
	}
	return g, nil
}

func (nd NodeDef) op() *ir.Op {
	op := ir.NewOp(nd.Type, nd.Inputs, nd.OutputCount)
	known := make([]ir.TensorDesc, 0, len(nd.Outputs)+len(op.Outputs))
	for _, t := range nd.Outputs {
		known = append(known, ir.TensorDesc{Dims: t.Dims, ElemSize: t.ElemSize, UnknownRank: t.UnknownRank})
	}
	op.Outputs = append(known, op.Outputs...)
	return op
}

func addEdge(g *ir.Graph, ed EdgeDef) error {
	from, err := parseEndpoint(ed.From, ed.Control)
	if err != nil {
		return err
	}
	to, err := parseEndpoint(ed.To, ed.Control)
	if err != nil {
		return err
	}
	src, dst := g.FindNode(from.node), g.FindNode(to.node)
	if src == nil || dst == nil {
		return fmt.Errorf("%s -> %s: %w", from, to, ir.ErrNotFound)
	}

	var a, b *ir.Anchor
	if ed.Control {
		a, b = src.OutControlAnchor(), dst.InControlAnchor()
	} else {
		a, b = src.OutDataAnchor(from.index), dst.InDataAnchor(to.index)
		if a == nil || b == nil {
			return fmt.Errorf("%s -> %s: anchor index out of range: %w", from, to, ErrInvalidDefinition)
		}
	}
	if ed.Back {
		return ir.AddBackEdge(a, b)
	}
	return ir.AddEdge(a, b)
}

// FromGraph describes g and its subgraphs. Node order follows g's current
// node list.
func FromGraph(g *ir.Graph) *Definition {
	def := &Definition{Name: g.Name()}
	for n := range g.Nodes() {
		nd := NodeDef{Name: n.Name(), Type: n.Type(), Inputs: n.InDataCount()}
		desc := n.Desc()
		for i := 0; i < desc.OutputCount(); i++ {
			t := desc.OutputTensor(i)
			nd.Outputs = append(nd.Outputs, TensorDef{Dims: t.Dims, ElemSize: t.ElemSize, UnknownRank: t.UnknownRank})
		}
		def.Nodes = append(def.Nodes, nd)
	}

	for e := range g.Edges() {
		control := e.Src.Kind().IsControl()
		from := endpoint{node: e.Src.Owner().Name(), index: e.Src.Index()}
		to := endpoint{node: e.Dst.Owner().Name(), index: e.Dst.Index()}
		def.Edges = append(def.Edges, EdgeDef{
			From:    from.String(),
			To:      to.String(),
			Control: control,
			Back:    e.Kind == ir.EdgeBack,
		})
	}

	for _, n := range g.InputNodes() {
		def.Inputs = append(def.Inputs, n.Name())
	}
	for _, o := range g.OutputNodes() {
		def.Outputs = append(def.Outputs, endpoint{node: o.Node.Name(), index: o.Index}.String())
	}
	for _, sg := range g.Subgraphs() {
		sd := SubgraphDef{Graph: *FromGraph(sg)}
		if p := sg.ParentNode(); p != nil {
			sd.Owner = p.Name()
		}
		def.Subgraphs = append(def.Subgraphs, sd)
	}
	return def
}
