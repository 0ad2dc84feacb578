package ir

import "slices"

// Node is one operation instance in a Graph. Its anchors are created from
// the descriptor's declared input and output counts and never change.
type Node struct {
	name string
	desc OpDesc
	id   int64

	// graph is the owning graph; nil once the node has been removed.
	graph *Graph

	inData  []*Anchor
	outData []*Anchor
	inCtrl  *Anchor
	outCtrl *Anchor

	subgraphNames []string
}

// NewNode creates a detached node named name from desc.
func NewNode(name string, desc OpDesc) (*Node, error) {
	if desc == nil {
		return nil, newError("NewNode").node(nil).context("name %q", name).cause(ErrInvalidArgument)
	}
	if name == "" {
		return nil, newError("NewNode").node(nil).context("empty name").cause(ErrInvalidArgument)
	}
	n := &Node{name: name, desc: desc, id: -1}
	n.inData = make([]*Anchor, max(desc.InputCount(), 0))
	for i := range n.inData {
		n.inData[i] = newAnchor(DataIn, n, i)
	}
	n.outData = make([]*Anchor, max(desc.OutputCount(), 0))
	for i := range n.outData {
		n.outData[i] = newAnchor(DataOut, n, i)
	}
	n.inCtrl = newAnchor(ControlIn, n, -1)
	n.outCtrl = newAnchor(ControlOut, n, -1)
	return n, nil
}

// Name returns the node name, unique within its graph.
func (n *Node) Name() string { return n.name }

// Type returns the operation type from the descriptor.
func (n *Node) Type() string { return n.desc.Type() }

// Desc returns the operation descriptor.
func (n *Node) Desc() OpDesc { return n.desc }

// ID returns the node's position in its graph's last committed order.
func (n *Node) ID() int64 { return n.id }

// OwnerGraph returns the graph that owns n, or nil after removal.
func (n *Node) OwnerGraph() *Graph { return n.graph }

func (n *Node) InDataCount() int  { return len(n.inData) }
func (n *Node) OutDataCount() int { return len(n.outData) }

// InDataAnchor returns data input i, or nil when out of range.
func (n *Node) InDataAnchor(i int) *Anchor {
	if i < 0 || i >= len(n.inData) {
		return nil
	}
	return n.inData[i]
}

// OutDataAnchor returns data output i, or nil when out of range.
func (n *Node) OutDataAnchor(i int) *Anchor {
	if i < 0 || i >= len(n.outData) {
		return nil
	}
	return n.outData[i]
}

func (n *Node) InDataAnchors() []*Anchor  { return slices.Clone(n.inData) }
func (n *Node) OutDataAnchors() []*Anchor { return slices.Clone(n.outData) }
func (n *Node) InControlAnchor() *Anchor  { return n.inCtrl }
func (n *Node) OutControlAnchor() *Anchor { return n.outCtrl }

// InDataNodes returns the producers feeding the data inputs, in input order.
// A producer feeding several inputs appears once per input.
func (n *Node) InDataNodes() []*Node {
	var nodes []*Node
	for _, a := range n.inData {
		if p := a.Peer(); p != nil {
			nodes = append(nodes, p.owner)
		}
	}
	return nodes
}

// OutDataNodes returns the consumers of every data output, in output then link order.
func (n *Node) OutDataNodes() []*Node {
	var nodes []*Node
	for _, a := range n.outData {
		for _, l := range a.links {
			nodes = append(nodes, l.peer.owner)
		}
	}
	return nodes
}

// InControlNodes returns the control predecessors.
func (n *Node) InControlNodes() []*Node {
	return owners(n.inCtrl)
}

// OutControlNodes returns the control successors.
func (n *Node) OutControlNodes() []*Node {
	return owners(n.outCtrl)
}

// OutDataEdgeCount returns the number of downstream data consumers.
func (n *Node) OutDataEdgeCount() int {
	c := 0
	for _, a := range n.outData {
		c += len(a.links)
	}
	return c
}

// HasEdges reports whether any anchor of n is linked.
func (n *Node) HasEdges() bool {
	for _, a := range n.allAnchors() {
		if len(a.links) > 0 {
			return true
		}
	}
	return false
}

// SubgraphInstanceNames returns the names of the subgraphs this node owns,
// resolved against the root graph.
func (n *Node) SubgraphInstanceNames() []string { return slices.Clone(n.subgraphNames) }

// AddSubgraphInstanceName records a subgraph instance name on the node.
func (n *Node) AddSubgraphInstanceName(name string) {
	n.subgraphNames = append(n.subgraphNames, name)
}

// SetSubgraphInstanceName replaces the i-th subgraph instance name.
func (n *Node) SetSubgraphInstanceName(i int, name string) error {
	if i < 0 || i >= len(n.subgraphNames) {
		return newError("SetSubgraphInstanceName").node(n).context("index %d", i).cause(ErrInvalidArgument)
	}
	n.subgraphNames[i] = name
	return nil
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.name + "(" + n.Type() + ")"
}

func (n *Node) allAnchors() []*Anchor {
	all := make([]*Anchor, 0, len(n.inData)+len(n.outData)+2)
	all = append(all, n.inData...)
	all = append(all, n.inCtrl)
	all = append(all, n.outData...)
	all = append(all, n.outCtrl)
	return all
}

func owners(a *Anchor) []*Node {
	nodes := make([]*Node, 0, len(a.links))
	for _, l := range a.links {
		nodes = append(nodes, l.peer.owner)
	}
	return nodes
}
