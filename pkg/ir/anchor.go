package ir

import "fmt"

// AnchorKind identifies the role of a connection point on a node.
type AnchorKind uint8

const (
	DataIn AnchorKind = iota
	DataOut
	ControlIn
	ControlOut
)

func (k AnchorKind) String() string {
	switch k {
	case DataIn:
		return "in"
	case DataOut:
		return "out"
	case ControlIn:
		return "ctrl_in"
	case ControlOut:
		return "ctrl_out"
	default:
		return "unknown"
	}
}

// IsInput reports whether anchors of this kind consume edges.
func (k AnchorKind) IsInput() bool { return k == DataIn || k == ControlIn }

// IsControl reports whether anchors of this kind carry ordering-only edges.
func (k AnchorKind) IsControl() bool { return k == ControlIn || k == ControlOut }

// EdgeKind classifies an edge for ordering purposes.
type EdgeKind uint8

const (
	// EdgeNormal constrains the producer to run before the consumer.
	EdgeNormal EdgeKind = iota
	// EdgeBack is a loop back-edge (e.g. NextIteration feeding Merge). It is
	// excluded from topological ordering so intentional loops do not block sorting.
	EdgeBack
)

func (k EdgeKind) String() string {
	if k == EdgeBack {
		return "back"
	}
	return "normal"
}

type link struct {
	peer *Anchor
	kind EdgeKind
}

// Anchor is a typed connection point on a Node. Data anchors carry an index
// among anchors of the same kind; control anchors are singletons with index -1.
//
// Edges are recorded on both endpoints and are only changed through the edge
// functions in this package, which always update both sides together.
type Anchor struct {
	kind  AnchorKind
	owner *Node
	index int
	links []link
}

func newAnchor(kind AnchorKind, owner *Node, index int) *Anchor {
	return &Anchor{kind: kind, owner: owner, index: index}
}

// Kind returns the anchor kind.
func (a *Anchor) Kind() AnchorKind { return a.kind }

// Owner returns the node the anchor belongs to.
func (a *Anchor) Owner() *Node { return a.owner }

// Index returns the position among anchors of the same kind, or -1 for control anchors.
func (a *Anchor) Index() int { return a.index }

// PeerCount returns the number of edges attached to the anchor.
func (a *Anchor) PeerCount() int { return len(a.links) }

// Peers returns the anchors on the other end of every attached edge, in link order.
func (a *Anchor) Peers() []*Anchor {
	peers := make([]*Anchor, len(a.links))
	for i, l := range a.links {
		peers[i] = l.peer
	}
	return peers
}

// Peer returns the first peer, or nil. For a data input this is its sole producer.
func (a *Anchor) Peer() *Anchor {
	if len(a.links) == 0 {
		return nil
	}
	return a.links[0].peer
}

// IsLinkedWith reports whether an edge connects a and other.
func (a *Anchor) IsLinkedWith(other *Anchor) bool {
	return a.findLink(other) >= 0
}

// EdgeKindTo returns the kind of the edge between a and peer.
func (a *Anchor) EdgeKindTo(peer *Anchor) (EdgeKind, bool) {
	i := a.findLink(peer)
	if i < 0 {
		return EdgeNormal, false
	}
	return a.links[i].kind, true
}

// String renders the anchor as node:kind[:index].
func (a *Anchor) String() string {
	if a == nil {
		return "<nil>"
	}
	name := "<detached>"
	if a.owner != nil {
		name = a.owner.name
	}
	if a.kind.IsControl() {
		return fmt.Sprintf("%s:%s", name, a.kind)
	}
	return fmt.Sprintf("%s:%s:%d", name, a.kind, a.index)
}

func (a *Anchor) findLink(peer *Anchor) int {
	for i, l := range a.links {
		if l.peer == peer {
			return i
		}
	}
	return -1
}

func (a *Anchor) removeLink(peer *Anchor) bool {
	i := a.findLink(peer)
	if i < 0 {
		return false
	}
	a.links = append(a.links[:i], a.links[i+1:]...)
	return true
}

// compatible reports whether src -> dst is a legal edge direction and class.
func compatible(src, dst *Anchor) bool {
	switch src.kind {
	case DataOut:
		return dst.kind == DataIn
	case ControlOut:
		return dst.kind == ControlIn
	}
	return false
}
