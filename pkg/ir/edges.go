package ir

// Edge is one producer -> consumer connection.
type Edge struct {
	Src  *Anchor
	Dst  *Anchor
	Kind EdgeKind
}

// AddEdge connects a producer anchor to a consumer anchor. Data outputs link
// to data inputs and control outputs to control inputs. A data input accepts
// a single producer; a control input accepts any number.
func AddEdge(src, dst *Anchor) error {
	return addEdge("AddEdge", src, dst, EdgeNormal)
}

// AddBackEdge connects src to dst as a loop back-edge, which the sort engine
// does not treat as an ordering constraint.
func AddBackEdge(src, dst *Anchor) error {
	return addEdge("AddBackEdge", src, dst, EdgeBack)
}

func addEdge(op string, src, dst *Anchor, kind EdgeKind) error {
	if src == nil || dst == nil || src.owner == nil || dst.owner == nil {
		return newError(op).edge(src, dst).cause(ErrInvalidArgument)
	}
	if !compatible(src, dst) {
		return newError(op).edge(src, dst).context("%s cannot feed %s", src.kind, dst.kind).cause(ErrStructural)
	}
	if src.owner.graph != dst.owner.graph {
		return newError(op).edge(src, dst).context("endpoints belong to different graphs").cause(ErrStructural)
	}
	if src.IsLinkedWith(dst) {
		return newError(op).edge(src, dst).context("already linked").cause(ErrStructural)
	}
	if dst.kind == DataIn && len(dst.links) > 0 {
		return newError(op).edge(src, dst).context("input already fed by %s", dst.Peer()).cause(ErrStructural)
	}
	connect(src, dst, kind)
	src.owner.graph.observe(op)
	return nil
}

// RemoveEdge disconnects src from dst. Removing an edge that does not exist
// is a structural error.
func RemoveEdge(src, dst *Anchor) error {
	if src == nil || dst == nil {
		return newError("RemoveEdge").edge(src, dst).cause(ErrInvalidArgument)
	}
	if !src.IsLinkedWith(dst) {
		return newError("RemoveEdge").edge(src, dst).cause(ErrStructural)
	}
	unlink(src, dst)
	if src.owner != nil {
		src.owner.graph.observe("RemoveEdge")
	}
	return nil
}

// connect and unlink are the only places that touch both link lists, so an
// edge is always recorded on both of its endpoints or on neither.
func connect(src, dst *Anchor, kind EdgeKind) {
	src.links = append(src.links, link{peer: dst, kind: kind})
	dst.links = append(dst.links, link{peer: src, kind: kind})
	invalidateOwners(src, dst)
}

func unlink(src, dst *Anchor) {
	src.removeLink(dst)
	dst.removeLink(src)
	invalidateOwners(src, dst)
}

func invalidateOwners(a, b *Anchor) {
	if a.owner != nil {
		a.owner.graph.invalidate()
	}
	if b.owner != nil && (a.owner == nil || b.owner.graph != a.owner.graph) {
		b.owner.graph.invalidate()
	}
}

// unlinkAll removes every edge attached to a.
func unlinkAll(a *Anchor) {
	for len(a.links) > 0 {
		peer := a.links[0].peer
		if a.kind.IsInput() {
			unlink(peer, a)
		} else {
			unlink(a, peer)
		}
	}
}
