package ir

import (
	"slices"

	"github.com/dd0wney/cluso-graphir/pkg/logging"
)

// IsolateNode disconnects n from the graph while reconnecting its neighbours.
//
// For each data output i, if ioMap[i] names a data input j of n, every
// consumer of output i is relinked to the producer currently feeding input j.
// Otherwise the consumers of output i are unlinked. Control ordering that ran
// through n is rerouted around it: n's control predecessors are linked to the
// nodes that received relinked data and to n's control successors, and each
// bypass producer is linked to n's control successors. n ends with no edges.
//
// Outputs are only bypassed where ioMap says so; nothing is inferred for
// nodes without inputs or fed by constants.
func IsolateNode(n *Node, ioMap []int) error {
	if n == nil {
		return newError("IsolateNode").node(nil).cause(ErrInvalidArgument)
	}

	inCtrlSrcs := n.inCtrl.Peers()
	outCtrlDsts := n.outCtrl.Peers()

	var relinked []*Node
	var bypass []*Node
	for i, out := range n.outData {
		var src *Anchor
		if i < len(ioMap) && ioMap[i] >= 0 && ioMap[i] < len(n.inData) {
			src = n.inData[ioMap[i]].Peer()
		}
		if src != nil && src.owner == n {
			src = nil
		}
		consumers := slices.Clone(out.links)
		for _, l := range consumers {
			unlink(out, l.peer)
			if src == nil || l.peer.owner == n {
				continue
			}
			connect(src, l.peer, l.kind)
			relinked = appendUnique(relinked, l.peer.owner)
		}
		if src != nil && len(consumers) > 0 {
			bypass = appendUnique(bypass, src.owner)
		}
	}

	for _, p := range inCtrlSrcs {
		for _, d := range relinked {
			linkControl(p, d.inCtrl)
		}
		for _, d := range outCtrlDsts {
			linkControl(p, d)
		}
	}
	for _, b := range bypass {
		for _, d := range outCtrlDsts {
			linkControl(b.outCtrl, d)
		}
	}

	for _, a := range n.allAnchors() {
		unlinkAll(a)
	}
	if n.graph != nil {
		n.graph.observe("IsolateNode")
		n.graph.Logger().Debug("node isolated",
			logging.Node(n.name), logging.Count(len(relinked)))
	}
	return nil
}

// IsolateNodeOneIO isolates a node with exactly one data input and one data
// output, bypassing it from producer to consumers.
func IsolateNodeOneIO(n *Node) error {
	if n == nil {
		return newError("IsolateNodeOneIO").node(nil).cause(ErrInvalidArgument)
	}
	if len(n.inData) != 1 || len(n.outData) != 1 {
		return newError("IsolateNodeOneIO").node(n).
			context("has %d inputs and %d outputs", len(n.inData), len(n.outData)).cause(ErrInvalidArgument)
	}
	return IsolateNode(n, []int{0})
}

// linkControl adds a control edge unless it would be a self loop or already exists.
func linkControl(src, dst *Anchor) {
	if src.owner == dst.owner || src.IsLinkedWith(dst) {
		return
	}
	connect(src, dst, EdgeNormal)
}

func appendUnique(nodes []*Node, n *Node) []*Node {
	if slices.Contains(nodes, n) {
		return nodes
	}
	return append(nodes, n)
}

// InsertNodeBefore splices newNode onto the edge feeding consumer: the old
// producer now feeds newNode's input inIdx and newNode's output outIdx feeds
// consumer. Other edges are left untouched.
func InsertNodeBefore(consumer *Anchor, newNode *Node, inIdx, outIdx int) error {
	const op = "InsertNodeBefore"
	if consumer == nil || newNode == nil || consumer.owner == nil {
		return newError(op).node(newNode).cause(ErrInvalidArgument)
	}
	if consumer.kind != DataIn {
		return newError(op).anchor(consumer).context("not a data input").cause(ErrStructural)
	}
	producer := consumer.Peer()
	if producer == nil {
		return newError(op).anchor(consumer).context("no producer").cause(ErrStructural)
	}
	in, out, err := spliceAnchors(op, newNode, consumer.owner.graph, inIdx, outIdx)
	if err != nil {
		return err
	}

	kind, _ := producer.EdgeKindTo(consumer)
	unlink(producer, consumer)
	connect(producer, in, EdgeNormal)
	connect(out, consumer, kind)
	newNode.graph.observe(op)
	return nil
}

// InsertNodeAfter splices newNode between producer and the given consumers,
// or all of producer's consumers when none are given. producer then feeds
// newNode's input inIdx and newNode's output outIdx feeds those consumers.
func InsertNodeAfter(producer *Anchor, consumers []*Anchor, newNode *Node, inIdx, outIdx int) error {
	const op = "InsertNodeAfter"
	if producer == nil || newNode == nil || producer.owner == nil {
		return newError(op).node(newNode).cause(ErrInvalidArgument)
	}
	if producer.kind != DataOut {
		return newError(op).anchor(producer).context("not a data output").cause(ErrStructural)
	}
	if len(consumers) == 0 {
		consumers = producer.Peers()
	}
	seen := make(map[*Anchor]struct{}, len(consumers))
	for _, c := range consumers {
		if c == nil {
			return newError(op).anchor(producer).context("nil consumer").cause(ErrInvalidArgument)
		}
		if _, dup := seen[c]; dup {
			return newError(op).anchor(c).context("consumer listed twice").cause(ErrInvalidArgument)
		}
		seen[c] = struct{}{}
		if !producer.IsLinkedWith(c) {
			return newError(op).edge(producer, c).context("not linked").cause(ErrStructural)
		}
	}
	in, out, err := spliceAnchors(op, newNode, producer.owner.graph, inIdx, outIdx)
	if err != nil {
		return err
	}

	connect(producer, in, EdgeNormal)
	for _, c := range consumers {
		kind, _ := producer.EdgeKindTo(c)
		unlink(producer, c)
		connect(out, c, kind)
	}
	newNode.graph.observe(op)
	return nil
}

func spliceAnchors(op string, n *Node, g *Graph, inIdx, outIdx int) (*Anchor, *Anchor, error) {
	if n.graph != g {
		return nil, nil, newError(op).node(n).context("not in the same graph").cause(ErrStructural)
	}
	in, out := n.InDataAnchor(inIdx), n.OutDataAnchor(outIdx)
	if in == nil || out == nil {
		return nil, nil, newError(op).node(n).context("anchor indices in=%d out=%d", inIdx, outIdx).cause(ErrInvalidArgument)
	}
	if len(in.links) > 0 {
		return nil, nil, newError(op).anchor(in).context("input already fed").cause(ErrStructural)
	}
	return in, out, nil
}

// RemoveNodeWithoutRelink drops n from g's node list and input/output
// bookkeeping. Edges are not touched; callers isolate n first.
func RemoveNodeWithoutRelink(g *Graph, n *Node) error {
	if g == nil || n == nil {
		return newError("RemoveNodeWithoutRelink").node(n).cause(ErrInvalidArgument)
	}
	if n.graph != g {
		return newError("RemoveNodeWithoutRelink").node(n).context("graph %q", g.name).cause(ErrNotFound)
	}
	g.RemoveInputNode(n)
	g.RemoveOutputNode(n)
	g.eraseNode(n)
	return nil
}

// ReplaceNode moves old's data edges onto replacement. inMap[i] names the
// input of replacement that takes over old's input i, outMap[i] the output
// that takes over old's output i; -1 or a missing entry drops that edge.
// Control edges move as well, and old is left without edges.
func ReplaceNode(old, replacement *Node, inMap, outMap []int) error {
	const op = "ReplaceNode"
	if old == nil || replacement == nil || old == replacement {
		return newError(op).node(old).cause(ErrInvalidArgument)
	}
	if old.graph != replacement.graph {
		return newError(op).node(replacement).context("not in the same graph as %q", old.name).cause(ErrStructural)
	}
	used := make(map[int]struct{}, len(inMap))
	for i, j := range inMap {
		if j < 0 || i >= len(old.inData) {
			continue
		}
		if _, dup := used[j]; dup {
			return newError(op).node(replacement).context("input %d mapped twice", j).cause(ErrInvalidArgument)
		}
		used[j] = struct{}{}
		dst := replacement.InDataAnchor(j)
		if dst == nil {
			return newError(op).node(replacement).context("input %d", j).cause(ErrInvalidArgument)
		}
		if len(dst.links) > 0 && old.inData[i].Peer() != nil {
			return newError(op).anchor(dst).context("input already fed").cause(ErrStructural)
		}
	}
	for i, j := range outMap {
		if j >= 0 && i < len(old.outData) && replacement.OutDataAnchor(j) == nil {
			return newError(op).node(replacement).context("output %d", j).cause(ErrInvalidArgument)
		}
	}

	for i, in := range old.inData {
		src := in.Peer()
		if src == nil {
			continue
		}
		kind, _ := src.EdgeKindTo(in)
		unlink(src, in)
		if i < len(inMap) && inMap[i] >= 0 {
			connect(src, replacement.inData[inMap[i]], kind)
		}
	}
	for i, out := range old.outData {
		for _, l := range slices.Clone(out.links) {
			unlink(out, l.peer)
			if i < len(outMap) && outMap[i] >= 0 {
				connect(replacement.outData[outMap[i]], l.peer, l.kind)
			}
		}
	}
	MoveControlEdges(old, replacement)
	if old.graph != nil {
		old.graph.observe(op)
	}
	return nil
}

// MoveControlEdges transfers every control edge of src onto dst, skipping
// edges that would become self loops or duplicates.
func MoveControlEdges(src, dst *Node) {
	if src == nil || dst == nil || src == dst {
		return
	}
	for _, p := range src.inCtrl.Peers() {
		unlink(p, src.inCtrl)
		linkControl(p, dst.inCtrl)
	}
	for _, c := range src.outCtrl.Peers() {
		unlink(src.outCtrl, c)
		linkControl(dst.outCtrl, c)
	}
}
