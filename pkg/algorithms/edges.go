package algorithms

import "github.com/dd0wney/cluso-graphir/pkg/ir"

// The sort engine only follows ordering edges. Back edges (loop
// "next iteration" links) are skipped everywhere in this package.

func ordering(a, peer *ir.Anchor) bool {
	kind, ok := a.EdgeKindTo(peer)
	return ok && kind != ir.EdgeBack
}

// forEachDataConsumer calls fn once per outgoing ordering data edge of n,
// in output then link order.
func forEachDataConsumer(n *ir.Node, fn func(*ir.Node)) {
	for _, out := range n.OutDataAnchors() {
		for _, peer := range out.Peers() {
			if ordering(out, peer) {
				fn(peer.Owner())
			}
		}
	}
}

// forEachControlConsumer calls fn once per outgoing ordering control edge of n.
func forEachControlConsumer(n *ir.Node, fn func(*ir.Node)) {
	out := n.OutControlAnchor()
	for _, peer := range out.Peers() {
		if ordering(out, peer) {
			fn(peer.Owner())
		}
	}
}

// forEachConsumer visits data consumers first, then control consumers.
func forEachConsumer(n *ir.Node, fn func(*ir.Node)) {
	forEachDataConsumer(n, fn)
	forEachControlConsumer(n, fn)
}

// dataProducers returns the producers feeding n through ordering data edges,
// in input order, one entry per input.
func dataProducers(n *ir.Node) []*ir.Node {
	var producers []*ir.Node
	for _, in := range n.InDataAnchors() {
		if peer := in.Peer(); peer != nil && ordering(in, peer) {
			producers = append(producers, peer.Owner())
		}
	}
	return producers
}

// controlProducers returns the control predecessors of n over ordering edges.
func controlProducers(n *ir.Node) []*ir.Node {
	var producers []*ir.Node
	in := n.InControlAnchor()
	for _, peer := range in.Peers() {
		if ordering(in, peer) {
			producers = append(producers, peer.Owner())
		}
	}
	return producers
}

// inDegree counts the ordering edges arriving at n.
func inDegree(n *ir.Node) int {
	return len(dataProducers(n)) + len(controlProducers(n))
}

// dataConsumerCount counts the ordering data edges leaving n.
func dataConsumerCount(n *ir.Node) int {
	c := 0
	forEachDataConsumer(n, func(*ir.Node) { c++ })
	return c
}

// hasConsumers reports whether any ordering edge leaves n.
func hasConsumers(n *ir.Node) bool {
	found := false
	forEachConsumer(n, func(*ir.Node) { found = true })
	return found
}
