package algorithms

import "github.com/dd0wney/cluso-graphir/pkg/ir"

// delayChains slides single-consumer chains that start on long-lived values
// down to just before the first consumer of the chain's tail, shortening
// the live range of the chain's intermediate values. It returns the new
// order and the number of chains moved.
//
// A chain head has at least one data input and reads only long-lived
// producers. The chain grows while the current node has exactly one data
// edge, no control successors, and a consumer with a single data input.
// Chains whose tail has no consumers stay where they are.
func delayChains(order []*ir.Node, longLived func(*ir.Node) bool) ([]*ir.Node, int) {
	heads := nodeSlicePool.Get(len(order))
	defer func() { nodeSlicePool.Put(heads) }()
	for _, n := range order {
		if isDelayHead(n, longLived) {
			heads = append(heads, n)
		}
	}

	claimed := make(map[*ir.Node]bool)
	moved := 0
	for _, head := range heads {
		if claimed[head] {
			continue
		}
		chain := delayChain(head)
		for _, n := range chain {
			claimed[n] = true
		}
		var ok bool
		if order, ok = moveChain(order, chain); ok {
			moved++
		}
	}
	return order, moved
}

func isDelayHead(n *ir.Node, longLived func(*ir.Node) bool) bool {
	producers := dataProducers(n)
	if len(producers) == 0 {
		return false
	}
	for _, p := range producers {
		if !longLived(p) {
			return false
		}
	}
	return true
}

func delayChain(head *ir.Node) []*ir.Node {
	chain := []*ir.Node{head}
	inChain := map[*ir.Node]bool{head: true}
	for cur := head; ; {
		next := soleDataConsumer(cur)
		if next == nil || inChain[next] || len(controlConsumers(cur)) > 0 || len(dataProducers(next)) != 1 {
			return chain
		}
		chain = append(chain, next)
		inChain[next] = true
		cur = next
	}
}

// soleDataConsumer returns the consumer of n's only ordering data edge, or
// nil when n has zero or several.
func soleDataConsumer(n *ir.Node) *ir.Node {
	var only *ir.Node
	count := 0
	forEachDataConsumer(n, func(c *ir.Node) {
		only = c
		count++
	})
	if count != 1 {
		return nil
	}
	return only
}

func controlConsumers(n *ir.Node) []*ir.Node {
	var out []*ir.Node
	forEachControlConsumer(n, func(c *ir.Node) { out = append(out, c) })
	return out
}

// moveChain re-inserts chain immediately before the earliest consumer of its
// tail. It reports false, leaving order as is, when the tail has no
// consumers or the chain already sits right there.
func moveChain(order []*ir.Node, chain []*ir.Node) ([]*ir.Node, bool) {
	pos := nodeIndexPool.Get()
	defer nodeIndexPool.Put(pos)
	for i, n := range order {
		pos[n] = i
	}

	first := -1
	forEachConsumer(chain[len(chain)-1], func(c *ir.Node) {
		if p, ok := pos[c]; ok && (first < 0 || p < first) {
			first = p
		}
	})
	if first < 0 {
		return order, false
	}

	inPlace := true
	for i, n := range chain {
		if pos[n] != first-len(chain)+i {
			inPlace = false
			break
		}
	}
	if inPlace {
		return order, false
	}

	inChain := make(map[*ir.Node]bool, len(chain))
	for _, n := range chain {
		inChain[n] = true
	}
	out := make([]*ir.Node, 0, len(order))
	for i, n := range order {
		if i == first {
			out = append(out, chain...)
		}
		if !inChain[n] {
			out = append(out, n)
		}
	}
	return out, true
}
