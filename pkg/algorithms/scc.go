package algorithms

import "github.com/dd0wney/cluso-graphir/pkg/ir"

// SCCResult holds the strongly connected components of a graph, in the order
// Tarjan's algorithm completes them (reverse topological order of the
// condensation).
type SCCResult struct {
	Components    [][]*ir.Node
	NodeComponent map[*ir.Node]int
	// LargestSCC is the first component of maximal size.
	LargestSCC     []*ir.Node
	SingletonCount int
}

// Cyclic returns the components that contain a cycle: those with more than
// one node and single nodes with a self edge.
func (r *SCCResult) Cyclic() [][]*ir.Node {
	var out [][]*ir.Node
	for _, c := range r.Components {
		if len(c) > 1 || selfLinked(c[0]) {
			out = append(out, c)
		}
	}
	return out
}

// CondensationEdge represents a directed edge in the condensation DAG, where each
// SCC has been contracted to a single node.
type CondensationEdge struct {
	FromSCCID int
	ToSCCID   int
	EdgeCount int
}

// tarjanState holds per-node state during Tarjan's DFS.
type tarjanState struct {
	index   int
	lowlink int
	onStack bool
}

// StronglyConnectedComponents finds all SCCs of the direct nodes of g using
// Tarjan's algorithm in O(V+E) time. Back edges are not followed.
func StronglyConnectedComponents(g *ir.Graph) *SCCResult {
	nodes := g.DirectNodes()
	state := make(map[*ir.Node]*tarjanState, len(nodes))
	var stack []*ir.Node
	indexCounter := 0
	result := &SCCResult{NodeComponent: make(map[*ir.Node]int, len(nodes))}

	var strongconnect func(u *ir.Node)
	strongconnect = func(u *ir.Node) {
		state[u] = &tarjanState{
			index:   indexCounter,
			lowlink: indexCounter,
			onStack: true,
		}
		indexCounter++
		stack = append(stack, u)

		for _, v := range uniqueConsumers(u) {
			if _, exists := state[v]; !exists {
				strongconnect(v)
				state[u].lowlink = min(state[u].lowlink, state[v].lowlink)
			} else if state[v].onStack {
				state[u].lowlink = min(state[u].lowlink, state[v].index)
			}
		}

		// u is the root of a component: pop it off the stack
		if state[u].lowlink == state[u].index {
			id := len(result.Components)
			var members []*ir.Node
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				state[w].onStack = false
				members = append(members, w)
				result.NodeComponent[w] = id
				if w == u {
					break
				}
			}
			result.Components = append(result.Components, members)
		}
	}

	for _, n := range nodes {
		if _, exists := state[n]; !exists {
			strongconnect(n)
		}
	}

	for _, c := range result.Components {
		if len(c) == 1 {
			result.SingletonCount++
		}
		if len(c) > len(result.LargestSCC) {
			result.LargestSCC = c
		}
	}
	return result
}

// Condensation builds the condensation DAG from an SCC result. Each SCC becomes
// a single node; edges between SCCs are aggregated with their count. Edges
// are returned in component then discovery order.
func Condensation(scc *SCCResult) []CondensationEdge {
	type edgeKey struct{ from, to int }
	counts := make(map[edgeKey]int)
	var keys []edgeKey

	for from, members := range scc.Components {
		for _, n := range members {
			forEachConsumer(n, func(c *ir.Node) {
				to, ok := scc.NodeComponent[c]
				if !ok || to == from {
					return
				}
				k := edgeKey{from, to}
				if counts[k] == 0 {
					keys = append(keys, k)
				}
				counts[k]++
			})
		}
	}

	result := make([]CondensationEdge, 0, len(keys))
	for _, k := range keys {
		result = append(result, CondensationEdge{FromSCCID: k.from, ToSCCID: k.to, EdgeCount: counts[k]})
	}
	return result
}

func selfLinked(n *ir.Node) bool {
	found := false
	forEachConsumer(n, func(c *ir.Node) {
		if c == n {
			found = true
		}
	})
	return found
}
