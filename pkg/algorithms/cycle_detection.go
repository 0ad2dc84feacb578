package algorithms

import "github.com/dd0wney/cluso-graphir/pkg/ir"

// Cycle is a detected cycle as a sequence of nodes; the last node has an
// ordering edge back to the first.
type Cycle []*ir.Node

// Names returns the node names of the cycle.
func (c Cycle) Names() []string {
	names := make([]string, len(c))
	for i, n := range c {
		names[i] = n.Name()
	}
	return names
}

const (
	white = 0 // unvisited
	gray  = 1 // on the recursion stack
	black = 2 // finished
)

// DetectCycles finds cycles among the direct nodes of g using DFS with
// three-colour marking. Back edges are not followed, so loop constructs that
// close through a back edge are not reported.
//
// Every cycle in g has at least one of its edges reported as a DFS back edge,
// so the result is empty exactly when g can be topologically sorted. It does
// not enumerate every elementary cycle.
func DetectCycles(g *ir.Graph) []Cycle {
	return detectCycles(g.DirectNodes(), nil)
}

// detectCycles runs the search from each node in order. When include is set,
// only nodes it accepts are entered.
func detectCycles(nodes []*ir.Node, include func(*ir.Node) bool) []Cycle {
	color := make(map[*ir.Node]int, len(nodes))
	parent := make(map[*ir.Node]*ir.Node, len(nodes))
	var cycles []Cycle

	for _, n := range nodes {
		if include != nil && !include(n) {
			continue
		}
		if color[n] == white {
			dfsDetectCycle(n, include, color, parent, &cycles)
		}
	}
	return cycles
}

func dfsDetectCycle(
	n *ir.Node,
	include func(*ir.Node) bool,
	color map[*ir.Node]int,
	parent map[*ir.Node]*ir.Node,
	cycles *[]Cycle,
) {
	color[n] = gray

	for _, next := range uniqueConsumers(n) {
		if include != nil && !include(next) {
			continue
		}
		if next == n {
			*cycles = append(*cycles, Cycle{n})
			continue
		}

		switch color[next] {
		case white:
			parent[next] = n
			dfsDetectCycle(next, include, color, parent, cycles)
		case gray:
			*cycles = append(*cycles, extractCycle(next, n, parent))
		}
		// black: forward or cross edge, no cycle through it
	}

	color[n] = black
}

// extractCycle rebuilds the cycle closed by the back edge end -> start by
// walking parent pointers from end up to start.
func extractCycle(start, end *ir.Node, parent map[*ir.Node]*ir.Node) Cycle {
	var rev Cycle
	for cur := end; cur != start; {
		rev = append(rev, cur)
		p, ok := parent[cur]
		if !ok {
			break
		}
		cur = p
	}
	cycle := make(Cycle, 0, len(rev)+1)
	cycle = append(cycle, start)
	for i := len(rev) - 1; i >= 0; i-- {
		cycle = append(cycle, rev[i])
	}
	return cycle
}

// uniqueConsumers returns the ordering successors of n, data first, each once.
func uniqueConsumers(n *ir.Node) []*ir.Node {
	var out []*ir.Node
	seen := make(map[*ir.Node]struct{})
	forEachConsumer(n, func(c *ir.Node) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	})
	return out
}

// CycleStats provides statistics about detected cycles
type CycleStats struct {
	TotalCycles   int
	ShortestCycle int
	LongestCycle  int
	AverageLength float64
	SelfLoops     int // Number of self-referencing nodes
}

// AnalyzeCycles computes statistics about detected cycles
func AnalyzeCycles(cycles []Cycle) CycleStats {
	if len(cycles) == 0 {
		return CycleStats{}
	}

	stats := CycleStats{
		TotalCycles:   len(cycles),
		ShortestCycle: len(cycles[0]),
		LongestCycle:  len(cycles[0]),
	}

	totalLength := 0
	for _, cycle := range cycles {
		length := len(cycle)
		totalLength += length

		if length == 1 {
			stats.SelfLoops++
		}
		stats.ShortestCycle = min(stats.ShortestCycle, length)
		stats.LongestCycle = max(stats.LongestCycle, length)
	}

	stats.AverageLength = float64(totalLength) / float64(len(cycles))
	return stats
}

// HasCycle reports whether g contains a cycle over ordering edges. It stops
// at the first one found.
func HasCycle(g *ir.Graph) bool {
	color := make(map[*ir.Node]int, g.NodeCount())
	for n := range g.Nodes() {
		if color[n] == white && hasCycleDFS(n, color) {
			return true
		}
	}
	return false
}

func hasCycleDFS(n *ir.Node, color map[*ir.Node]int) bool {
	color[n] = gray
	for _, next := range uniqueConsumers(n) {
		switch color[next] {
		case white:
			if hasCycleDFS(next, color) {
				return true
			}
		case gray:
			return true
		}
	}
	color[n] = black
	return false
}

// IsDAG reports whether g can be topologically sorted.
func IsDAG(g *ir.Graph) bool {
	return !HasCycle(g)
}
