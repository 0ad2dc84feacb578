package ir

// Handle addresses a Graph inside the arena of its root graph. Handles are
// generation-counted: once a subgraph is removed its slot generation moves on
// and every handle still pointing at it stops resolving.
type Handle struct {
	index uint32
	gen   uint32
}

// IsValid reports whether h was ever issued. A valid handle may still be stale.
func (h Handle) IsValid() bool { return h.gen != 0 }

type slot struct {
	gen   uint32
	graph *Graph
}

// arena is the navigation index of one subgraph forest. The graphs themselves
// are owned through the parent-to-child subgraph maps; the arena only hands out
// handles for parent back-references and keeps the root's subgraph table.
type arena struct {
	slots []slot
	free  []uint32

	// names maps every subgraph instance name in the forest to its graph.
	names map[string]Handle
	// order is the recorded subgraph list, rewritten after a successful sort.
	order []string
}

func newArena() *arena {
	return &arena{names: make(map[string]Handle)}
}

func (a *arena) register(g *Graph) Handle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx].graph = g
		return Handle{index: idx, gen: a.slots[idx].gen}
	}
	a.slots = append(a.slots, slot{gen: 1, graph: g})
	return Handle{index: uint32(len(a.slots) - 1), gen: 1}
}

func (a *arena) release(h Handle) {
	if _, ok := a.resolve(h); !ok {
		return
	}
	s := &a.slots[h.index]
	s.graph = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	a.free = append(a.free, h.index)
}

func (a *arena) resolve(h Handle) (*Graph, bool) {
	if a == nil || !h.IsValid() || int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := a.slots[h.index]
	if s.gen != h.gen || s.graph == nil {
		return nil, false
	}
	return s.graph, true
}

func (a *arena) removeName(name string) {
	delete(a.names, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			return
		}
	}
}
