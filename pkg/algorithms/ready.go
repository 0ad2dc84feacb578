package algorithms

import (
	"container/heap"
	"slices"

	"github.com/dd0wney/cluso-graphir/pkg/ir"
)

// readySet holds nodes whose ordering predecessors have all been emitted.
type readySet interface {
	// seed loads the initial zero in-degree nodes; the first pops first.
	seed(nodes []*ir.Node)
	// pushBatch adds nodes made ready by one edge class of one node.
	pushBatch(nodes []*ir.Node)
	pop() *ir.Node
	len() int
}

// fifo is the breadth-first frontier.
type fifo struct {
	items []*ir.Node
	head  int
}

func (q *fifo) seed(nodes []*ir.Node)      { q.items = append(q.items, nodes...) }
func (q *fifo) pushBatch(nodes []*ir.Node) { q.items = append(q.items, nodes...) }
func (q *fifo) len() int                   { return len(q.items) - q.head }

func (q *fifo) pop() *ir.Node {
	n := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	return n
}

// lifo is the depth-first frontier. A batch is pushed in order, so its last
// node is popped first; reverse flips the batch before pushing.
type lifo struct {
	items   []*ir.Node
	reverse bool
}

func (s *lifo) seed(nodes []*ir.Node) {
	for i := len(nodes) - 1; i >= 0; i-- {
		s.items = append(s.items, nodes[i])
	}
}

func (s *lifo) pushBatch(nodes []*ir.Node) {
	if s.reverse {
		for i := len(nodes) - 1; i >= 0; i-- {
			s.items = append(s.items, nodes[i])
		}
		return
	}
	s.items = append(s.items, nodes...)
}

func (s *lifo) pop() *ir.Node {
	n := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	return n
}

func (s *lifo) len() int { return len(s.items) }

// memKey orders ready nodes under memory priority: fewer downstream data
// consumers first, then smaller estimated output, then name.
type memKey struct {
	consumers int
	bytes     int64
	name      string
}

func (a memKey) less(b memKey) bool {
	if a.consumers != b.consumers {
		return a.consumers < b.consumers
	}
	if a.bytes != b.bytes {
		return a.bytes < b.bytes
	}
	return a.name < b.name
}

func memKeyOf(n *ir.Node) memKey {
	return memKey{
		consumers: dataConsumerCount(n),
		bytes:     ir.EstimateOutputBytes(n),
		name:      n.Name(),
	}
}

// memoryPriority is a min-heap of ready nodes keyed by memKey.
type memoryPriority struct {
	h nodeHeap
}

func newMemoryPriority() *memoryPriority {
	return &memoryPriority{h: nodeHeap{keys: make(map[*ir.Node]memKey)}}
}

func (p *memoryPriority) seed(nodes []*ir.Node) { p.pushBatch(nodes) }

func (p *memoryPriority) pushBatch(nodes []*ir.Node) {
	for _, n := range nodes {
		if _, ok := p.h.keys[n]; !ok {
			p.h.keys[n] = memKeyOf(n)
		}
		heap.Push(&p.h, n)
	}
}

func (p *memoryPriority) pop() *ir.Node { return heap.Pop(&p.h).(*ir.Node) }
func (p *memoryPriority) len() int      { return p.h.Len() }

// nodeHeap implements heap.Interface over cached keys.
type nodeHeap struct {
	nodes []*ir.Node
	keys  map[*ir.Node]memKey
}

func (h nodeHeap) Len() int           { return len(h.nodes) }
func (h nodeHeap) Less(i, j int) bool { return h.keys[h.nodes[i]].less(h.keys[h.nodes[j]]) }
func (h nodeHeap) Swap(i, j int)      { h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i] }
func (h *nodeHeap) Push(x any)        { h.nodes = append(h.nodes, x.(*ir.Node)) }

func (h *nodeHeap) Pop() any {
	old := h.nodes
	n := old[len(old)-1]
	old[len(old)-1] = nil
	h.nodes = old[:len(old)-1]
	return n
}

// byOutputBytesDesc orders RDFS predecessors: larger estimated output first,
// then name.
func byOutputBytesDesc(nodes []*ir.Node) {
	slices.SortStableFunc(nodes, func(a, b *ir.Node) int {
		ba, bb := ir.EstimateOutputBytes(a), ir.EstimateOutputBytes(b)
		switch {
		case ba > bb:
			return -1
		case ba < bb:
			return 1
		}
		switch {
		case a.Name() < b.Name():
			return -1
		case a.Name() > b.Name():
			return 1
		}
		return 0
	})
}
