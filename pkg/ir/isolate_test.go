package ir

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildChain builds D -> A -> B -> {C, NetOutput}.
func buildChain(t *testing.T) (*Graph, map[string]*Node) {
	t.Helper()
	g := NewGraph("chain")
	nodes := map[string]*Node{
		"D":   mustAdd(t, g, "D", TypeData, 0, 1),
		"A":   mustAdd(t, g, "A", "Relu", 1, 1),
		"B":   mustAdd(t, g, "B", "Cast", 1, 1),
		"C":   mustAdd(t, g, "C", "Abs", 1, 1),
		"out": mustAdd(t, g, "out", TypeNetOutput, 2, 0),
	}
	mustLink(t, nodes["D"], 0, nodes["A"], 0)
	mustLink(t, nodes["A"], 0, nodes["B"], 0)
	mustLink(t, nodes["B"], 0, nodes["C"], 0)
	mustLink(t, nodes["B"], 0, nodes["out"], 0)
	mustLink(t, nodes["C"], 0, nodes["out"], 1)
	return g, nodes
}

func TestIsolateNodeBypassesFanOut(t *testing.T) {
	g, n := buildChain(t)

	require.NoError(t, IsolateNode(n["B"], []int{0}))
	require.NoError(t, RemoveNodeWithoutRelink(g, n["B"]))

	a := n["A"].OutDataAnchor(0)
	assert.True(t, a.IsLinkedWith(n["C"].InDataAnchor(0)), "A -> C")
	assert.True(t, a.IsLinkedWith(n["out"].InDataAnchor(0)), "A -> NetOutput")
	assert.False(t, n["B"].HasEdges(), "B keeps edges")
	assert.Nil(t, g.FindNode("B"))
	assert.Equal(t, 4, g.NodeCount())
	assert.True(t, checkSymmetry(g))
}

func TestIsolateNodeWithoutMapping(t *testing.T) {
	_, n := buildChain(t)

	require.NoError(t, IsolateNode(n["B"], nil))
	assert.Equal(t, 0, n["A"].OutDataEdgeCount())
	assert.Nil(t, n["C"].InDataAnchor(0).Peer())
	assert.Nil(t, n["out"].InDataAnchor(0).Peer())
	assert.NotNil(t, n["out"].InDataAnchor(1).Peer(), "unrelated edge C -> out removed")
}

func TestIsolateNodeNegativeMapping(t *testing.T) {
	g := NewGraph("g")
	src := mustAdd(t, g, "src", "Op", 0, 2)
	split := mustAdd(t, g, "split", "Split", 2, 2)
	x := mustAdd(t, g, "x", "Op", 1, 0)
	y := mustAdd(t, g, "y", "Op", 1, 0)
	mustLink(t, src, 0, split, 0)
	mustLink(t, src, 1, split, 1)
	mustLink(t, split, 0, x, 0)
	mustLink(t, split, 1, y, 0)

	require.NoError(t, IsolateNode(split, []int{-1, 1}))
	assert.Nil(t, x.InDataAnchor(0).Peer())
	assert.Equal(t, src.OutDataAnchor(1), y.InDataAnchor(0).Peer())
}

func TestIsolateNodeMigratesControl(t *testing.T) {
	g := NewGraph("g")
	p := mustAdd(t, g, "p", "Op", 0, 1)
	before := mustAdd(t, g, "before", "Op", 0, 0)
	mid := mustAdd(t, g, "mid", "Identity", 1, 1)
	after := mustAdd(t, g, "after", "Op", 0, 0)
	use := mustAdd(t, g, "use", "Op", 1, 0)

	mustLink(t, p, 0, mid, 0)
	mustLink(t, mid, 0, use, 0)
	mustCtrl(t, before, mid)
	mustCtrl(t, mid, after)

	require.NoError(t, IsolateNodeOneIO(mid))

	assert.True(t, before.OutControlAnchor().IsLinkedWith(after.InControlAnchor()), "before -> after")
	assert.True(t, before.OutControlAnchor().IsLinkedWith(use.InControlAnchor()), "before -> use")
	assert.True(t, p.OutControlAnchor().IsLinkedWith(after.InControlAnchor()), "bypass producer -> after")
	assert.Equal(t, p.OutDataAnchor(0), use.InDataAnchor(0).Peer())
	assert.False(t, mid.HasEdges())
	assert.True(t, checkSymmetry(g))
}

func TestIsolateNodeSkipsDuplicateControl(t *testing.T) {
	g := NewGraph("g")
	a := mustAdd(t, g, "a", "Op", 0, 0)
	b := mustAdd(t, g, "b", "Op", 0, 0)
	c := mustAdd(t, g, "c", "Op", 0, 0)
	mustCtrl(t, a, b)
	mustCtrl(t, b, c)
	mustCtrl(t, a, c)

	require.NoError(t, IsolateNode(b, nil))
	assert.Equal(t, 1, a.OutControlAnchor().PeerCount())
	assert.Equal(t, 1, c.InControlAnchor().PeerCount())
}

func TestIsolateNodeOneIORejectsMultiIO(t *testing.T) {
	g := NewGraph("g")
	n := mustAdd(t, g, "n", "Add", 2, 1)
	assert.True(t, IsInvalidArgument(IsolateNodeOneIO(n)))
	assert.True(t, IsInvalidArgument(IsolateNode(nil, nil)))
}

func TestInsertNodeBefore(t *testing.T) {
	g, n := buildChain(t)
	cast := mustAdd(t, g, "cast", "Cast", 1, 1)

	require.NoError(t, InsertNodeBefore(n["C"].InDataAnchor(0), cast, 0, 0))

	assert.Equal(t, n["B"].OutDataAnchor(0), cast.InDataAnchor(0).Peer())
	assert.Equal(t, cast.OutDataAnchor(0), n["C"].InDataAnchor(0).Peer())
	assert.True(t, n["B"].OutDataAnchor(0).IsLinkedWith(n["out"].InDataAnchor(0)), "other fan-out edge untouched")
	assert.True(t, checkSymmetry(g))
}

func TestInsertNodeBeforeRejects(t *testing.T) {
	g, n := buildChain(t)
	cast := mustAdd(t, g, "cast", "Cast", 1, 1)
	detached, _ := NewNode("detached", NewOp("Cast", 1, 1))

	assert.True(t, IsStructural(InsertNodeBefore(n["D"].OutDataAnchor(0), cast, 0, 0)))
	assert.True(t, IsStructural(InsertNodeBefore(n["C"].InDataAnchor(0), detached, 0, 0)))
	assert.True(t, IsInvalidArgument(InsertNodeBefore(n["C"].InDataAnchor(0), cast, 3, 0)))
	assert.Equal(t, n["B"].OutDataAnchor(0), n["C"].InDataAnchor(0).Peer(), "failed insert mutated graph")
}

func TestInsertNodeAfter(t *testing.T) {
	tests := []struct {
		name      string
		consumers func(map[string]*Node) []*Anchor
		rerouted  []string
	}{
		{
			name:      "full fan-out",
			consumers: func(map[string]*Node) []*Anchor { return nil },
			rerouted:  []string{"C", "out"},
		},
		{
			name: "one consumer",
			consumers: func(n map[string]*Node) []*Anchor {
				return []*Anchor{n["out"].InDataAnchor(0)}
			},
			rerouted: []string{"out"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, n := buildChain(t)
			id := mustAdd(t, g, "id", "Identity", 1, 1)

			require.NoError(t, InsertNodeAfter(n["B"].OutDataAnchor(0), tt.consumers(n), id, 0, 0))

			got := names(id.OutDataNodes())
			slices.Sort(got)
			assert.Equal(t, tt.rerouted, got)
			assert.Equal(t, []string{"B"}, names(id.InDataNodes()))
			assert.True(t, checkSymmetry(g))
		})
	}
}

func TestInsertNodeAfterRejectsRepeatedConsumer(t *testing.T) {
	g, n := buildChain(t)
	id := mustAdd(t, g, "id", "Identity", 1, 1)
	c := n["C"].InDataAnchor(0)

	err := InsertNodeAfter(n["B"].OutDataAnchor(0), []*Anchor{c, c}, id, 0, 0)
	assert.True(t, IsInvalidArgument(err))
	assert.False(t, id.HasEdges())
	assert.Len(t, c.Peers(), 1)
	assert.True(t, n["B"].OutDataAnchor(0).IsLinkedWith(c))
	assert.True(t, checkSymmetry(g))
}

func TestInsertNodeAfterRejectsUnlinkedConsumer(t *testing.T) {
	g, n := buildChain(t)
	id := mustAdd(t, g, "id", "Identity", 1, 1)

	err := InsertNodeAfter(n["B"].OutDataAnchor(0), []*Anchor{n["A"].InDataAnchor(0)}, id, 0, 0)
	assert.True(t, IsStructural(err))
	assert.False(t, id.HasEdges())
}

func TestReplaceNode(t *testing.T) {
	g, n := buildChain(t)
	mustCtrl(t, n["D"], n["B"])
	repl := mustAdd(t, g, "B2", "Cast", 1, 1)

	require.NoError(t, ReplaceNode(n["B"], repl, []int{0}, []int{0}))

	assert.Equal(t, []string{"A"}, names(repl.InDataNodes()))
	got := names(repl.OutDataNodes())
	slices.Sort(got)
	assert.Equal(t, []string{"C", "out"}, got)
	assert.Equal(t, []string{"D"}, names(repl.InControlNodes()))
	assert.False(t, n["B"].HasEdges())
	assert.True(t, checkSymmetry(g))
}

func TestMoveControlEdges(t *testing.T) {
	g := NewGraph("g")
	a := mustAdd(t, g, "a", "Op", 0, 0)
	b := mustAdd(t, g, "b", "Op", 0, 0)
	c := mustAdd(t, g, "c", "Op", 0, 0)
	mustCtrl(t, a, b)
	mustCtrl(t, b, c)

	MoveControlEdges(b, c)

	assert.Equal(t, []string{"a"}, names(c.InControlNodes()))
	assert.Empty(t, c.OutControlNodes(), "self loop created")
	assert.False(t, b.HasEdges())
}

func TestRemoveNodeWithoutRelinkLeavesEdges(t *testing.T) {
	g, n := buildChain(t)
	require.NoError(t, g.AddInputNode(n["D"]))

	require.NoError(t, IsolateNode(n["D"], nil))
	require.NoError(t, RemoveNodeWithoutRelink(g, n["D"]))
	assert.Empty(t, g.InputNodes())
	assert.Nil(t, n["D"].OwnerGraph())
	assert.True(t, IsNotFound(RemoveNodeWithoutRelink(g, n["D"])))
}
