package graphdef

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-graphir/pkg/ir"
)

const loopYAML = `
name: main
nodes:
  - {name: x, type: Data, outputs: [{dims: [2, 3], elem_size: 4}]}
  - {name: merge, type: Merge, inputs: 2, output_count: 1}
  - {name: loop, type: While, inputs: 1, output_count: 1}
  - {name: next, type: NextIteration, inputs: 1, output_count: 1}
  - {name: out, type: NetOutput, inputs: 1}
edges:
  - {from: "x:0", to: "merge:0"}
  - {from: "merge:0", to: "loop:0"}
  - {from: "loop:0", to: "next:0"}
  - {from: "next:0", to: "merge:1", back: true}
  - {from: "next:0", to: "out:0"}
  - {from: x, to: out, control: true}
inputs: [x]
outputs: ["next:0"]
subgraphs:
  - owner: loop
    graph:
      name: body
      nodes:
        - {name: arg, type: Data, output_count: 1}
        - {name: ret, type: NetOutput, inputs: 1}
      edges:
        - {from: "arg:0", to: "ret:0"}
`

func TestParseAndBuild(t *testing.T) {
	def, err := Parse(strings.NewReader(loopYAML))
	require.NoError(t, err)
	require.Len(t, def.Nodes, 5)

	g, err := Build(def)
	require.NoError(t, err)

	assert.Equal(t, "main", g.Name())
	assert.Equal(t, 5, g.NodeCount())
	assert.Equal(t, int64(24), ir.EstimateOutputBytes(g.FindNode("x")))

	merge := g.FindNode("merge")
	kind, ok := merge.InDataAnchor(1).EdgeKindTo(g.FindNode("next").OutDataAnchor(0))
	require.True(t, ok)
	assert.Equal(t, ir.EdgeBack, kind)
	assert.Equal(t, []string{"x"}, nodeNames(g.FindNode("out").InControlNodes()))

	require.Len(t, g.InputNodes(), 1)
	require.Len(t, g.OutputNodes(), 1)
	assert.Equal(t, "next", g.OutputNodes()[0].Node.Name())

	body := g.GetSubgraph("body")
	require.NotNil(t, body)
	assert.Equal(t, "loop", body.ParentNode().Name())
	assert.Equal(t, []string{"body"}, g.FindNode("loop").SubgraphInstanceNames())
}

func TestFromGraphRoundTrip(t *testing.T) {
	def, err := Parse(strings.NewReader(loopYAML))
	require.NoError(t, err)
	g, err := Build(def)
	require.NoError(t, err)

	data, err := Marshal(FromGraph(g))
	require.NoError(t, err)

	again, err := Parse(bytes.NewReader(data))
	require.NoError(t, err, string(data))
	rebuilt, err := Build(again)
	require.NoError(t, err)

	assert.True(t, g.Equal(rebuilt), string(data))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.yaml")
	require.NoError(t, os.WriteFile(path, []byte(loopYAML), 0o600))

	def, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "main", def.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"unknown key", "name: g\ncolour: red\n"},
		{"missing name", "nodes: [{name: a, type: Op}]\n"},
		{"bad node name", "name: g\nnodes: [{name: 'a b', type: Op}]\n"},
		{"bad op type", "name: g\nnodes: [{name: a, type: '1x'}]\n"},
		{"repeated node", "name: g\nnodes: [{name: a, type: Op}, {name: a, type: Op}]\n"},
		{"repeated subgraph node", "name: g\nnodes: [{name: if, type: If}]\nsubgraphs: [{owner: if, graph: {name: s, nodes: [{name: x, type: Op}, {name: x, type: Op}]}}]\n"},
		{"negative inputs", "name: g\nnodes: [{name: a, type: Op, inputs: -1}]\n"},
		{"edge without target", "name: g\nedges: [{from: 'a:0'}]\n"},
		{"subgraph without owner", "name: g\nsubgraphs: [{graph: {name: s}}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestBuildRejects(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr error
	}{
		{
			name: "duplicate node",
			def: Definition{Name: "g", Nodes: []NodeDef{
				{Name: "a", Type: "Op"}, {Name: "a", Type: "Op"},
			}},
			wantErr: ir.ErrDuplicateName,
		},
		{
			name: "unknown edge node",
			def: Definition{Name: "g", Nodes: []NodeDef{{Name: "a", Type: "Op", OutputCount: 1}},
				Edges: []EdgeDef{{From: "a:0", To: "b:0"}}},
			wantErr: ir.ErrNotFound,
		},
		{
			name: "anchor out of range",
			def: Definition{Name: "g", Nodes: []NodeDef{{Name: "a", Type: "Op", OutputCount: 1}, {Name: "b", Type: "Op", Inputs: 1}},
				Edges: []EdgeDef{{From: "a:3", To: "b:0"}}},
			wantErr: ErrInvalidDefinition,
		},
		{
			name: "data endpoint without index",
			def: Definition{Name: "g", Nodes: []NodeDef{{Name: "a", Type: "Op", OutputCount: 1}, {Name: "b", Type: "Op", Inputs: 1}},
				Edges: []EdgeDef{{From: "a", To: "b:0"}}},
			wantErr: ErrInvalidDefinition,
		},
		{
			name: "second producer",
			def: Definition{Name: "g", Nodes: []NodeDef{
				{Name: "a", Type: "Op", OutputCount: 1}, {Name: "b", Type: "Op", OutputCount: 1}, {Name: "c", Type: "Op", Inputs: 1},
			}, Edges: []EdgeDef{{From: "a:0", To: "c:0"}, {From: "b:0", To: "c:0"}}},
			wantErr: ir.ErrStructural,
		},
		{
			name:    "unknown input",
			def:     Definition{Name: "g", Inputs: []string{"ghost"}},
			wantErr: ir.ErrInvalidArgument,
		},
		{
			name: "unknown subgraph owner",
			def: Definition{Name: "g", Subgraphs: []SubgraphDef{
				{Owner: "ghost", Graph: Definition{Name: "s"}},
			}},
			wantErr: ir.ErrNotFound,
		},
		{
			name: "duplicate subgraph name",
			def: Definition{Name: "g", Nodes: []NodeDef{{Name: "if", Type: "If"}}, Subgraphs: []SubgraphDef{
				{Owner: "if", Graph: Definition{Name: "s"}},
				{Owner: "if", Graph: Definition{Name: "s"}},
			}},
			wantErr: ir.ErrDuplicateName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(&tt.def)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	ep, err := parseEndpoint("scope/a:b:2", false)
	require.NoError(t, err)
	assert.Equal(t, endpoint{node: "scope/a:b", index: 2}, ep)
	assert.Equal(t, "scope/a:b:2", ep.String())

	ep, err = parseEndpoint("a", true)
	require.NoError(t, err)
	assert.Equal(t, "a", ep.String())

	for _, bad := range []string{"a", ":1", "a:", "a:x", "a:-1"} {
		_, err := parseEndpoint(bad, false)
		assert.Error(t, err, bad)
	}
}

func nodeNames(nodes []*ir.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}
