package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-graphir/pkg/dump"
	"github.com/dd0wney/cluso-graphir/pkg/graphdef"
	"github.com/dd0wney/cluso-graphir/pkg/ir"
)

const addGraph = `
name: add
nodes:
  - {name: d1, type: Data, outputs: [{dims: [4], elem_size: 4}]}
  - {name: d2, type: Data, outputs: [{dims: [4], elem_size: 4}]}
  - {name: out, type: NetOutput, inputs: 1}
  - {name: sum, type: Add, inputs: 2, output_count: 1}
edges:
  - {from: "d1:0", to: "sum:0"}
  - {from: "d2:0", to: "sum:1"}
  - {from: "sum:0", to: "out:0"}
inputs: [d1, d2]
`

const cyclicGraph = `
name: loop
nodes:
  - {name: a, type: Op}
  - {name: b, type: Op}
edges:
  - {from: a, to: b, control: true}
  - {from: b, to: a, control: true}
`

const chainGraph = `
name: chain
nodes:
  - {name: a, type: Data, output_count: 1}
  - {name: b, type: Relu, inputs: 1, output_count: 1}
  - {name: c, type: NetOutput, inputs: 1}
edges:
  - {from: "a:0", to: "b:0"}
  - {from: "b:0", to: "c:0"}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCmd(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func nodeOrder(def *graphdef.Definition) []string {
	names := make([]string, len(def.Nodes))
	for i, n := range def.Nodes {
		names[i] = n.Name
	}
	return names
}

func TestUsage(t *testing.T) {
	code, _, stderr := runCmd()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage:")

	code, stdout, _ := runCmd("help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Available Commands:")

	code, stdout, _ = runCmd("version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, version)

	code, _, stderr = runCmd("frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Unknown command: frobnicate")
}

func TestSortWritesOrderedDefinition(t *testing.T) {
	path := writeFile(t, "add.yaml", addGraph)

	code, stdout, stderr := runCmd("sort", "-strategy", "bfs", "-o", "-", path)
	require.Equal(t, 0, code, stderr)

	def, err := graphdef.Parse(strings.NewReader(stdout))
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2", "sum", "out"}, nodeOrder(def))
}

func TestSortPrintsOrderAndMetrics(t *testing.T) {
	path := writeFile(t, "add.yaml", addGraph)
	metricsFile := filepath.Join(t.TempDir(), "sort.prom")
	out := filepath.Join(t.TempDir(), "sorted.yaml")

	code, stdout, stderr := runCmd("sort", "-strategy", "dfs", "-metrics-file", metricsFile, "-o", out, path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Sorted add with dfs")
	assert.Contains(t, stdout, "sum")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `graphir_sorts_total{outcome="success",strategy="dfs"} 1`)
	assert.Contains(t, string(prom), "graphir_goroutines")

	def, err := graphdef.Load(out)
	require.NoError(t, err)
	assert.Equal(t, "add", def.Name)
}

func TestSortRejectsBadInput(t *testing.T) {
	path := writeFile(t, "add.yaml", addGraph)

	code, _, stderr := runCmd("sort", "-strategy", "sideways", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown topological sorting mode")

	code, _, _ = runCmd("sort")
	assert.Equal(t, 1, code)

	code, _, _ = runCmd("sort", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 1, code)
}

func TestSortBatch(t *testing.T) {
	add := writeFile(t, "add.yaml", addGraph)
	chain := writeFile(t, "chain.yaml", chainGraph)
	loop := writeFile(t, "loop.yaml", cyclicGraph)

	code, stdout, stderr := runCmd("sort", "-workers", "2", add, chain)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, add)
	assert.Contains(t, stdout, chain)

	code, stdout, stderr = runCmd("sort", add, loop)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, loop+": ")
	assert.Contains(t, stderr, "2 node(s) unvisited")

	code, _, stderr = runCmd("sort", "-o", "-", add, chain)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "-o needs a single graph file")
}

func TestSortCycleWritesDump(t *testing.T) {
	dumpDir := t.TempDir()
	cfg := writeFile(t, "config.yaml", "dump_on_failure: true\ndump_dir: "+dumpDir+"\nlog_level: error\n")
	path := writeFile(t, "loop.yaml", cyclicGraph)

	code, stdout, _ := runCmd("sort", "-config", cfg, "-strategy", "bfs", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "2 nodes could not be ordered")

	files, err := dump.List(dumpDir, "topo_sort_failed")
	require.NoError(t, err)
	require.Len(t, files, 1)

	code, stdout, _ = runCmd("dump", "-dir", dumpDir)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, files[0])

	code, stdout, _ = runCmd("dump", files[0])
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "topo_sort_failed_loop")

	code, stdout, stderr := runCmd("dump", "-yaml", files[0])
	require.Equal(t, 0, code, stderr)
	def, err := graphdef.Parse(strings.NewReader(stdout))
	require.NoError(t, err)
	assert.Equal(t, "loop", def.Name)
	assert.Len(t, def.Edges, 2)
}

func TestDumpListEmpty(t *testing.T) {
	code, stdout, _ := runCmd("dump", "-dir", t.TempDir())
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "no dumps")
}

func TestCheck(t *testing.T) {
	code, stdout, _ := runCmd("check", writeFile(t, "add.yaml", addGraph))
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "all graphs are acyclic")
	assert.Contains(t, stdout, "components: 4 (largest 1, singletons 4)")

	code, stdout, stderr := runCmd("check", writeFile(t, "loop.yaml", cyclicGraph))
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "components: 1 (largest 2, singletons 0)")
	assert.Contains(t, stdout, "cyclic component: a, b")
	assert.Contains(t, stderr, "graph contains cycles")
}

func TestIsolateBypassesNode(t *testing.T) {
	path := writeFile(t, "chain.yaml", chainGraph)

	code, stdout, stderr := runCmd("isolate", "-node", "b", "-io", "0", path)
	require.Equal(t, 0, code, stderr)

	def, err := graphdef.Parse(strings.NewReader(stdout))
	require.NoError(t, err)
	g, err := graphdef.Build(def)
	require.NoError(t, err)

	assert.Nil(t, g.FindNode("b"))
	producers := g.FindNode("c").InDataNodes()
	require.Len(t, producers, 1)
	assert.Equal(t, "a", producers[0].Name())
}

func TestIsolateErrors(t *testing.T) {
	path := writeFile(t, "chain.yaml", chainGraph)

	code, _, stderr := runCmd("isolate", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "-node is required")

	code, _, stderr = runCmd("isolate", "-node", "ghost", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not found")

	code, _, stderr = runCmd("isolate", "-node", "b", "-io", "x", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "io mapping")
}

func TestParseIOMap(t *testing.T) {
	m, err := parseIOMap("")
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = parseIOMap("0, -1,2")
	require.NoError(t, err)
	assert.Equal(t, []int{0, -1, 2}, m)
}

func TestViewModel(t *testing.T) {
	def, err := graphdef.Parse(strings.NewReader(`
name: main
nodes:
  - {name: x, type: Data, output_count: 1}
  - {name: if, type: If, inputs: 1}
edges:
  - {from: "x:0", to: "if:0"}
subgraphs:
  - owner: if
    graph:
      name: then
      nodes:
        - {name: arg, type: Data, outputs: [{dims: [8], elem_size: 2}]}
`))
	require.NoError(t, err)
	g, err := graphdef.Build(def)
	require.NoError(t, err)

	m := newViewModel(g, nil)
	require.Len(t, m.graphs, 2)
	assert.Len(t, m.table.Rows(), 2)
	assert.Contains(t, m.View(), "sorted 2 graphs")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(viewModel)
	assert.Equal(t, 1, m.current)
	rows := m.table.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "arg", rows[0][1])
	assert.Equal(t, "16", rows[0][3])

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 0, next.(viewModel).current)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
}

func TestViewModelShowsFailure(t *testing.T) {
	m := newViewModel(ir.NewGraph("empty"), assert.AnError)
	assert.True(t, m.failed)
	assert.Contains(t, m.View(), assert.AnError.Error())
	assert.Equal(t, "unknown", formatBytes(ir.UnknownTensorBytes))
}
