package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-graphir/pkg/config"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"0", BFS, false},
		{"1", DFS, false},
		{"2", RDFS, false},
		{"bfs", BFS, false},
		{" DFS ", DFS, false},
		{"RDFS", RDFS, false},
		{"3", BFS, true},
		{"kahn", BFS, true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSortStrategyFromConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want Strategy
	}{
		{"inference defaults to dfs", config.Config{}, DFS},
		{"training defaults to bfs", config.Config{TrainingMode: true}, BFS},
		{"explicit mode wins", config.Config{TrainingMode: true, TopoSortingMode: "2"}, RDFS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SortStrategyFromConfig(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SortStrategyFromConfig(config.Config{TopoSortingMode: "sideways"})
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := OptionsFromConfig(config.Config{
		TopoSortingMode: "dfs",
		MemoryPriority:  true,
		DFSReverse:      true,
		InputOrder:      []string{"b", "a"},
	})
	require.NoError(t, err)
	assert.Equal(t, Options{Strategy: DFS, MemoryPriority: true, Reverse: true, InputOrder: []string{"b", "a"}}, opts)
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "bfs", BFS.String())
	assert.Equal(t, "rdfs", RDFS.String())
	assert.Equal(t, "strategy(9)", Strategy(9).String())
}
