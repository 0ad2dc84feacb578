package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-graphir/pkg/logging"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.TopoSortingMode)
	assert.False(t, cfg.MemoryPriority)
	assert.Equal(t, logging.InfoLevel, cfg.Level())
	assert.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
topo_sorting_mode: rdfs
memory_priority: true
input_order: [data_b, data_a]
dump_on_failure: true
dump_dir: /var/tmp/dumps
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "rdfs", cfg.TopoSortingMode)
	assert.True(t, cfg.MemoryPriority)
	assert.Equal(t, []string{"data_b", "data_a"}, cfg.InputOrder)
	assert.Equal(t, "/var/tmp/dumps", cfg.DumpDir)
	assert.Equal(t, logging.DebugLevel, cfg.Level())
	assert.NoError(t, cfg.Validate())
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("topo_mode: bfs\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphir.yaml")
	require.NoError(t, os.WriteFile(path, []byte("topo_sorting_mode: \"1\"\ndfs_reverse: true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1", cfg.TopoSortingMode)
	assert.True(t, cfg.DFSReverse)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvTopoSortingMode, "dfs")
	t.Setenv(EnvMemoryPriority, "true")
	t.Setenv(EnvTrainingMode, "1")
	t.Setenv(EnvInputOrder, " x , y ,")
	t.Setenv(EnvLogLevel, "warn")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "dfs", cfg.TopoSortingMode)
	assert.True(t, cfg.MemoryPriority)
	assert.True(t, cfg.TrainingMode)
	assert.Equal(t, []string{"x", "y"}, cfg.InputOrder)
	assert.Equal(t, logging.WarnLevel, cfg.Level())
}

func TestApplyEnvRejectsBadBool(t *testing.T) {
	t.Setenv(EnvDumpOnFailure, "sometimes")

	cfg := Default()
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvDumpOnFailure)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"numeric mode", func(c *Config) { c.TopoSortingMode = "2" }, false},
		{"unknown mode", func(c *Config) { c.TopoSortingMode = "kahn" }, true},
		{"unknown level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"bad input name", func(c *Config) { c.InputOrder = []string{"ok", "not ok"} }, true},
		{"dump without dir", func(c *Config) { c.DumpOnFailure = true; c.DumpDir = "" }, true},
		{"repeated input", func(c *Config) { c.InputOrder = []string{"a", "b", "a"} }, true},
		{"dump with dir", func(c *Config) { c.DumpOnFailure = true }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphir.yaml")
	require.NoError(t, os.WriteFile(path, []byte("topo_sorting_mode: bfs\n"), 0o600))
	t.Setenv(EnvTopoSortingMode, "rdfs")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "rdfs", cfg.TopoSortingMode, "environment overrides the file")

	t.Setenv(EnvTopoSortingMode, "sideways")
	_, err = LoadFromEnv("")
	assert.Error(t, err)
}
