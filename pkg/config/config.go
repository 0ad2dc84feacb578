// Package config holds the engine configuration: the topological sort
// policy, diagnostic dump settings and logging level. Values come from
// defaults, an optional YAML file and GRAPHIR_* environment variables, in
// that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-graphir/pkg/logging"
	"github.com/dd0wney/cluso-graphir/pkg/validation"
)

// Environment variables read by ApplyEnv.
const (
	EnvTopoSortingMode = "GRAPHIR_TOPO_SORTING_MODE"
	EnvMemoryPriority  = "GRAPHIR_MEMORY_PRIORITY"
	EnvTrainingMode    = "GRAPHIR_TRAINING_MODE"
	EnvDFSReverse      = "GRAPHIR_DFS_REVERSE"
	EnvInputOrder      = "GRAPHIR_INPUT_ORDER"
	EnvDumpDir         = "GRAPHIR_DUMP_DIR"
	EnvDumpOnFailure   = "GRAPHIR_DUMP_ON_FAILURE"
	EnvLogLevel        = "GRAPHIR_LOG_LEVEL"
)

// Config is the engine configuration.
type Config struct {
	// TopoSortingMode selects the sort strategy: 0/bfs, 1/dfs or 2/rdfs.
	// Empty lets TrainingMode decide.
	TopoSortingMode string `yaml:"topo_sorting_mode" validate:"sortmode"`

	// MemoryPriority orders ready nodes to shorten value live ranges.
	MemoryPriority bool `yaml:"memory_priority"`

	// TrainingMode selects BFS when no explicit mode is set; inference uses DFS.
	TrainingMode bool `yaml:"training_mode"`

	// DFSReverse reverses the order ready successors are pushed in DFS.
	DFSReverse bool `yaml:"dfs_reverse"`

	// InputOrder is the declared relative order of graph-input nodes.
	InputOrder []string `yaml:"input_order" validate:"dive,irname"`

	// DumpDir is where diagnostic dumps are written.
	DumpDir string `yaml:"dump_dir"`

	// DumpOnFailure writes a dump of the unsorted graph when a sort fails.
	DumpOnFailure bool `yaml:"dump_on_failure"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DumpDir:  os.TempDir(),
		LogLevel: "info",
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from GRAPHIR_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvTopoSortingMode); ok {
		c.TopoSortingMode = v
	}
	if v, ok := os.LookupEnv(EnvInputOrder); ok {
		c.InputOrder = splitAndTrim(v, ",")
	}
	if v, ok := os.LookupEnv(EnvDumpDir); ok {
		c.DumpDir = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}

	bools := []struct {
		env string
		dst *bool
	}{
		{EnvMemoryPriority, &c.MemoryPriority},
		{EnvTrainingMode, &c.TrainingMode},
		{EnvDFSReverse, &c.DFSReverse},
		{EnvDumpOnFailure, &c.DumpOnFailure},
	}
	for _, b := range bools {
		v, ok := os.LookupEnv(b.env)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", b.env, v, err)
		}
		*b.dst = parsed
	}
	return nil
}

// Validate checks field values and cross-field requirements.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	return validation.NewChecker("config").
		Names("input_order", c.InputOrder).
		If(c.DumpOnFailure, func(v *validation.Checker) {
			v.Require("dump_dir", c.DumpDir)
		}).
		Err()
}

// Level returns the configured log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(validation.DefaultOr(c.LogLevel, "info"))
}

// LoadFromEnv builds the configuration from the defaults, an optional file
// and the environment, then validates it.
func LoadFromEnv(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := validation.ValidateConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
