package algorithms

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-graphir/pkg/config"
)

// Strategy selects the traversal used to order a graph.
type Strategy int

const (
	// BFS is Kahn's algorithm with a FIFO frontier.
	BFS Strategy = iota
	// DFS is Kahn's algorithm with a LIFO frontier.
	DFS
	// RDFS walks backwards from the sinks and emits nodes in post-order.
	RDFS
)

// String returns the lower-case strategy name used in logs and metrics.
func (s Strategy) String() string {
	switch s {
	case BFS:
		return "bfs"
	case DFS:
		return "dfs"
	case RDFS:
		return "rdfs"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy accepts the numeric modes 0, 1, 2 and the names bfs, dfs,
// rdfs in any case.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "bfs":
		return BFS, nil
	case "1", "dfs":
		return DFS, nil
	case "2", "rdfs":
		return RDFS, nil
	}
	return BFS, fmt.Errorf("unknown topological sorting mode %q", s)
}

// SortStrategyFromConfig picks the strategy for cfg. An explicit mode wins;
// otherwise training graphs sort breadth-first and inference graphs
// depth-first.
func SortStrategyFromConfig(cfg config.Config) (Strategy, error) {
	if strings.TrimSpace(cfg.TopoSortingMode) != "" {
		return ParseStrategy(cfg.TopoSortingMode)
	}
	if cfg.TrainingMode {
		return BFS, nil
	}
	return DFS, nil
}

// OptionsFromConfig builds sort options from cfg.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	strategy, err := SortStrategyFromConfig(cfg)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Strategy:       strategy,
		MemoryPriority: cfg.MemoryPriority,
		Reverse:        cfg.DFSReverse,
		InputOrder:     cfg.InputOrder,
	}, nil
}
