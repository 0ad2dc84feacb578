package algorithms

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycleDetected is returned when a graph cannot be fully ordered.
var ErrCycleDetected = errors.New("cycle detected")

// CycleError reports a failed sort. Unvisited holds the nodes the traversal
// never reached: those on a cycle and those reachable only through one.
type CycleError struct {
	Graph     string
	Strategy  Strategy
	Unvisited []string
	// Cycles lists elementary cycles found among the unvisited nodes.
	Cycles [][]string
}

func (e *CycleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "topological sort (%s) of graph %q: %d node(s) unvisited [%s]",
		e.Strategy, e.Graph, len(e.Unvisited), strings.Join(e.Unvisited, ", "))
	if len(e.Cycles) > 0 {
		b.WriteString("; cycle ")
		b.WriteString(strings.Join(e.Cycles[0], " -> "))
		if len(e.Cycles) > 1 {
			fmt.Fprintf(&b, " (+%d more)", len(e.Cycles)-1)
		}
	}
	return b.String()
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// IsCycle reports whether err is a sort failure caused by a cycle.
func IsCycle(err error) bool {
	return errors.Is(err, ErrCycleDetected)
}
