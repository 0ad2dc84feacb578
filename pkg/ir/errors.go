package ir

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic checking via errors.Is.
var (
	// ErrInvalidArgument reports a nil or absent node, anchor, graph or descriptor.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStructural reports an edit that would break the graph's structure:
	// incompatible anchor kinds, a missing edge, a second producer on a data
	// input, or inconsistent subgraph linkage.
	ErrStructural = errors.New("structural violation")
	// ErrNotFound reports a node or subgraph that is not part of the graph.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName reports a node or subgraph name already in use.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrSortInProgress reports a mutation attempted while the graph is being sorted.
	ErrSortInProgress = errors.New("topological sort in progress")
)

// GraphError provides structured error information for graph operations.
type GraphError struct {
	Op      string // Operation that failed (e.g., "AddEdge", "IsolateNode")
	Entity  string // Entity type: "node", "anchor", "edge", "subgraph", "graph"
	Name    string // Entity name (if applicable)
	Cause   error  // Underlying error, usually one of the sentinels
	Context string // Additional context
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	subject := e.Entity
	if e.Name != "" {
		subject = fmt.Sprintf("%s %q", e.Entity, e.Name)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, subject, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, subject, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// errorBuilder provides a fluent interface for building GraphErrors.
type errorBuilder struct {
	err GraphError
}

func newError(op string) *errorBuilder {
	return &errorBuilder{err: GraphError{Op: op}}
}

func (b *errorBuilder) node(n *Node) *errorBuilder {
	b.err.Entity = "node"
	if n != nil {
		b.err.Name = n.name
	}
	return b
}

func (b *errorBuilder) anchor(a *Anchor) *errorBuilder {
	b.err.Entity = "anchor"
	if a != nil {
		b.err.Name = a.String()
	}
	return b
}

func (b *errorBuilder) edge(src, dst *Anchor) *errorBuilder {
	b.err.Entity = "edge"
	b.err.Name = fmt.Sprintf("%s->%s", src, dst)
	return b
}

func (b *errorBuilder) subgraph(name string) *errorBuilder {
	b.err.Entity = "subgraph"
	b.err.Name = name
	return b
}

func (b *errorBuilder) graph(g *Graph) *errorBuilder {
	b.err.Entity = "graph"
	if g != nil {
		b.err.Name = g.name
	}
	return b
}

func (b *errorBuilder) context(format string, args ...any) *errorBuilder {
	b.err.Context = fmt.Sprintf(format, args...)
	return b
}

func (b *errorBuilder) cause(err error) error {
	b.err.Cause = err
	return &b.err
}

// IsInvalidArgument returns true if err reports an absent argument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsStructural returns true if err reports a rejected structural edit.
func IsStructural(err error) bool {
	return errors.Is(err, ErrStructural)
}

// IsNotFound returns true if err reports a missing node or subgraph.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
