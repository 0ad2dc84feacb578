// Package ir is the in-memory graph representation of the dataflow compiler.
//
// A Graph owns an ordered list of Nodes. Each Node carries typed Anchors
// (data inputs, data outputs and one control anchor per direction) and edges
// are recorded on both of their endpoints. Control-flow nodes own nested
// subgraphs; the root graph of a forest keeps an arena of generation-counted
// handles through which children reach their parents, so a removed parent
// becomes unresolvable instead of dangling.
//
// The package provides the structural editing primitives used by rewriting
// passes (AddEdge, RemoveEdge, IsolateNode, InsertNodeBefore,
// InsertNodeAfter, ReplaceNode, RemoveNode) and the order-commit API used by
// the sort engine in package algorithms.
//
// Graphs are not safe for concurrent use.
package ir
