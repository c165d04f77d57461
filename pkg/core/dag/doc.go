// Package dag provides a directed dependency graph with multi-labeled edges
// and a deterministic topological sort.
//
// # Overview
//
// The relative layout engine positions a child only after everything it is
// placed against has been positioned. This package records those
// "depends on" relationships as edges from a reference node to a dependent
// node and orders all nodes with Kahn's algorithm.
//
// Nodes are identified by integer [NodeID] values assigned by the caller
// (arena + index), never by pointer identity.
//
// # Basic Usage
//
//	g := dag.New[string]()
//	g.AddEdge(0, 1, "align_left")
//	g.AddEdge(0, 1, "align_top")
//	g.AddEdge(1, 2, "right")
//
//	order, err := g.TopologicalSort() // [0 1 2]
//
// # Labels
//
// A node pair may carry several labels. They are kept in insertion order, and
// [Graph.InEdges] returns every incoming edge of a node in the order it was
// added. Callers folding labels left to right therefore get a defined
// "last label wins" behavior.
//
// # Cycles
//
// [Graph.TopologicalSort] fails with a [*CycleError] (which matches
// [ErrGraphHasCycle] under errors.Is) naming the nodes that could not be
// ordered.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
package dag
