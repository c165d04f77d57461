package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] and [Graph.AddEdge] when
	// an id is negative. Ids are arena indices and start at 0.
	ErrInvalidNodeID = errors.New("node ID must not be negative")

	// ErrGraphHasCycle is returned by [Graph.TopologicalSort] and
	// [Graph.Validate] when the graph cannot be ordered. The concrete error is
	// a *CycleError naming the nodes left unresolved.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// NodeID identifies a node. Ids are small integers handed out by the caller
// (typically in the order nodes are registered), which keeps every lookup a
// map or slice index instead of relying on pointer identity.
type NodeID int

// Edge is one labeled dependency: To depends on From.
type Edge[L comparable] struct {
	From  NodeID
	To    NodeID
	Label L
}

// CycleError reports the nodes Kahn's algorithm could not release. Every
// node on a cycle is included, along with nodes that depend on one.
type CycleError struct {
	Unresolved []NodeID
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	ids := make([]string, len(e.Unresolved))
	for i, id := range e.Unresolved {
		ids[i] = fmt.Sprint(int(id))
	}
	return fmt.Sprintf("%s: unresolved nodes [%s]", ErrGraphHasCycle, strings.Join(ids, " "))
}

// Unwrap returns ErrGraphHasCycle for errors.Is compatibility.
func (e *CycleError) Unwrap() error { return ErrGraphHasCycle }

// Graph is a directed graph over integer node ids with multi-labeled edges.
// A node pair may carry several labels; labels keep insertion order, and a
// label already present on a pair is not added twice.
//
// The zero value is not usable - use New to create a graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph[L comparable] struct {
	nodes    []NodeID             // insertion order
	known    map[NodeID]bool      // membership
	outgoing map[NodeID][]NodeID  // node -> successors (first-edge order)
	incoming map[NodeID][]NodeID  // node -> predecessors (first-edge order)
	labels   map[[2]NodeID][]L    // (from, to) -> labels
	inEdges  map[NodeID][]Edge[L] // node -> incoming edges in insertion order
	edges    int                  // labeled edge count
}

// New creates an empty graph.
func New[L comparable]() *Graph[L] {
	return &Graph[L]{
		known:    make(map[NodeID]bool),
		outgoing: make(map[NodeID][]NodeID),
		incoming: make(map[NodeID][]NodeID),
		labels:   make(map[[2]NodeID][]L),
		inEdges:  make(map[NodeID][]Edge[L]),
	}
}

// AddNode registers id. Adding an existing node is a no-op.
func (g *Graph[L]) AddNode(id NodeID) error {
	if id < 0 {
		return ErrInvalidNodeID
	}
	if !g.known[id] {
		g.known[id] = true
		g.nodes = append(g.nodes, id)
	}
	return nil
}

// AddEdge records that to depends on from under label. Both endpoints are
// created if needed. Repeating an existing (from, to, label) triple is a
// no-op; a new label on an existing pair is appended after the others.
func (g *Graph[L]) AddEdge(from, to NodeID, label L) error {
	if err := g.AddNode(from); err != nil {
		return err
	}
	if err := g.AddNode(to); err != nil {
		return err
	}
	key := [2]NodeID{from, to}
	existing, paired := g.labels[key]
	if slices.Contains(existing, label) {
		return nil
	}
	if !paired {
		g.outgoing[from] = append(g.outgoing[from], to)
		g.incoming[to] = append(g.incoming[to], from)
	}
	g.labels[key] = append(existing, label)
	g.inEdges[to] = append(g.inEdges[to], Edge[L]{From: from, To: to, Label: label})
	g.edges++
	return nil
}

// Has reports whether id is a node of the graph.
func (g *Graph[L]) Has(id NodeID) bool { return g.known[id] }

// Nodes returns all node ids in insertion order.
func (g *Graph[L]) Nodes() []NodeID { return slices.Clone(g.nodes) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph[L]) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of labeled edges. Two labels on the same
// pair count twice.
func (g *Graph[L]) EdgeCount() int { return g.edges }

// Predecessors returns the nodes id depends on, in the order their first
// edge to id was added. The returned slice should not be modified.
func (g *Graph[L]) Predecessors(id NodeID) []NodeID { return g.incoming[id] }

// Successors returns the nodes that depend on id. The returned slice should
// not be modified.
func (g *Graph[L]) Successors(id NodeID) []NodeID { return g.outgoing[id] }

// Edges returns the labels on the ordered pair (from, to) in insertion order,
// or nil if there is no edge.
func (g *Graph[L]) Edges(from, to NodeID) []L { return slices.Clone(g.labels[[2]NodeID{from, to}]) }

// InEdges returns every labeled edge ending at id in the order the edges were
// added, across all predecessors.
func (g *Graph[L]) InEdges(id NodeID) []Edge[L] { return slices.Clone(g.inEdges[id]) }

// InDegree returns the number of distinct predecessors of id.
func (g *Graph[L]) InDegree(id NodeID) int { return len(g.incoming[id]) }

// OutDegree returns the number of distinct successors of id.
func (g *Graph[L]) OutDegree(id NodeID) int { return len(g.outgoing[id]) }

// Sources returns nodes without predecessors in insertion order.
func (g *Graph[L]) Sources() []NodeID {
	var sources []NodeID
	for _, id := range g.nodes {
		if len(g.incoming[id]) == 0 {
			sources = append(sources, id)
		}
	}
	return sources
}

// TopologicalSort orders all nodes so that every node comes after its
// predecessors, using Kahn's algorithm.
//
// Among nodes that are ready at the same time the smallest id is released
// first, so the result is deterministic and, absent edges, follows id order.
// If the graph has a cycle a *CycleError is returned listing the nodes that
// could not be ordered.
//
// Runs in O((N+E) log N) time.
func (g *Graph[L]) TopologicalSort() ([]NodeID, error) {
	indeg := make(map[NodeID]int, len(g.nodes))
	var ready []NodeID
	for _, id := range g.nodes {
		indeg[id] = len(g.incoming[id])
		if indeg[id] == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	order := make([]NodeID, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, succ := range g.outgoing[id] {
			indeg[succ]--
			if indeg[succ] == 0 {
				i, _ := slices.BinarySearch(ready, succ)
				ready = slices.Insert(ready, i, succ)
			}
		}
	}

	if len(order) < len(g.nodes) {
		var unresolved []NodeID
		for _, id := range g.nodes {
			if indeg[id] > 0 {
				unresolved = append(unresolved, id)
			}
		}
		slices.Sort(unresolved)
		return nil, &CycleError{Unresolved: unresolved}
	}
	return order, nil
}

// Validate returns nil if the graph is acyclic, or the *CycleError produced
// by TopologicalSort otherwise.
func (g *Graph[L]) Validate() error {
	_, err := g.TopologicalSort()
	return err
}

// PosMap creates a position lookup map from an ordering of node ids.
// This converts a topological order into fast "comes before" lookups.
func PosMap(ids []NodeID) map[NodeID]int {
	m := make(map[NodeID]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
