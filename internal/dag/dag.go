// SPDX-License-Identifier: MPL-2.0

// Package dag orders the modules of a release train. Nodes are keyed by any
// string type (model.Project in practice) and an edge from A to B means A must
// be released before B.
package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is the sentinel error wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle")

type (
	// CycleError reports the nodes left unordered because they take part in
	// (or depend on) a cycle.
	CycleError struct {
		Cycle []string
	}

	// Graph is a directed graph with deterministic topological ordering.
	Graph[K ~string] struct {
		edges map[K][]K
		order []K
		known map[K]struct{}
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Unwrap returns ErrCycle for errors.Is() compatibility.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New[K ~string]() *Graph[K] {
	return &Graph[K]{
		edges: make(map[K][]K),
		known: make(map[K]struct{}),
	}
}

// AddNode adds a node. Adding an existing node keeps its original position.
func (g *Graph[K]) AddNode(node K) {
	if _, ok := g.known[node]; ok {
		return
	}
	g.known[node] = struct{}{}
	g.order = append(g.order, node)
}

// AddEdge records that before must come ahead of after. Both nodes are added
// when missing.
func (g *Graph[K]) AddEdge(before, after K) {
	g.AddNode(before)
	g.AddNode(after)
	g.edges[before] = append(g.edges[before], after)
}

// Has reports whether node is part of the graph.
func (g *Graph[K]) Has(node K) bool {
	_, ok := g.known[node]
	return ok
}

// Len returns the number of nodes.
func (g *Graph[K]) Len() int { return len(g.order) }

// Sort returns the nodes in dependency order using Kahn's algorithm. Nodes that
// become ready at the same time keep their insertion order.
func (g *Graph[K]) Sort() ([]K, error) {
	if len(g.order) == 0 {
		return nil, nil
	}

	pending := make(map[K]int, len(g.order))
	for _, targets := range g.edges {
		for _, t := range targets {
			pending[t]++
		}
	}

	ready := make([]K, 0, len(g.order))
	for _, n := range g.order {
		if pending[n] == 0 {
			ready = append(ready, n)
		}
	}

	sorted := make([]K, 0, len(g.order))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		sorted = append(sorted, n)
		for _, t := range g.edges[n] {
			pending[t]--
			if pending[t] == 0 {
				ready = append(ready, t)
			}
		}
	}

	if len(sorted) == len(g.order) {
		return sorted, nil
	}

	var stuck []string
	for _, n := range g.order {
		if pending[n] > 0 {
			stuck = append(stuck, string(n))
		}
	}
	return nil, &CycleError{Cycle: stuck}
}
