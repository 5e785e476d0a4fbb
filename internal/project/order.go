package project

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"
)

// ErrCycle is returned when the dependency edges form a cycle.
var ErrCycle = errors.New("dependency cycle")

// DependencyGraph builds a directed graph with an edge from every
// dependency to its dependent. Dangling references are left out. With
// preventCycles, the first edge closing a cycle fails with ErrCycle.
func DependencyGraph(resources []Resource, preventCycles bool) (graph.Graph[string, Resource], error) {
	opts := []func(*graph.Traits){graph.Directed()}
	if preventCycles {
		opts = append(opts, graph.PreventCycles())
	}
	g := graph.New(func(r Resource) string { return r.ID }, opts...)

	for _, r := range resources {
		if err := g.AddVertex(r); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("add vertex %s: %w", r.ID, err)
		}
	}
	for _, r := range resources {
		for _, dep := range MergedDependencies(r) {
			err := g.AddEdge(dep, r.ID)
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrVertexNotFound):
				// dangling reference
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, fmt.Errorf("%w: %s -> %s", ErrCycle, dep, r.ID)
			default:
				return nil, fmt.Errorf("add edge %s -> %s: %w", dep, r.ID, err)
			}
		}
	}
	return g, nil
}

// DetectCycle returns an error wrapping ErrCycle when the merged edges of
// resources are cyclic. A resource depending on itself is a cycle.
func DetectCycle(resources []Resource) error {
	_, err := DependencyGraph(resources, true)
	return err
}

// TopologicalOrder returns resource ids so that every resource comes after
// its dependencies. Ties keep store order.
func TopologicalOrder(resources []Resource) ([]string, error) {
	g, err := DependencyGraph(resources, false)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(resources))
	for i, r := range resources {
		if _, ok := index[r.ID]; !ok {
			index[r.ID] = i
		}
	}
	order, err := graph.StableTopologicalSort(g, func(a, b string) bool {
		return index[a] < index[b]
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}
	return order, nil
}
