package project

import (
	"fmt"
	"strings"
)

// MergedDependencies returns the deduplicated union of the automatic and
// custom dependencies of r, in first-seen order.
func MergedDependencies(r Resource) []string {
	seen := make(map[string]struct{}, len(r.Dependencies)+len(r.CustomDependencies))
	out := make([]string, 0, len(r.Dependencies)+len(r.CustomDependencies))
	for _, list := range [][]string{r.Dependencies, r.CustomDependencies} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// DependsOn reports whether id is in the merged dependency set of r.
func DependsOn(r Resource, id string) bool {
	for _, list := range [][]string{r.Dependencies, r.CustomDependencies} {
		for _, dep := range list {
			if dep == id {
				return true
			}
		}
	}
	return false
}

// Dependents returns, in store order, every resource whose merged
// dependency set contains id.
func Dependents(resources []Resource, id string) []Resource {
	var out []Resource
	for _, r := range resources {
		if r.ID != id && DependsOn(r, id) {
			out = append(out, r)
		}
	}
	return out
}

// CanDelete reports whether the resource may be removed, and why not.
func CanDelete(resources []Resource, id string) (bool, string) {
	target, ok := find(resources, id)
	if !ok {
		return false, fmt.Sprintf("resource %s not found", id)
	}
	if target.IsAnchorNetwork {
		return false, fmt.Sprintf("cannot delete %q: the main network is required for the project infrastructure", target.Name)
	}
	if deps := Dependents(resources, id); len(deps) > 0 {
		names := make([]string, len(deps))
		for i, d := range deps {
			names[i] = d.Name
		}
		return false, fmt.Sprintf("cannot delete %q: %s depend on it, remove those dependencies first",
			target.Name, strings.Join(names, ", "))
	}
	return true, ""
}

// Edge is a single dependency: To depends on From.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Custom bool   `json:"custom"`
}

// Edges returns every merged edge whose endpoints both exist, in store
// order, plus the references that point at missing resources.
func Edges(resources []Resource) (edges []Edge, dangling []Edge) {
	ids := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		ids[r.ID] = struct{}{}
	}
	for _, r := range resources {
		auto := make(map[string]struct{}, len(r.Dependencies))
		for _, id := range r.Dependencies {
			auto[id] = struct{}{}
		}
		for _, dep := range MergedDependencies(r) {
			_, isAuto := auto[dep]
			e := Edge{From: dep, To: r.ID, Custom: !isAuto}
			if _, ok := ids[dep]; !ok {
				dangling = append(dangling, e)
				continue
			}
			edges = append(edges, e)
		}
	}
	return edges, dangling
}

// AutomaticDependencies returns the dependencies a new resource of kind gets
// when none are given: compute and database resources sit in the anchor
// network.
func AutomaticDependencies(kind Kind, resources []Resource) []string {
	switch kind {
	case KindCompute, KindRelationalDatabase:
	default:
		return nil
	}
	for _, r := range resources {
		if r.IsAnchorNetwork {
			return []string{r.ID}
		}
	}
	return nil
}

func find(resources []Resource, id string) (Resource, bool) {
	for _, r := range resources {
		if r.ID == id {
			return r, true
		}
	}
	return Resource{}, false
}
