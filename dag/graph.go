package dag

import (
	"fmt"
	"sort"
)

// Graph declares steps and edges (dependency relationships).
type Graph struct {
	Steps map[string]Step
	Edges []Edge

	// order is the declaration index of each step; it breaks ties inside a
	// level so runs are reproducible.
	order map[string]int
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// Upstream returns the names of the steps name depends on.
func (g *Graph) Upstream(name string) []string {
	var up []string
	for _, e := range g.Edges {
		if e.To == name {
			up = append(up, e.From)
		}
	}
	return up
}

// BuildLevels uses Kahn's algorithm to group steps by dependency level.
// Steps within a level are ordered by declaration. Returns an error if a
// cycle is detected.
func BuildLevels(g *Graph) ([][]string, error) {
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)

	for name := range g.Steps {
		inDegree[name] = 0
	}

	for _, e := range g.Edges {
		if _, ok := g.Steps[e.From]; !ok {
			return nil, fmt.Errorf("dag: edge references unknown step %q", e.From)
		}
		if _, ok := g.Steps[e.To]; !ok {
			return nil, fmt.Errorf("dag: edge references unknown step %q", e.To)
		}
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		g.sortLevel(queue)
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(g.Steps) {
		return nil, fmt.Errorf("dag: cycle detected, processed %d of %d steps", visited, len(g.Steps))
	}

	return levels, nil
}

func (g *Graph) sortLevel(level []string) {
	sort.Slice(level, func(i, j int) bool {
		oi, oj := g.order[level[i]], g.order[level[j]]
		if oi != oj {
			return oi < oj
		}
		return level[i] < level[j]
	})
}
