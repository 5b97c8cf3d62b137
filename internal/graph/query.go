package graph

import (
	"github.com/acheong08/depvis/pkg/models"
)

// FindNodeByName returns the first node named name reachable from the root,
// or nil. The walk is a depth-first search that visits each name once.
func FindNodeByName(g *models.PackageDependencyGraph, name string) *models.PackageDependencyNode {
	if g == nil || g.Root == nil {
		return nil
	}

	visited := make(map[string]bool)
	stack := []*models.PackageDependencyNode{g.Root}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := node.Identity.Name
		if visited[id] {
			continue
		}
		if id == name {
			return node
		}
		visited[id] = true

		for _, child := range node.Children {
			stack = append(stack, child.Node)
		}
	}
	return nil
}

// FindRedundantProjectReferences returns the names of direct children of node
// that are also reachable through another child. Names are in the order of
// node's children.
func FindRedundantProjectReferences(node *models.PackageDependencyNode) []string {
	if node == nil {
		return nil
	}

	// Walk from the grandchildren so a direct child is only marked when some
	// path of length two or more reaches it.
	transitive := make(map[string]bool)
	var stack []*models.PackageDependencyNode
	for _, direct := range node.Children {
		for _, grandchild := range direct.Node.Children {
			stack = append(stack, grandchild.Node)
		}
	}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := current.Identity.Name
		if transitive[id] {
			continue
		}
		transitive[id] = true

		for _, child := range current.Children {
			stack = append(stack, child.Node)
		}
	}

	var redundant []string
	seen := make(map[string]bool)
	for _, direct := range node.Children {
		id := direct.Node.Identity.Name
		if transitive[id] && !seen[id] {
			seen[id] = true
			redundant = append(redundant, id)
		}
	}
	return redundant
}

// Stats summarizes a framework graph.
type Stats struct {
	Nodes      int `json:"nodes"`
	Edges      int `json:"edges"`
	Direct     int `json:"direct"`
	Transitive int `json:"transitive"`
	Projects   int `json:"projects"`
	Packages   int `json:"packages"`
	Vulnerable int `json:"vulnerable"`
	Deprecated int `json:"deprecated"`
	MaxDepth   int `json:"maxDepth"`
}

// ComputeStats walks the graph once and counts nodes by kind and annotation.
// Depth is the longest shortest-path from the root.
func ComputeStats(g *models.PackageDependencyGraph) Stats {
	var stats Stats
	if g == nil || g.Root == nil {
		return stats
	}

	depth := map[*models.PackageDependencyNode]int{g.Root: 0}
	queue := []*models.PackageDependencyNode{g.Root}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		stats.Nodes++
		stats.Edges += len(node.Children)
		if node.Identity.Kind == models.KindProject {
			stats.Projects++
		} else {
			stats.Packages++
		}
		if node.Identity.Vulnerable {
			stats.Vulnerable++
		}
		if node.Identity.Deprecated {
			stats.Deprecated++
		}
		if depth[node] > stats.MaxDepth {
			stats.MaxDepth = depth[node]
		}

		for _, child := range node.Children {
			if _, ok := depth[child.Node]; ok {
				continue
			}
			depth[child.Node] = depth[node] + 1
			queue = append(queue, child.Node)
		}
	}

	direct := make(map[*models.PackageDependencyNode]bool)
	for _, child := range g.Root.Children {
		direct[child.Node] = true
	}
	stats.Direct = len(direct)
	stats.Transitive = stats.Nodes - 1 - stats.Direct
	return stats
}
