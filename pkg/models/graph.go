package models

// Graph is a DAG reachable from a single root.
type Graph[T any, C any] struct {
	Root *Node[T, C]
}

// NewGraph wraps a root node.
func NewGraph[T any, C any](root *Node[T, C]) *Graph[T, C] {
	return &Graph[T, C]{Root: root}
}

// Nodes returns every node reachable from the root in breadth-first order,
// root first, each node once.
func (g *Graph[T, C]) Nodes() []*Node[T, C] {
	if g == nil || g.Root == nil {
		return nil
	}

	seen := map[*Node[T, C]]bool{g.Root: true}
	queue := []*Node[T, C]{g.Root}
	var out []*Node[T, C]

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		out = append(out, current)

		for _, child := range current.Children {
			if seen[child.Node] {
				continue
			}
			seen[child.Node] = true
			queue = append(queue, child.Node)
		}
	}
	return out
}

// EdgeCount counts parent -> child edges reachable from the root.
func (g *Graph[T, C]) EdgeCount() int {
	count := 0
	for _, n := range g.Nodes() {
		count += len(n.Children)
	}
	return count
}

// Package dependency graph instantiations
type (
	PackageDependencyNode  = Node[*DependencyIdentity, VersionRange]
	PackageDependencyEdge  = Edge[*DependencyIdentity, VersionRange]
	PackageDependencyGraph = Graph[*DependencyIdentity, VersionRange]
)

// NewPackageDependencyNode creates a node for an identity.
func NewPackageDependencyNode(identity *DependencyIdentity) (*PackageDependencyNode, error) {
	return NewNode[*DependencyIdentity, VersionRange](identity)
}
