package graph

import (
	"strings"

	"github.com/acheong08/depvis/pkg/models"
)

// nodeIndex holds the single node instance per name for one framework.
// Names are case-insensitive and insertion order is kept.
type nodeIndex struct {
	byName map[string]*models.PackageDependencyNode
	order  []*models.PackageDependencyNode
}

func newNodeIndex() *nodeIndex {
	return &nodeIndex{byName: make(map[string]*models.PackageDependencyNode)}
}

// add stores a node unless one with the same name exists. It reports whether
// the node was added.
func (ix *nodeIndex) add(node *models.PackageDependencyNode) bool {
	key := strings.ToLower(node.Identity.Name)
	if _, ok := ix.byName[key]; ok {
		return false
	}
	ix.byName[key] = node
	ix.order = append(ix.order, node)
	return true
}

func (ix *nodeIndex) get(name string) *models.PackageDependencyNode {
	return ix.byName[strings.ToLower(name)]
}

func (ix *nodeIndex) nodes() []*models.PackageDependencyNode {
	return ix.order
}

func (ix *nodeIndex) len() int {
	return len(ix.order)
}
