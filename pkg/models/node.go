package models

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidArgument is returned when a required value is missing.
var ErrInvalidArgument = errors.New("invalid argument")

// Edge is one side of a link between two nodes.
type Edge[T any, C any] struct {
	Node *Node[T, C]
	Cost C
}

// Node is a vertex in a DAG.
//
// Children hold the cost from this node to the child. Parents mirror every
// child edge that points at this node, with the same cost. Both lists keep
// insertion order, which follows declaration order in the source manifest.
type Node[T any, C any] struct {
	Identity T
	Parents  []Edge[T, C]
	Children []Edge[T, C]
}

// NewNode creates a node with no edges. The identity must not be nil.
func NewNode[T any, C any](identity T) (*Node[T, C], error) {
	if isNil(identity) {
		return nil, fmt.Errorf("%w: node identity is nil", ErrInvalidArgument)
	}
	return &Node[T, C]{
		Identity: identity,
		Parents:  make([]Edge[T, C], 0),
		Children: make([]Edge[T, C], 0),
	}, nil
}

// Link adds a parent -> child edge and its mirrored child -> parent edge.
func Link[T any, C any](parent, child *Node[T, C], cost C) {
	parent.Children = append(parent.Children, Edge[T, C]{Node: child, Cost: cost})
	child.Parents = append(child.Parents, Edge[T, C]{Node: parent, Cost: cost})
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
