package graph

import "errors"

var (
	// ErrNoFrameworks is returned when a manifest has no runtime-neutral targets.
	ErrNoFrameworks = errors.New("no valid frameworks to process")

	// ErrMissingNode is returned when a declared dependency has no node.
	ErrMissingNode = errors.New("missing node")

	// ErrDuplicateAlias is returned when two targets map to one framework alias.
	ErrDuplicateAlias = errors.New("duplicate framework alias")

	// ErrRootConflict is returned when a library has the same name as the project.
	ErrRootConflict = errors.New("library name conflicts with project")
)
