package models

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// DependencyKind tells projects apart from packages.
type DependencyKind int

const (
	KindPackage DependencyKind = iota
	KindProject
)

func (k DependencyKind) String() string {
	if k == KindProject {
		return "Project"
	}
	return "Package"
}

// ParseDependencyKind maps a library type string from the assets file to a kind.
// Anything that is not "project" is treated as a package.
func ParseDependencyKind(s string) DependencyKind {
	if strings.EqualFold(strings.TrimSpace(s), "project") {
		return KindProject
	}
	return KindPackage
}

// IdentityKey is the comparable part of a DependencyIdentity.
// Names are lower-cased; annotation flags are not part of it.
type IdentityKey struct {
	Name    string
	Version string
	Kind    DependencyKind
}

// NewIdentityKey builds a key the same way DependencyIdentity.Key does.
func NewIdentityKey(name, version string, kind DependencyKind) IdentityKey {
	if v, err := ParseVersion(version); err == nil {
		version = v.String()
	}
	return IdentityKey{Name: strings.ToLower(name), Version: version, Kind: kind}
}

// DependencyIdentity identifies a package or project in a dependency graph.
type DependencyIdentity struct {
	Name    string          `json:"name"`
	Version *semver.Version `json:"version"`
	Kind    DependencyKind  `json:"kind"`

	// Enrichment state set by decorators after the graph is built
	Vulnerable bool `json:"vulnerable"`
	Deprecated bool `json:"deprecated"`
}

// NewDependencyIdentity creates an identity with both annotations unset.
func NewDependencyIdentity(name string, version *semver.Version, kind DependencyKind) *DependencyIdentity {
	return &DependencyIdentity{
		Name:    name,
		Version: version,
		Kind:    kind,
	}
}

// Key returns the identity used for equality and cache lookups.
func (d *DependencyIdentity) Key() IdentityKey {
	version := ""
	if d.Version != nil {
		version = d.Version.String()
	}
	return IdentityKey{Name: strings.ToLower(d.Name), Version: version, Kind: d.Kind}
}

// Equal compares name (case-insensitively), version and kind.
func (d *DependencyIdentity) Equal(other *DependencyIdentity) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.Key() == other.Key()
}

// VersionString returns the normalized version, or "" when there is none.
func (d *DependencyIdentity) VersionString() string {
	if d.Version == nil {
		return ""
	}
	return d.Version.String()
}

// String renders "Name Version", which is also the node id in exported diagrams.
func (d *DependencyIdentity) String() string {
	if d.Version == nil {
		return d.Name
	}
	return d.Name + " " + d.Version.String()
}
