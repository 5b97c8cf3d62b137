package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFrameworkNotFound is returned when a target has no matching project framework.
var ErrFrameworkNotFound = errors.New("framework not found")

// Manifest is a resolved lock description for one project.
// All slices keep the declaration order of the source document.
type Manifest struct {
	ProjectName     string          `json:"projectName"`
	ProjectVersion  string          `json:"projectVersion"`
	ProjectPath     string          `json:"projectPath,omitempty"`
	Targets         []Target        `json:"targets"`
	Frameworks      []FrameworkInfo `json:"frameworks"`
	Sources         []string        `json:"sources,omitempty"`
	ConfigFilePaths []string        `json:"configFilePaths,omitempty"`
}

// Target is the resolved library set for one framework, optionally for one runtime.
type Target struct {
	Framework         string    `json:"framework"`
	RuntimeIdentifier string    `json:"runtimeIdentifier,omitempty"`
	Libraries         []Library `json:"libraries"`
}

// IsRuntimeSpecific reports whether the target is a per-RID section.
func (t Target) IsRuntimeSpecific() bool {
	return t.RuntimeIdentifier != ""
}

// Library is one resolved package or project.
type Library struct {
	Name         string              `json:"name"`
	Version      string              `json:"version"`
	Type         string              `json:"type"`
	Dependencies []PackageDependency `json:"dependencies,omitempty"`
}

// PackageDependency is a declared dependency and its accepted range.
type PackageDependency struct {
	ID           string `json:"id"`
	VersionRange string `json:"versionRange"`
}

// FrameworkInfo holds what the project itself declares for a framework.
type FrameworkInfo struct {
	Name              string              `json:"name"`
	TargetAlias       string              `json:"targetAlias"`
	Dependencies      []PackageDependency `json:"dependencies,omitempty"`
	ProjectReferences []string            `json:"projectReferences,omitempty"`
}

// Alias returns the target alias, falling back to the framework name.
func (f FrameworkInfo) Alias() string {
	if f.TargetAlias != "" {
		return f.TargetAlias
	}
	return f.Name
}

// FrameworkFor finds the project framework matching a target.
func (m *Manifest) FrameworkFor(target Target) (*FrameworkInfo, error) {
	want := NormalizeFramework(target.Framework)
	for i := range m.Frameworks {
		if NormalizeFramework(m.Frameworks[i].Name) == want {
			return &m.Frameworks[i], nil
		}
	}
	for i := range m.Frameworks {
		if strings.EqualFold(m.Frameworks[i].TargetAlias, target.Framework) {
			return &m.Frameworks[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrFrameworkNotFound, target.Framework)
}
