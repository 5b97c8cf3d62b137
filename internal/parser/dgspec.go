package parser

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// DependencyGraphSpec is the solution-wide restore input (*.dgspec.json).
type DependencyGraphSpec struct {
	Projects []ProjectSpec `json:"projects"`
}

// ProjectSpec is one project from a dependency graph spec.
type ProjectSpec struct {
	Name              string   `json:"name"`
	Path              string   `json:"path"`
	ProjectReferences []string `json:"projectReferences,omitempty"`
}

// ReadDependencyGraphSpecFile reads and parses a dgspec file.
func ReadDependencyGraphSpecFile(path string) (*DependencyGraphSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dgspec: %w", err)
	}

	spec, err := ParseDependencyGraphSpec(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return spec, nil
}

// ParseDependencyGraphSpec parses dgspec JSON. Projects and their references
// are returned in document order; references are merged across frameworks.
func ParseDependencyGraphSpec(data []byte) (*DependencyGraphSpec, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed dgspec JSON", ErrInvalidAssets)
	}
	doc := gjson.ParseBytes(data)

	projects := doc.Get("projects")
	if !projects.IsObject() {
		return nil, fmt.Errorf("%w: dgspec has no projects", ErrInvalidAssets)
	}

	spec := &DependencyGraphSpec{}
	projects.ForEach(func(key, value gjson.Result) bool {
		restore := value.Get("restore")
		project := ProjectSpec{
			Path: firstNonEmpty(restore.Get("projectPath").String(), key.String()),
		}
		project.Name = firstNonEmpty(restore.Get("projectName").String(), ProjectNameFromPath(project.Path))

		seen := make(map[string]bool)
		restore.Get("frameworks").ForEach(func(_, fw gjson.Result) bool {
			fw.Get("projectReferences").ForEach(func(ref, refValue gjson.Result) bool {
				path := firstNonEmpty(refValue.Get("projectPath").String(), ref.String())
				if !seen[strings.ToLower(path)] {
					seen[strings.ToLower(path)] = true
					project.ProjectReferences = append(project.ProjectReferences, path)
				}
				return true
			})
			return true
		})

		spec.Projects = append(spec.Projects, project)
		return true
	})

	return spec, nil
}

// ProjectPathToName maps each project path to its project name.
// The first occurrence of a duplicate path wins.
func (s *DependencyGraphSpec) ProjectPathToName() map[string]string {
	out := make(map[string]string, len(s.Projects))
	for _, p := range s.Projects {
		if _, ok := out[p.Path]; !ok {
			out[p.Path] = p.Name
		}
	}
	return out
}

// ProjectNameToPath is the inverse of ProjectPathToName.
func (s *DependencyGraphSpec) ProjectNameToPath() map[string]string {
	out := make(map[string]string, len(s.Projects))
	for _, p := range s.Projects {
		if _, ok := out[p.Name]; !ok {
			out[p.Name] = p.Path
		}
	}
	return out
}

// SortProjectsByDependencyOrder returns projects so that every project comes
// after the projects it references. Ties keep document order. Projects caught
// in a reference cycle are appended at the end in document order.
func (s *DependencyGraphSpec) SortProjectsByDependencyOrder() []ProjectSpec {
	index := make(map[string]int, len(s.Projects))
	for i, p := range s.Projects {
		if _, ok := index[strings.ToLower(p.Path)]; !ok {
			index[strings.ToLower(p.Path)] = i
		}
	}

	pending := make([]int, len(s.Projects))
	dependents := make(map[int][]int)
	for i, p := range s.Projects {
		for _, ref := range p.ProjectReferences {
			j, ok := index[strings.ToLower(ref)]
			if !ok || j == i {
				continue
			}
			pending[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var ready []int
	for i := range s.Projects {
		if pending[i] == 0 {
			ready = append(ready, i)
		}
	}

	done := make([]bool, len(s.Projects))
	out := make([]ProjectSpec, 0, len(s.Projects))
	for len(ready) > 0 {
		sort.Ints(ready)
		i := ready[0]
		ready = ready[1:]
		done[i] = true
		out = append(out, s.Projects[i])

		for _, d := range dependents[i] {
			pending[d]--
			if pending[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	for i, p := range s.Projects {
		if !done[i] {
			out = append(out, p)
		}
	}
	return out
}
