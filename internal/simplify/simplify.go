package simplify

import (
	"fmt"
	"io"
	"strings"

	"github.com/acheong08/depvis/internal/export"
	"github.com/acheong08/depvis/internal/graph"
	"github.com/acheong08/depvis/internal/parser"
	"github.com/acheong08/depvis/pkg/models"
)

// Suggestion lists project references of one project that are already
// implied by another reference.
type Suggestion struct {
	Framework   string   `json:"framework"`
	ProjectPath string   `json:"projectPath"`
	Redundant   []string `json:"redundant"`
}

// Analyze checks every project of the solution against every framework
// graph. Projects are visited in dependency order; projects that are not part
// of a framework's graph are skipped. Redundant references are reported by
// file name. Nothing on disk is modified.
func Analyze(spec *parser.DependencyGraphSpec, graphs map[string]*models.PackageDependencyGraph) ([]Suggestion, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: dependency graph spec is nil", models.ErrInvalidArgument)
	}

	projects := spec.SortProjectsByDependencyOrder()
	nameToPath := spec.ProjectNameToPath()

	var suggestions []Suggestion
	for _, alias := range export.SortedAliases(graphs) {
		g := graphs[alias]
		for _, project := range projects {
			node := graph.FindNodeByName(g, project.Name)
			if node == nil {
				continue
			}

			names := graph.FindRedundantProjectReferences(node)
			if len(names) == 0 {
				continue
			}

			files := make([]string, 0, len(names))
			for _, name := range names {
				path, ok := nameToPath[name]
				if !ok {
					path = name
				}
				files = append(files, parser.FileNameFromPath(path))
			}

			suggestions = append(suggestions, Suggestion{
				Framework:   alias,
				ProjectPath: project.Path,
				Redundant:   files,
			})
		}
	}
	return suggestions, nil
}

// Report prints suggestions grouped by framework followed by a total.
func Report(w io.Writer, suggestions []Suggestion) error {
	total := 0
	current := ""
	for _, s := range suggestions {
		if s.Framework != current {
			current = s.Framework
			if _, err := fmt.Fprintf(w, "Analyzing %s\n", current); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s: Redundant references: %s\n", s.ProjectPath, strings.Join(s.Redundant, ",")); err != nil {
			return err
		}
		total += len(s.Redundant)
	}
	_, err := fmt.Fprintf(w, "References to remove: %d\n", total)
	return err
}
