package export

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/acheong08/depvis/pkg/models"
)

// DGMLNamespace is the XML namespace of Directed Graph Markup Language.
const DGMLNamespace = "http://schemas.microsoft.com/vs/2009/dgml"

// Node categories
const (
	CategoryProject                     = "Project"
	CategoryPackage                     = "Package"
	CategoryVulnerablePackage           = "VulnerablePackage"
	CategoryDeprecatedPackage           = "DeprecatedPackage"
	CategoryVulnerableDeprecatedPackage = "VulnerableDeprecatedPackage"
)

type dgmlDocument struct {
	XMLName    xml.Name       `xml:"http://schemas.microsoft.com/vs/2009/dgml DirectedGraph"`
	Nodes      []dgmlNode     `xml:"Nodes>Node"`
	Links      []dgmlLink     `xml:"Links>Link"`
	Categories []dgmlCategory `xml:"Categories>Category"`
}

type dgmlNode struct {
	ID       string `xml:"Id,attr"`
	Label    string `xml:"Label,attr"`
	Category string `xml:"Category,attr"`
}

type dgmlLink struct {
	Source string `xml:"Source,attr"`
	Target string `xml:"Target,attr"`
	Label  string `xml:"Label,attr"`
}

type dgmlCategory struct {
	ID              string `xml:"Id,attr"`
	Background      string `xml:"Background,attr"`
	StrokeThickness string `xml:"StrokeThickness,attr"`
}

var dgmlCategories = []dgmlCategory{
	{ID: CategoryProject, Background: "Lightblue", StrokeThickness: "2"},
	{ID: CategoryPackage, Background: "None", StrokeThickness: "1"},
	{ID: CategoryVulnerablePackage, Background: "Lightred", StrokeThickness: "1"},
	{ID: CategoryDeprecatedPackage, Background: "Khaki", StrokeThickness: "1"},
	{ID: CategoryVulnerableDeprecatedPackage, Background: "Orange", StrokeThickness: "1"},
}

// Category picks the DGML category for an identity from its own flags.
func Category(id *models.DependencyIdentity) string {
	switch {
	case id.Vulnerable && id.Deprecated:
		return CategoryVulnerableDeprecatedPackage
	case id.Vulnerable:
		return CategoryVulnerablePackage
	case id.Deprecated:
		return CategoryDeprecatedPackage
	case id.Kind == models.KindProject:
		return CategoryProject
	default:
		return CategoryPackage
	}
}

// ToDGML walks the graph breadth-first and emits one node per distinct
// identity string and one link per edge, in traversal order.
func ToDGML(g *models.PackageDependencyGraph) ([]byte, error) {
	if g == nil || g.Root == nil {
		return nil, fmt.Errorf("%w: graph has no root", models.ErrInvalidArgument)
	}

	doc := dgmlDocument{Categories: dgmlCategories}
	seen := make(map[string]bool)

	addNode := func(n *models.PackageDependencyNode) {
		id := n.Identity.String()
		seen[id] = true
		doc.Nodes = append(doc.Nodes, dgmlNode{ID: id, Label: id, Category: Category(n.Identity)})
	}

	addNode(g.Root)
	queue := []*models.PackageDependencyNode{g.Root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range current.Children {
			doc.Links = append(doc.Links, dgmlLink{
				Source: current.Identity.String(),
				Target: child.Node.Identity.String(),
				Label:  child.Cost.String(),
			})
			if !seen[child.Node.Identity.String()] {
				addNode(child.Node)
				queue = append(queue, child.Node)
			}
		}
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode DGML: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// WriteDGMLFile writes the DGML for g to path.
func WriteDGMLFile(g *models.PackageDependencyGraph, path string) error {
	data, err := ToDGML(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteAll writes one DGML file per framework graph into dir and returns the
// written paths in alias order.
func WriteAll(graphs map[string]*models.PackageDependencyGraph, project, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var paths []string
	for _, alias := range SortedAliases(graphs) {
		path := filepath.Join(dir, FileName(project, alias))
		if err := WriteDGMLFile(graphs[alias], path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// FileName returns "<project>_<alias>.dgml" with path-unsafe characters replaced.
func FileName(project, alias string) string {
	return sanitize(project) + "_" + sanitize(alias) + ".dgml"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}
