package export

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/acheong08/depvis/pkg/models"
)

type treeStyles struct {
	project    lipgloss.Style
	pkg        lipgloss.Style
	vulnerable lipgloss.Style
	deprecated lipgloss.Style
	subtle     lipgloss.Style
}

func newTreeStyles(re *lipgloss.Renderer) *treeStyles {
	return &treeStyles{
		project:    re.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		pkg:        re.NewStyle(),
		vulnerable: re.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		deprecated: re.NewStyle().Foreground(lipgloss.Color("214")),
		subtle:     re.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// RenderTree renders the graph as an indented tree. A node whose subtree was
// already printed is shown once more with "(*)" and not expanded again.
//
// Styles are bound to re, so colors appear only when its output supports
// them (e.g. lipgloss.NewRenderer(os.Stdout)). A nil renderer gives plain text.
func RenderTree(g *models.PackageDependencyGraph, re *lipgloss.Renderer) string {
	if g == nil || g.Root == nil {
		return ""
	}

	r := treeRenderer{expanded: make(map[*models.PackageDependencyNode]bool)}
	if re != nil {
		r.styles = newTreeStyles(re)
	}
	r.buf.WriteString(r.label(g.Root))
	r.buf.WriteString("\n")
	r.expanded[g.Root] = true
	r.children(g.Root, "")
	return r.buf.String()
}

type treeRenderer struct {
	buf      strings.Builder
	styles   *treeStyles
	expanded map[*models.PackageDependencyNode]bool
}

func (r *treeRenderer) children(node *models.PackageDependencyNode, prefix string) {
	for i, child := range node.Children {
		last := i == len(node.Children)-1
		connector, indent := "├── ", "│   "
		if last {
			connector, indent = "└── ", "    "
		}

		r.buf.WriteString(r.subtle(prefix + connector))
		r.buf.WriteString(r.label(child.Node))
		if rng := child.Cost.String(); rng != "" {
			r.buf.WriteString(r.subtle(" (" + rng + ")"))
		}

		if r.expanded[child.Node] {
			if len(child.Node.Children) > 0 {
				r.buf.WriteString(r.subtle(" (*)"))
			}
			r.buf.WriteString("\n")
			continue
		}
		r.buf.WriteString("\n")
		r.expanded[child.Node] = true
		r.children(child.Node, prefix+indent)
	}
}

func (r *treeRenderer) label(node *models.PackageDependencyNode) string {
	id := node.Identity
	text := id.String()

	var markers []string
	if id.Vulnerable {
		markers = append(markers, "vulnerable")
	}
	if id.Deprecated {
		markers = append(markers, "deprecated")
	}
	if len(markers) > 0 {
		text += " [" + strings.Join(markers, ", ") + "]"
	}

	if r.styles == nil {
		return text
	}
	switch {
	case id.Vulnerable:
		return r.styles.vulnerable.Render(text)
	case id.Deprecated:
		return r.styles.deprecated.Render(text)
	case id.Kind == models.KindProject:
		return r.styles.project.Render(text)
	default:
		return r.styles.pkg.Render(text)
	}
}

func (r *treeRenderer) subtle(s string) string {
	if r.styles == nil {
		return s
	}
	return r.styles.subtle.Render(s)
}

// SortedAliases returns the framework aliases of graphs in lexical order.
func SortedAliases(graphs map[string]*models.PackageDependencyGraph) []string {
	aliases := make([]string, 0, len(graphs))
	for alias := range graphs {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}
