package export

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acheong08/depvis/pkg/models"
)

func mustRange(t *testing.T, s string) models.VersionRange {
	t.Helper()
	r, err := models.ParseVersionRange(s)
	require.NoError(t, err)
	return r
}

func mustNode(t *testing.T, name, version string, kind models.DependencyKind) *models.PackageDependencyNode {
	t.Helper()
	n, err := models.NewPackageDependencyNode(models.NewDependencyIdentity(name, models.MustParseVersion(version), kind))
	require.NoError(t, err)
	return n
}

// testGraph is TestProject -> A -> B and TestProject -> B, with B vulnerable.
func testGraph(t *testing.T) *models.PackageDependencyGraph {
	root := mustNode(t, "TestProject", "1.0.0", models.KindProject)
	a := mustNode(t, "A", "1.0.0", models.KindPackage)
	b := mustNode(t, "B", "2.0.0", models.KindPackage)
	b.Identity.Vulnerable = true

	models.Link(a, b, mustRange(t, "1.0.0"))
	models.Link(root, a, mustRange(t, "1.0.0"))
	models.Link(root, b, mustRange(t, "2.0.0"))
	return models.NewGraph(root)
}

func TestToDGML(t *testing.T) {
	data, err := ToDGML(testGraph(t))
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "<?xml"))
	assert.Contains(t, text, `xmlns="http://schemas.microsoft.com/vs/2009/dgml"`)

	var doc dgmlDocument
	require.NoError(t, xml.Unmarshal(data, &doc))

	assert.Equal(t, []dgmlNode{
		{ID: "TestProject 1.0.0", Label: "TestProject 1.0.0", Category: CategoryProject},
		{ID: "A 1.0.0", Label: "A 1.0.0", Category: CategoryPackage},
		{ID: "B 2.0.0", Label: "B 2.0.0", Category: CategoryVulnerablePackage},
	}, doc.Nodes)

	assert.Equal(t, []dgmlLink{
		{Source: "TestProject 1.0.0", Target: "A 1.0.0", Label: "1.0.0"},
		{Source: "TestProject 1.0.0", Target: "B 2.0.0", Label: "2.0.0"},
		{Source: "A 1.0.0", Target: "B 2.0.0", Label: "1.0.0"},
	}, doc.Links)

	require.Len(t, doc.Categories, 5)
	assert.Equal(t, dgmlCategory{ID: "Project", Background: "Lightblue", StrokeThickness: "2"}, doc.Categories[0])
}

func TestToDGMLNilGraph(t *testing.T) {
	_, err := ToDGML(nil)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestCategory(t *testing.T) {
	id := models.NewDependencyIdentity("X", models.MustParseVersion("1.0.0"), models.KindPackage)
	assert.Equal(t, CategoryPackage, Category(id))

	id.Deprecated = true
	assert.Equal(t, CategoryDeprecatedPackage, Category(id))

	id.Vulnerable = true
	assert.Equal(t, CategoryVulnerableDeprecatedPackage, Category(id))

	project := models.NewDependencyIdentity("P", models.MustParseVersion("1.0.0"), models.KindProject)
	assert.Equal(t, CategoryProject, Category(project))
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	graphs := map[string]*models.PackageDependencyGraph{
		"net6.0": testGraph(t),
		"net472": testGraph(t),
	}

	paths, err := WriteAll(graphs, "TestProject", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "TestProject_net472.dgml"),
		filepath.Join(dir, "TestProject_net6.0.dgml"),
	}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "DirectedGraph")
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "App_net6.0.dgml", FileName("App", "net6.0"))
	assert.Equal(t, "My_App_net6.0-windows_x.dgml", FileName("My App", "net6.0-windows/x"))
}

func TestRenderTree(t *testing.T) {
	g := testGraph(t)
	c := mustNode(t, "C", "3.0.0", models.KindPackage)
	c.Identity.Deprecated = true
	models.Link(g.Root.Children[0].Node, c, mustRange(t, "[3.0.0, )"))
	models.Link(g.Root.Children[1].Node, c, mustRange(t, "3.0.0"))

	expected := strings.Join([]string{
		"TestProject 1.0.0",
		"├── A 1.0.0 (1.0.0)",
		"│   ├── B 2.0.0 [vulnerable] (1.0.0)",
		"│   │   └── C 3.0.0 [deprecated] (3.0.0)",
		"│   └── C 3.0.0 [deprecated] ([3.0.0, ))",
		"└── B 2.0.0 [vulnerable] (2.0.0) (*)",
		"",
	}, "\n")
	assert.Equal(t, expected, RenderTree(g, nil))

	// A renderer writing to a non-terminal detects no color support.
	var out bytes.Buffer
	assert.Equal(t, expected, RenderTree(g, lipgloss.NewRenderer(&out)))

	colored := lipgloss.NewRenderer(&out)
	colored.SetColorProfile(termenv.ANSI256)
	styled := RenderTree(g, colored)
	assert.Contains(t, styled, "TestProject 1.0.0")
	assert.Contains(t, styled, "\x1b[")

	assert.Equal(t, "", RenderTree(nil, nil))
}
