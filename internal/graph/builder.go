package graph

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/acheong08/depvis/internal/decorate"
	"github.com/acheong08/depvis/internal/metrics"
	"github.com/acheong08/depvis/internal/parser"
	"github.com/acheong08/depvis/pkg/models"
)

// LogCallback is an optional function for forwarding log messages (e.g. to WebSocket).
type LogCallback func(message, level string)

// Options controls graph construction.
type Options struct {
	// ProjectsOnly drops package nodes and every edge that would reach one.
	ProjectsOnly bool

	LogCallback LogCallback
}

// BuildGraphs builds one graph per framework alias from a resolved manifest.
//
// projectNames maps project reference paths to project names; references
// missing from it fall back to the file name without extension. Decorators
// run after each framework's topology is complete. On cancellation no graphs
// are returned.
func BuildGraphs(
	ctx context.Context,
	manifest *models.Manifest,
	projectNames map[string]string,
	opts Options,
	decorators []decorate.Decorator,
) (graphs map[string]*models.PackageDependencyGraph, err error) {
	start := time.Now()
	defer func() {
		metrics.GraphBuildSeconds.Observe(time.Since(start).Seconds())
		switch {
		case err == nil:
			metrics.GraphBuildsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			metrics.GraphBuildsTotal.WithLabelValues(metrics.ResultCanceled).Inc()
		default:
			metrics.GraphBuildsTotal.WithLabelValues(metrics.ResultError).Inc()
		}
	}()

	if manifest == nil {
		return nil, fmt.Errorf("%w: manifest is nil", models.ErrInvalidArgument)
	}

	var targets []models.Target
	for _, t := range manifest.Targets {
		if !t.IsRuntimeSpecific() {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return nil, ErrNoFrameworks
	}

	graphs = make(map[string]*models.PackageDependencyGraph, len(targets))
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fw, err := manifest.FrameworkFor(target)
		if err != nil {
			return nil, err
		}
		alias := fw.Alias()
		if _, exists := graphs[alias]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAlias, alias)
		}

		root, index, err := buildFramework(manifest, target, fw, projectNames, opts)
		if err != nil {
			return nil, fmt.Errorf("framework %s: %w", alias, err)
		}

		if err := decorate.Run(ctx, decorators, index.nodes()); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("framework %s: decoration failed: %w", alias, err)
		}

		g := models.NewGraph(root)
		graphs[alias] = g
		metrics.GraphNodes.Observe(float64(index.len()))
		logf(opts, "info", "Built graph for %s: %d nodes, %d edges", alias, index.len(), g.EdgeCount())
	}

	return graphs, nil
}

func buildFramework(
	manifest *models.Manifest,
	target models.Target,
	fw *models.FrameworkInfo,
	projectNames map[string]string,
	opts Options,
) (*models.PackageDependencyNode, *nodeIndex, error) {
	index := newNodeIndex()

	type retained struct {
		library models.Library
		node    *models.PackageDependencyNode
	}
	var libraries []retained

	// Node generation
	for _, lib := range target.Libraries {
		kind := models.ParseDependencyKind(lib.Type)
		if opts.ProjectsOnly && kind == models.KindPackage {
			continue
		}

		version, err := models.ParseVersion(lib.Version)
		if err != nil {
			return nil, nil, fmt.Errorf("library %s: %w", lib.Name, err)
		}
		node, err := models.NewPackageDependencyNode(models.NewDependencyIdentity(lib.Name, version, kind))
		if err != nil {
			return nil, nil, err
		}
		if !index.add(node) {
			logf(opts, "warning", "Duplicate library %s/%s ignored", lib.Name, lib.Version)
			continue
		}
		libraries = append(libraries, retained{library: lib, node: node})
	}

	// Root injection
	rootVersion, err := models.ParseVersion(manifest.ProjectVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("project %s: %w", manifest.ProjectName, err)
	}
	root, err := models.NewPackageDependencyNode(
		models.NewDependencyIdentity(manifest.ProjectName, rootVersion, models.KindProject),
	)
	if err != nil {
		return nil, nil, err
	}
	if !index.add(root) {
		return nil, nil, fmt.Errorf("%w: %s", ErrRootConflict, manifest.ProjectName)
	}

	// Transitive edges
	for _, r := range libraries {
		for _, dep := range r.library.Dependencies {
			child := index.get(dep.ID)
			if child == nil {
				if opts.ProjectsOnly {
					continue
				}
				return nil, nil, fmt.Errorf("%w: expected to find a node for %s", ErrMissingNode, dep.ID)
			}
			cost, err := models.ParseVersionRange(dep.VersionRange)
			if err != nil {
				return nil, nil, fmt.Errorf("library %s dependency %s: %w", r.library.Name, dep.ID, err)
			}
			models.Link(r.node, child, cost)
		}
	}

	// Direct package references
	if !opts.ProjectsOnly {
		for _, dep := range fw.Dependencies {
			child := index.get(dep.ID)
			if child == nil {
				return nil, nil, fmt.Errorf("%w: expected to find a node for %s", ErrMissingNode, dep.ID)
			}
			cost, err := models.ParseVersionRange(dep.VersionRange)
			if err != nil {
				return nil, nil, fmt.Errorf("package reference %s: %w", dep.ID, err)
			}
			models.Link(root, child, cost)
		}
	}

	// Direct project references
	for _, path := range fw.ProjectReferences {
		name := resolveProjectName(projectNames, path)
		child := index.get(name)
		if child == nil {
			return nil, nil, fmt.Errorf("%w: expected to find a node for %s (%s)", ErrMissingNode, name, path)
		}
		models.Link(root, child, models.ExactVersionRange(child.Identity.Version))
	}

	return root, index, nil
}

// resolveProjectName maps a project reference path to a node name. Unknown
// paths fall back to the file name, which is wrong when a project's output
// name differs from its file name.
func resolveProjectName(projectNames map[string]string, path string) string {
	if name, ok := projectNames[path]; ok {
		return name
	}
	for p, name := range projectNames {
		if strings.EqualFold(p, path) {
			return name
		}
	}
	return parser.ProjectNameFromPath(path)
}

func logf(opts Options, level, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	prefix := "[INFO]"
	switch level {
	case "warning":
		prefix = "[WARN]"
	case "error":
		prefix = "[ERROR]"
	}
	log.Printf("%s %s", prefix, message)
	if opts.LogCallback != nil {
		opts.LogCallback(message, level)
	}
}
