package server

import (
	"context"
	"fmt"
	"log"

	"github.com/acheong08/depvis/internal/config"
	"github.com/acheong08/depvis/internal/decorate"
	"github.com/acheong08/depvis/internal/export"
	"github.com/acheong08/depvis/internal/graph"
	"github.com/acheong08/depvis/internal/parser"
	"github.com/acheong08/depvis/internal/simplify"
	"github.com/acheong08/depvis/pkg/models"
)

// ProgressSender interface for sending progress updates
type ProgressSender interface {
	SendMessage(msg Message)
	SendLog(message, level string)
	SendProgress(percent int, stage, message string)
	SendError(message string, err error)
}

// Pipeline turns one visualize request into graph messages
type Pipeline struct {
	client decorate.MetadataClient
	config *config.Config
	sender ProgressSender
}

// NewPipeline creates a new pipeline instance. client may be nil when no
// remote decorator is ever requested.
func NewPipeline(client decorate.MetadataClient, cfg *config.Config, sender ProgressSender) *Pipeline {
	return &Pipeline{
		client: client,
		config: cfg,
		sender: sender,
	}
}

// log sends a log message both to the WebSocket client and to the console
func (p *Pipeline) log(message, level string) {
	p.sender.SendLog(message, level)

	prefix := "[INFO]"
	switch level {
	case "success":
		prefix = "[SUCCESS]"
	case "warning":
		prefix = "[WARN]"
	case "error":
		prefix = "[ERROR]"
	}
	log.Printf("%s %s", prefix, message)
}

// logf is a formatted version of log
func (p *Pipeline) logf(format string, args ...interface{}) {
	p.log(fmt.Sprintf(format, args...), "info")
}

// Run parses the request, builds every framework graph and streams them back.
// It returns the number of graphs sent.
func (p *Pipeline) Run(ctx context.Context, req *VisualizePayload) (int, error) {
	p.log("Starting visualization...", "info")

	// Step 1: Parse inputs
	p.sender.SendProgress(0, "parse", "Parsing project.assets.json...")
	manifest, err := parser.ParseAssets([]byte(req.AssetsJSON))
	if err != nil {
		return 0, fmt.Errorf("failed to parse assets: %w", err)
	}
	p.logf("Project %s %s with %d targets", manifest.ProjectName, manifest.ProjectVersion, len(manifest.Targets))

	var spec *parser.DependencyGraphSpec
	var projectNames map[string]string
	if req.DGSpecJSON != "" {
		spec, err = parser.ParseDependencyGraphSpec([]byte(req.DGSpecJSON))
		if err != nil {
			return 0, fmt.Errorf("failed to parse dgspec: %w", err)
		}
		projectNames = spec.ProjectPathToName()
		p.logf("Loaded %d projects from dgspec", len(spec.Projects))
	}

	// Step 2: Decorators
	decorators, err := p.decorators(req, manifest)
	if err != nil {
		return 0, err
	}

	// Step 3: Build
	p.sender.SendProgress(20, "build", "Building dependency graphs...")
	graphs, err := graph.BuildGraphs(ctx, manifest, projectNames, graph.Options{
		ProjectsOnly: req.ProjectsOnly,
		LogCallback:  p.sender.SendLog,
	}, decorators)
	if err != nil {
		return 0, fmt.Errorf("failed to build graphs: %w", err)
	}

	// Step 4: Export each framework
	aliases := export.SortedAliases(graphs)
	for i, alias := range aliases {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		g := graphs[alias]
		dgml, err := export.ToDGML(g)
		if err != nil {
			return i, fmt.Errorf("failed to export %s: %w", alias, err)
		}
		stats := graph.ComputeStats(g)
		p.sender.SendMessage(NewGraphMessage(alias, dgml, stats))
		p.sender.SendProgress(50+50*(i+1)/len(aliases), "export",
			fmt.Sprintf("%s: %d nodes, %d edges", alias, stats.Nodes, stats.Edges))
	}

	// Step 5: Redundant references when the solution layout is known
	if spec != nil {
		suggestions, err := simplify.Analyze(spec, graphs)
		if err != nil {
			return len(aliases), fmt.Errorf("failed to analyze project references: %w", err)
		}
		p.logf("Found %d projects with redundant references", len(suggestions))
		p.sender.SendMessage(NewSuggestionsMessage(suggestions))
	}

	p.log(fmt.Sprintf("Built %d graphs", len(aliases)), "success")
	return len(aliases), nil
}

func (p *Pipeline) decorators(req *VisualizePayload, manifest *models.Manifest) ([]decorate.Decorator, error) {
	vulnerabilities := req.CheckVulnerabilities || p.config.CheckVulnerabilities
	deprecation := req.CheckDeprecation || p.config.CheckDeprecation
	if !vulnerabilities && !deprecation {
		return nil, nil
	}
	if p.client == nil {
		return nil, fmt.Errorf("metadata checks requested but no registry client is configured")
	}

	sources := p.config.SourcesFor(req.Sources, manifest.Sources)
	p.logf("Checking package metadata against %d sources", len(sources))
	return decorate.New(p.client, decorate.Options{
		Sources:         sources,
		Vulnerabilities: vulnerabilities,
		Deprecation:     deprecation,
		CacheSize:       p.config.LRUSize,
		LogCallback:     p.sender.SendLog,
	})
}
