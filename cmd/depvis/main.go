package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"

	"github.com/acheong08/depvis/internal/config"
	"github.com/acheong08/depvis/internal/decorate"
	"github.com/acheong08/depvis/internal/export"
	"github.com/acheong08/depvis/internal/graph"
	"github.com/acheong08/depvis/internal/parser"
	"github.com/acheong08/depvis/internal/registry"
	"github.com/acheong08/depvis/pkg/models"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if errors.Is(err, errUsage) {
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one subcommand. Output goes to stdout; errors are returned.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	// Check for subcommands
	if len(args) < 1 {
		return errUsage
	}

	subcommand := args[0]

	switch subcommand {
	case "graph":
		return runGraphCommand(ctx, args[1:], stdout)
	case "simplify":
		return runSimplifyCommand(ctx, args[1:], stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", subcommand)
		return errUsage
	}
}

func printUsage() {
	fmt.Println("depvis - NuGet dependency graph visualizer")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  depvis graph [options] [project.assets.json]      Write one DGML graph per framework")
	fmt.Println("  depvis simplify -dgspec <file> [project.assets.json]")
	fmt.Println("                                                   Report redundant project references")
	fmt.Println("")
	fmt.Println("When no assets file is given, ./project.assets.json and ./obj/project.assets.json are tried.")
	fmt.Println("Run 'depvis <command> --help' for more information on a command.")
}

// assetsPath returns the positional assets path or looks for one in the
// current directory.
func assetsPath(fs *flag.FlagSet) (string, error) {
	if fs.NArg() > 0 {
		return fs.Arg(0), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return parser.FindAssetsFile(cwd)
}

// loadInputs reads the assets file and the optional dgspec.
func loadInputs(fs *flag.FlagSet, dgspecFile string) (*models.Manifest, *parser.DependencyGraphSpec, error) {
	assetsFile, err := assetsPath(fs)
	if err != nil {
		return nil, nil, err
	}
	manifest, err := parser.ReadAssetsFile(assetsFile)
	if err != nil {
		return nil, nil, err
	}

	if dgspecFile == "" {
		return manifest, nil, nil
	}
	spec, err := parser.ReadDependencyGraphSpecFile(dgspecFile)
	if err != nil {
		return nil, nil, err
	}
	return manifest, spec, nil
}

func runGraphCommand(ctx context.Context, args []string, stdout io.Writer) error {
	graphFlags := flag.NewFlagSet("graph", flag.ContinueOnError)

	var (
		dgspecPath     = graphFlags.String("dgspec", "", "Path to a dependency graph spec for project names (optional)")
		outputDir      = graphFlags.String("output", ".", "Output directory for DGML files")
		projectsOnly   = graphFlags.Bool("projects-only", false, "Only include project references")
		vulnerable     = graphFlags.Bool("vulnerabilities", false, "Mark package versions with known vulnerabilities")
		deprecated     = graphFlags.Bool("deprecation", false, "Mark deprecated package versions")
		format         = graphFlags.String("format", "dgml", "Output format: dgml or tree")
		sources        = graphFlags.String("source", "", "Comma separated package sources (default: sources from the assets file)")
		advisoriesPath = graphFlags.String("advisories", "", "JSON file listing vulnerable and deprecated package versions (optional)")
	)

	if err := graphFlags.Parse(args); err != nil {
		return err
	}

	if *format != "dgml" && *format != "tree" {
		return fmt.Errorf("unknown format %q (want dgml or tree)", *format)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	manifest, spec, err := loadInputs(graphFlags, *dgspecPath)
	if err != nil {
		return err
	}

	var projectNames map[string]string
	if spec != nil {
		projectNames = spec.ProjectPathToName()
	}

	var decorators []decorate.Decorator
	if *advisoriesPath != "" {
		static, err := decorate.ReadAdvisoryFile(*advisoriesPath)
		if err != nil {
			return err
		}
		decorators = append(decorators, static)
	}

	if *vulnerable || *deprecated {
		cache, err := registry.OpenCache(cfg.Cache)
		if err != nil {
			return fmt.Errorf("opening response cache: %w", err)
		}
		defer cache.Close()

		client := registry.NewClient(
			registry.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
			registry.WithCache(cache, cfg.CacheTTL),
		)
		remote, err := decorate.New(client, decorate.Options{
			Sources:         cfg.SourcesFor(*sources, manifest.Sources),
			Vulnerabilities: *vulnerable,
			Deprecation:     *deprecated,
			CacheSize:       cfg.LRUSize,
		})
		if err != nil {
			return err
		}
		decorators = append(decorators, remote...)
	}

	graphs, err := graph.BuildGraphs(ctx, manifest, projectNames, graph.Options{ProjectsOnly: *projectsOnly}, decorators)
	if err != nil {
		return fmt.Errorf("building graphs: %w", err)
	}

	if *format == "tree" {
		re := lipgloss.NewRenderer(stdout)
		for _, alias := range export.SortedAliases(graphs) {
			fmt.Fprintf(stdout, "%s\n%s\n", alias, export.RenderTree(graphs[alias], re))
		}
		return nil
	}

	paths, err := export.WriteAll(graphs, manifest.ProjectName, *outputDir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Fprintf(stdout, "Wrote %s\n", path)
	}
	return nil
}
