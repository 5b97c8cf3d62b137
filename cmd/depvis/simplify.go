package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/acheong08/depvis/internal/graph"
	"github.com/acheong08/depvis/internal/simplify"
)

func runSimplifyCommand(ctx context.Context, args []string, stdout io.Writer) error {
	simplifyFlags := flag.NewFlagSet("simplify", flag.ContinueOnError)
	dgspecPath := simplifyFlags.String("dgspec", "", "Path to the solution's dependency graph spec (required)")
	if err := simplifyFlags.Parse(args); err != nil {
		return err
	}

	if *dgspecPath == "" {
		return errors.New("-dgspec is required")
	}

	manifest, spec, err := loadInputs(simplifyFlags, *dgspecPath)
	if err != nil {
		return err
	}

	graphs, err := graph.BuildGraphs(ctx, manifest, spec.ProjectPathToName(), graph.Options{ProjectsOnly: true}, nil)
	if err != nil {
		return fmt.Errorf("building graphs: %w", err)
	}

	suggestions, err := simplify.Analyze(spec, graphs)
	if err != nil {
		return err
	}
	return simplify.Report(stdout, suggestions)
}
