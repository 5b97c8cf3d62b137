package decorate

import (
	"context"

	"github.com/acheong08/depvis/pkg/models"
)

// Decorator annotates a node after the graph topology is fixed.
// Implementations may only touch the identity's Vulnerable and Deprecated flags.
type Decorator interface {
	Decorate(ctx context.Context, node *models.PackageDependencyNode) error
}

// Func adapts a plain function to the Decorator interface.
type Func func(ctx context.Context, node *models.PackageDependencyNode) error

// Decorate calls f.
func (f Func) Decorate(ctx context.Context, node *models.PackageDependencyNode) error {
	return f(ctx, node)
}

// Run applies decorators in order. Each decorator sees every node before the
// next one starts. The context is checked before every node.
func Run(ctx context.Context, decorators []Decorator, nodes []*models.PackageDependencyNode) error {
	for _, d := range decorators {
		for _, node := range nodes {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.Decorate(ctx, node); err != nil {
				return err
			}
		}
	}
	return nil
}
