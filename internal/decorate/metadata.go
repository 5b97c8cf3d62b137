package decorate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/acheong08/depvis/internal/metrics"
	"github.com/acheong08/depvis/internal/registry"
	"github.com/acheong08/depvis/pkg/models"
)

// DefaultCacheSize bounds the per-decorator finding cache.
const DefaultCacheSize = 4096

// MetadataClient is the part of the registry client the decorators use.
type MetadataClient interface {
	ResolveSource(ctx context.Context, indexURL string) (*registry.Source, error)
	GetPackageMetadata(ctx context.Context, src *registry.Source, id, version string) (*registry.PackageMetadata, error)
}

// LogCallback is an optional function for forwarding log messages (e.g. to WebSocket).
type LogCallback func(message, level string)

// Options selects and configures the remote decorators.
type Options struct {
	Sources         []string
	Vulnerabilities bool
	Deprecation     bool
	CacheSize       int
	LogCallback     LogCallback
}

// New returns the remote decorators enabled in opts, vulnerabilities first.
func New(client MetadataClient, opts Options) ([]Decorator, error) {
	var out []Decorator
	if opts.Vulnerabilities {
		d, err := NewVulnerabilityDecorator(client, opts.Sources, opts.CacheSize)
		if err != nil {
			return nil, err
		}
		d.logCb = opts.LogCallback
		out = append(out, d)
	}
	if opts.Deprecation {
		d, err := NewDeprecationDecorator(client, opts.Sources, opts.CacheSize)
		if err != nil {
			return nil, err
		}
		d.logCb = opts.LogCallback
		out = append(out, d)
	}
	return out, nil
}

// MetadataDecorator sets one flag from package metadata found on any of the
// configured sources.
//
// Sources are resolved once per decorator; a failed resolution is retried on
// the next call. Findings are cached per identity key, so a repeated package
// version is looked up once. Project nodes are never looked up.
type MetadataDecorator struct {
	name    string
	client  MetadataClient
	sources []string
	check   func(*registry.PackageMetadata) bool
	apply   func(*models.DependencyIdentity)
	cache   *lru.Cache[models.IdentityKey, bool]
	logCb   LogCallback

	mu       sync.Mutex
	resolved []*registry.Source
}

// NewVulnerabilityDecorator marks package versions that have known advisories.
func NewVulnerabilityDecorator(client MetadataClient, sources []string, cacheSize int) (*MetadataDecorator, error) {
	return newMetadataDecorator("vulnerability", client, sources, cacheSize,
		(*registry.PackageMetadata).IsVulnerable,
		func(id *models.DependencyIdentity) { id.Vulnerable = true },
	)
}

// NewDeprecationDecorator marks package versions that are deprecated.
func NewDeprecationDecorator(client MetadataClient, sources []string, cacheSize int) (*MetadataDecorator, error) {
	return newMetadataDecorator("deprecation", client, sources, cacheSize,
		(*registry.PackageMetadata).IsDeprecated,
		func(id *models.DependencyIdentity) { id.Deprecated = true },
	)
}

func newMetadataDecorator(
	name string,
	client MetadataClient,
	sources []string,
	cacheSize int,
	check func(*registry.PackageMetadata) bool,
	apply func(*models.DependencyIdentity),
) (*MetadataDecorator, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: metadata client is nil", models.ErrInvalidArgument)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[models.IdentityKey, bool](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cache: %w", name, err)
	}
	return &MetadataDecorator{
		name:    name,
		client:  client,
		sources: sources,
		check:   check,
		apply:   apply,
		cache:   cache,
	}, nil
}

// Name identifies the decorator in logs and metrics.
func (d *MetadataDecorator) Name() string {
	return d.name
}

// SetLogCallback sets an optional callback for forwarding log messages.
func (d *MetadataDecorator) SetLogCallback(cb LogCallback) {
	d.logCb = cb
}

// logMsg prints to console with a level prefix and optionally forwards the
// bare message via the log callback.
func (d *MetadataDecorator) logMsg(message, level string) {
	prefix := "[INFO]"
	switch level {
	case "warning":
		prefix = "[WARN]"
	case "error":
		prefix = "[ERROR]"
	}
	log.Printf("%s %s", prefix, message)
	if d.logCb != nil {
		d.logCb(message, level)
	}
}

// Decorate looks the node's package version up on every source and sets the
// flag if any source reports a finding.
func (d *MetadataDecorator) Decorate(ctx context.Context, node *models.PackageDependencyNode) error {
	identity := node.Identity
	if identity.Kind == models.KindProject || identity.Version == nil {
		return nil
	}

	key := identity.Key()
	if found, ok := d.cache.Get(key); ok {
		metrics.DecoratorCacheHitsTotal.WithLabelValues(d.name).Inc()
		if found {
			d.apply(identity)
		}
		return nil
	}

	sources, err := d.resolveSources(ctx)
	if err != nil {
		return err
	}

	found, err := d.lookup(ctx, sources, identity)
	if err != nil {
		return err
	}

	d.cache.Add(key, found)
	if found {
		d.apply(identity)
		d.logMsg(fmt.Sprintf("%s flagged by %s check", identity, d.name), "warning")
	}
	return nil
}

func (d *MetadataDecorator) resolveSources(ctx context.Context) ([]*registry.Source, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.resolved != nil {
		return d.resolved, nil
	}

	var urls []string
	for _, s := range d.sources {
		if registry.IsHTTPSource(s) {
			urls = append(urls, s)
		} else {
			d.logMsg(fmt.Sprintf("Skipping non-HTTP source %s for %s check", s, d.name), "info")
		}
	}

	resolved := make([]*registry.Source, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			src, err := d.client.ResolveSource(gctx, u)
			if err != nil {
				return fmt.Errorf("%s check: %w", d.name, err)
			}
			resolved[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.resolved = resolved
	return resolved, nil
}

// lookup queries every source concurrently and waits for all of them.
// Missing packages or versions count as no finding; any other error cancels
// the remaining lookups and is returned.
func (d *MetadataDecorator) lookup(ctx context.Context, sources []*registry.Source, identity *models.DependencyIdentity) (bool, error) {
	findings := make([]bool, len(sources))
	g, gctx := errgroup.WithContext(ctx)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			meta, err := d.client.GetPackageMetadata(gctx, src, identity.Name, identity.VersionString())
			switch {
			case errors.Is(err, registry.ErrPackageNotFound), errors.Is(err, registry.ErrVersionNotFound):
				metrics.MetadataLookupsTotal.WithLabelValues(d.name, metrics.ResultNotFound).Inc()
				return nil
			case err != nil:
				metrics.MetadataLookupsTotal.WithLabelValues(d.name, metrics.ResultError).Inc()
				return fmt.Errorf("%s check for %s on %s: %w", d.name, identity, src.IndexURL, err)
			}
			metrics.MetadataLookupsTotal.WithLabelValues(d.name, metrics.ResultSuccess).Inc()
			findings[i] = d.check(meta)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return false, err
	}
	for _, f := range findings {
		if f {
			return true, nil
		}
	}
	return false, nil
}
