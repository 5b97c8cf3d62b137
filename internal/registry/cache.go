package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache stores raw HTTP response bodies keyed by URL.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NopCache) Close() error { return nil }

// OpenCache builds a cache from a configuration value:
//
//	""                    no cache
//	sqlite:<path>         SQLite database at path
//	redis://host:port/db  Redis server
func OpenCache(spec string) (ResponseCache, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "" || spec == "none":
		return NopCache{}, nil
	case strings.HasPrefix(spec, "sqlite:"):
		path := strings.TrimPrefix(spec, "sqlite:")
		if path == "" {
			return nil, fmt.Errorf("sqlite cache path is empty")
		}
		return NewSQLiteCache(path)
	case strings.HasPrefix(spec, "redis://"), strings.HasPrefix(spec, "rediss://"):
		opts, err := redis.ParseURL(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid redis cache url: %w", err)
		}
		return NewRedisCache(redis.NewClient(opts)), nil
	default:
		return nil, fmt.Errorf("unsupported cache %q", spec)
	}
}
