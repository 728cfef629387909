// Package cache is a read-through cache for lookup lists and dashboard
// aggregates, invalidated per namespace after every mutation.
package cache

import (
	"context"
	"log/slog"
	"time"
)

const (
	NamespaceCatalog     = "catalog"
	NamespaceDashboard   = "dashboard"
	NamespaceConversions = "conversions"
)

// Cache stores JSON-encodable values under namespace + key.
type Cache interface {
	// Get decodes the cached value into dest and reports whether it was found.
	Get(ctx context.Context, namespace, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, namespace, key string, value interface{}) error
	// Invalidate drops every key stored under the given namespaces.
	Invalidate(ctx context.Context, namespaces ...string) error
	Close() error
}

// New returns a Redis cache when url is set and a no-op cache otherwise.
func New(url string, ttl time.Duration, logger *slog.Logger) (Cache, error) {
	if url == "" {
		logger.Info("cache disabled, REDIS_URL not set")
		return Noop{}, nil
	}
	return NewRedis(url, ttl, logger)
}

// Fetch returns the cached value or calls load and caches its result. Cache
// failures are logged and never fail the request.
func Fetch[T any](ctx context.Context, c Cache, logger *slog.Logger, namespace, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	found, err := c.Get(ctx, namespace, key, &cached)
	if err != nil {
		logger.Warn("cache read failed", "namespace", namespace, "key", key, "error", err)
	}
	if found {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, namespace, key, value); err != nil {
		logger.Warn("cache write failed", "namespace", namespace, "key", key, "error", err)
	}
	return value, nil
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string, string, interface{}) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, string, interface{}) error         { return nil }
func (Noop) Invalidate(context.Context, ...string) error                    { return nil }
func (Noop) Close() error                                                   { return nil }
