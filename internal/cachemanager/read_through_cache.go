package cachemanager

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/marks/internal/log"
)

// BuildFunc produces the value for a key that is not cached yet.
type BuildFunc[V any, I any] func(ctx context.Context, input I) (V, error)

// ReadThroughCache fronts a BuildFunc with a CacheManager. Entries expire
// after ttl without a lookup; every hit restarts the clock. Failed builds
// are not stored.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache CacheManager[K, V]
	build BuildFunc[V, I]
	ttl   time.Duration
}

func NewReadThroughCache[K comparable, V any, I any](cache CacheManager[K, V], build BuildFunc[V, I], ttl time.Duration) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{cache: cache, build: build, ttl: ttl}
}

// Lookup returns the cached value for key, building it from input on a miss.
func (r *ReadThroughCache[K, V, I]) Lookup(ctx context.Context, key K, input I) (V, error) {
	if value, ok := r.cache.GetWithRefresh(ctx, key, r.ttl); ok {
		return value, nil
	}

	value, err := r.build(ctx, input)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, r.ttl)
	log.Debug(log.CatCache, "stored built value", "key", fmt.Sprint(key), "entries", r.cache.Len())
	return value, nil
}

// Invalidate drops every stored value. Later lookups rebuild.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context) error {
	if err := r.cache.Flush(ctx); err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	return nil
}
