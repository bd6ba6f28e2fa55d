// Package cachemanager caches values that are expensive to build, such as
// compiled markers, behind a small generic interface.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager stores values by key with a per-entry TTL.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	// GetWithRefresh is Get that also restarts the entry's TTL on a hit.
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Flush(ctx context.Context) error
	Len() int
}
