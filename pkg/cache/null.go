package cache

import (
	"context"
	"time"
)

// NullCache backs `--no-cache` and runners built without a cache. Every
// lookup misses, so each run regrows its level and redraws its artifacts.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache {
	return &NullCache{}
}

// IsNull reports whether c is a [NullCache], i.e. whether layouts and
// artifacts will always be rebuilt.
func IsNull(c Cache) bool {
	_, ok := c.(*NullCache)
	return ok
}

// Get misses.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards data.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete is a no-op.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close is a no-op.
func (c *NullCache) Close() error {
	return nil
}

var _ Cache = (*NullCache)(nil)
