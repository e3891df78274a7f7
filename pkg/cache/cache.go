// Package cache stores generated layouts and rendered artifacts.
//
// A [Cache] is a byte store with TTLs; a [Keyer] derives the keys. The CLI
// uses [FileCache] under the user cache directory, the API server can share
// a [RedisCache] between replicas, and [NullCache] disables caching.
//
// Layouts are keyed by the hash of the template library plus every option
// that influences growth, so a seeded run is only computed once.
package cache

import (
	"context"
	"time"
)

// Default TTLs.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a key-value byte store.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts are the generation options that change a layout.
type LayoutKeyOpts struct {
	Seed           uint64  `json:"seed"`
	Budget         int     `json:"budget"`
	BudgetStep     int     `json:"budget_step"`
	Rounds         int     `json:"rounds"`
	OverlapMargin  float64 `json:"overlap_margin"`
	SelectAttempts int     `json:"select_attempts"`
	Batteries      int     `json:"batteries"`
	Strict         bool    `json:"strict"`
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey keys a generated layout by library hash and options.
	LayoutKey(catalogHash string, opts LayoutKeyOpts) string
	// ArtifactKey keys a rendered artifact by layout hash and options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(catalogHash string, opts LayoutKeyOpts) string {
	return hashKey(PrefixLayout, catalogHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey(PrefixArtifact, layoutHash, opts)
}
