// Package cache stores compiled forms and rendered artifacts by content key.
//
// Four backends implement [Cache]:
//
//   - [FileCache] keeps entries as JSON files, for the CLI
//   - [MemoryCache] keeps a bounded LRU in process, for the HTTP server
//   - [RedisCache] shares entries between server instances
//   - [NullCache] stores nothing, for --no-cache and tests
//
// Keys come from a [Keyer], so that every backend sees the same key layout.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind.
const (
	SpecTTL     = 7 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte store with optional expiry. A miss is reported as
// (nil, false, nil), never as an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data; ttl <= 0 keeps it until deleted or evicted.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// SpecKey addresses the form compiled from a diagram.
	SpecKey(sourceHash string, opts SpecKeyOpts) string
	// ArtifactKey addresses one rendered format of a diagram.
	ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string
}

// SpecKeyOpts holds the compiler options that change the compiled form.
type SpecKeyOpts struct {
	Placeholder   string `json:"placeholder"`
	MaxChainDepth int    `json:"max_chain_depth"`
}

// ArtifactKeyOpts holds the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string      `json:"format"`
	Detailed bool        `json:"detailed,omitempty"`
	Spec     SpecKeyOpts `json:"spec"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SpecKey implements Keyer.
func (DefaultKeyer) SpecKey(sourceHash string, opts SpecKeyOpts) string {
	return hashKey("spec", sourceHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sourceHash, opts)
}
