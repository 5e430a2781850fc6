// Package cache stores computed layers, grids and rendered artifacts.
//
// Entries are keyed by content: a tree snapshot's hash together with the
// options that shaped the result. A changed tree therefore misses the cache
// without explicit invalidation, and TTLs only bound disk and memory use.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for the HTTP server, and [NullCache] when caching is disabled.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); an error means the backend
// itself failed. A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// PrefixDeleter is implemented by backends that can evict every key
// sharing a prefix.
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Default lifetimes per entry kind.
const (
	TTLLayers   = 7 * 24 * time.Hour
	TTLGrid     = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Keyer derives cache keys. Implementations must return equal keys for
// equal inputs and distinct keys whenever an input differs.
type Keyer interface {
	// LayersKey identifies the generations computed for a tree.
	LayersKey(treeHash string, opts LayersKeyOpts) string
	// GridKey identifies the grid built from a tree and its layers.
	GridKey(treeHash string, opts GridKeyOpts) string
	// ArtifactKey identifies a rendered grid.
	ArtifactKey(gridHash string, opts ArtifactKeyOpts) string
}

// LayersKeyOpts are the inputs of layer assignment besides the tree.
type LayersKeyOpts struct {
	Provider string `json:"provider"`
}

// GridKeyOpts are the inputs of grid construction besides the tree.
type GridKeyOpts struct {
	Provider string `json:"provider"`
	// LayersHash is set when layers were supplied by the caller instead of
	// the provider.
	LayersHash string `json:"layers_hash,omitempty"`
}

// ArtifactKeyOpts are the rendering options that change output bytes.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Width    int     `json:"width,omitempty"`
	CellSize float64 `json:"cell_size,omitempty"`
	Labels   bool    `json:"labels"`
	Theme    string  `json:"theme,omitempty"`
}

// DefaultKeyer hashes key inputs under a fixed prefix per entry kind.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayersKey(treeHash string, opts LayersKeyOpts) string {
	return hashKey("layers", treeHash, opts)
}

func (DefaultKeyer) GridKey(treeHash string, opts GridKeyOpts) string {
	return hashKey("grid", treeHash, opts)
}

func (DefaultKeyer) ArtifactKey(gridHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", gridHash, opts)
}

var _ Keyer = DefaultKeyer{}
