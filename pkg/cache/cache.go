// Package cache stores rendered dialogue exports so unchanged dialogues are
// not laid out by Graphviz twice.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, with optional
//     expiry. Used by the CLI (~/.cache/dialoguegraph/).
//   - [NullCache]: never stores anything. Used with --no-cache and in tests.
//
// # Keys
//
// Keys are derived from the content hash of the serialized dialogue plus the
// export options, so any edit produces a new key:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ExportKey(cache.Hash(docJSON), cache.ExportKeyOpts{Format: "svg"})
//
// A [ScopedKeyer] prefixes keys, for example per store backend.
package cache

import (
	"context"
	"time"
)

// TTLExport is how long a rendered export stays cached. Keys change with
// content, so the TTL only bounds disk usage.
const TTLExport = 7 * 24 * time.Hour

// Cache is a byte-oriented key-value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// ExportKey keys a rendered export of the dialogue with content hash docHash.
	ExportKey(docHash string, opts ExportKeyOpts) string
}

// ExportKeyOpts are the export options that change rendered output.
type ExportKeyOpts struct {
	Format   string  `json:"format"`
	Detailed bool    `json:"detailed,omitempty"`
	Pinned   bool    `json:"pinned,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ExportKey generates a key for a rendered export.
func (DefaultKeyer) ExportKey(docHash string, opts ExportKeyOpts) string {
	return hashKey("export", docHash, opts)
}
