// Package cache stores computed merge reports so that an unchanged input is
// not merged twice.
//
// # Backends
//
//   - [FileCache]: JSON entry files under the user cache directory (CLI default)
//   - [MemoryCache]: a bounded in-process LRU (server default)
//   - [RedisCache]: a shared Redis instance, selected with NATIVEMERGE_REDIS_URL
//   - [NullCache]: stores nothing (--no-cache)
//
// # Keys
//
// A merge is a pure function of its configuration and its platform graph,
// so a [Keyer] derives keys from SHA-256 hashes of both (see [Hash]). A
// [ScopedKeyer] adds a prefix, which keeps entries written by different
// builds of the tool apart.
//
// # Fingerprints
//
// [Fingerprint] is a fast 64-bit keyed hash of an emitted mapping. Equal
// fingerprints across runs are a quick check that a merge is deterministic.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// TTLResult is how long merge reports are kept. Reports never go stale, so
// the TTL only bounds disk and memory use.
const TTLResult = 30 * 24 * time.Hour

// Keyer derives cache keys.
type Keyer interface {
	// ResultKey returns the key of the merge report of platform computed
	// from the configuration and graph with the given hashes.
	ResultKey(platform, configHash, graphHash string) string
}

// DefaultKeyer hashes key components into "<kind>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ResultKey implements Keyer.
func (DefaultKeyer) ResultKey(platform, configHash, graphHash string) string {
	return hashKey("result", platform, configHash, graphHash)
}
