// Package cache stores rendered figure artifacts keyed by trace content.
//
// Backends implement [Cache]:
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for `d3fig serve` deployments
//   - [NullCache]: disables caching (`--no-cache`)
//
// Keys come from a [Keyer]. The default keyer hashes the trace bytes together
// with every option that changes the output, so a cached artifact is reused
// only when rendering would produce the same bytes.
package cache

import (
	"context"
	"time"
)

// Default TTLs.
const (
	// ArtifactTTL is how long rendered artifacts stay cached.
	ArtifactTTL = 7 * 24 * time.Hour

	// DocumentTTL is used for cached figure documents.
	DocumentTTL = 24 * time.Hour
)

// Cache is a byte-oriented key/value cache with per-entry expiry.
//
// Get reports a miss with (nil, false, nil); errors are reserved for backend
// failures. A zero ttl in Set means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
