// Package genstore holds the generation counters that decide whether a
// cached query result is still current. One counter exists per cache
// namespace; every write through the database bumps it.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use LocalGenStore (default) for a single process, or RedisGenStore when
// several processes write to the same database file.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, ns string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, ns string) (uint64, error)
	// Cleanup prunes counters idle for longer than retention (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
