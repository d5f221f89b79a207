// Package provider defines the byte store that holds cached query results.
//
// Implementations must be byte-for-byte transparent: Get returns exactly the
// bytes previously passed to Set for a key. Stores that compress or otherwise
// transform values must fully reverse the transform on Get.
//
// The keyspace "query:<ns>:" is owned by the database facade. Values written
// there by anything else fail frame validation and are deleted on read.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. It must be safe for
// concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	// Transport errors return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl. cost may be ignored.
	// ok=false means the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
