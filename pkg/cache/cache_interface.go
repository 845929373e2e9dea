package cache

import (
	"context"
	"time"
)

// Cache is the contract for the cache layer.
// Redis in production; tests use an in-memory map.
type Cache interface {
	// Get loads key into dest. found is false on a miss and dest is untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value as JSON with the given TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error
}
