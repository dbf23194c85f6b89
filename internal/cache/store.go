// Package cache stores rendered list responses and drops them by key prefix
// when the underlying data changes.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache backend.
type Store interface {
	// Get returns the cached bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix and reports how
	// many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
