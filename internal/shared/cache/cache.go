// Package cache provides a small byte-value store with per-entry TTL.
// Implementations are best-effort: a backend failure reads as a miss, never
// an error, so callers always fall through to recomputing the value.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}
