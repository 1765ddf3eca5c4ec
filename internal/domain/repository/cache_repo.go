package repository

import (
	"context"
	"time"
)

// CacheRepository is the engine's port onto Redis: rolling rate-limit
// counters and short-lived leaderboard snapshots.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error

	// Increment atomically increments the counter at key and returns the new
	// value. Used by the rate limiter; atomicity is what keeps concurrent
	// submissions from both seeing the same free slot.
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)

	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
}
