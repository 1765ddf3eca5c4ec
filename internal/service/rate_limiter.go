package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Emynex4real/innovateam-sub004/internal/domain/repository"
)

// RateLimitConfig bounds how many times one user may perform an action
// inside a trailing window.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
}

// DefaultSubmissionRateLimit is the cap on scoring submissions per user.
func DefaultSubmissionRateLimit() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 20,
		Window:      5 * time.Minute,
		KeyPrefix:   "rl:scoring",
	}
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter counts per-(user, action) events in Redis. The counter
// increment is a single atomic INCR, so two simultaneous submissions can
// never both observe the last free slot.
type RateLimiter struct {
	cache repository.CacheRepository
	cfg   RateLimitConfig
}

// NewRateLimiter creates a limiter with the given configuration
func NewRateLimiter(cache repository.CacheRepository, cfg RateLimitConfig) *RateLimiter {
	if cfg.MaxRequests <= 0 {
		cfg = DefaultSubmissionRateLimit()
	}
	return &RateLimiter{cache: cache, cfg: cfg}
}

// Allow counts one action for (userID, action) and reports whether it fits
// inside the window. The count happens before any ledger mutation. On a Redis
// fault the limiter fails open, matching availability over strictness.
func (l *RateLimiter) Allow(ctx context.Context, userID uint, action string) Decision {
	key := fmt.Sprintf("%s:%s:%d", l.cfg.KeyPrefix, action, userID)

	count, err := l.cache.Increment(ctx, key)
	if err != nil {
		log.Printf("[RateLimiter] redis error for key %s: %v. Allowing request (fail-open).", key, err)
		return Decision{Allowed: true, Limit: l.cfg.MaxRequests, Remaining: 0, RetryAfter: 0}
	}

	// First hit in a fresh window owns setting the TTL.
	if count == 1 {
		if err := l.cache.Expire(ctx, key, l.cfg.Window); err != nil {
			log.Printf("[RateLimiter] failed to set TTL for key %s: %v", key, err)
		}
	}

	retryAfter, err := l.cache.TTL(ctx, key)
	if err != nil || retryAfter < 0 {
		retryAfter = l.cfg.Window
	}

	remaining := l.cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	if int(count) > l.cfg.MaxRequests {
		log.Printf("[RateLimiter] limit exceeded for user=%d action=%s count=%d limit=%d",
			userID, action, count, l.cfg.MaxRequests)
		return Decision{Allowed: false, Limit: l.cfg.MaxRequests, Remaining: 0, RetryAfter: retryAfter}
	}

	return Decision{Allowed: true, Limit: l.cfg.MaxRequests, Remaining: remaining, RetryAfter: retryAfter}
}
