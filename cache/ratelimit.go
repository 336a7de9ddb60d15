package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter is a fixed-window request counter backed by Redis. Keys expire
// with the window, so an idle client costs nothing.
type RateLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

// NewRateLimiter creates a limiter allowing max requests per window.
func NewRateLimiter(client *redis.Client, window time.Duration, max int) *RateLimiter {
	return &RateLimiter{
		client: client,
		window: window,
		max:    max,
	}
}

// Allow counts a request for the given key (normally the client IP) and
// reports whether it is still inside the limit. On Redis failure the request
// is allowed: losing rate limiting must not take the API down with it.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, fmt.Errorf("rate limiter incr failed: %w", err)
	}

	// First hit in the window starts the clock.
	if count == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			return true, fmt.Errorf("rate limiter expire failed: %w", err)
		}
	}

	return count <= int64(rl.max), nil
}

// Remaining reports how many requests the key has left in the current window.
func (rl *RateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := rl.client.Get(ctx, redisKey).Int64()
	if err == redis.Nil {
		return rl.max, nil
	}
	if err != nil {
		return rl.max, fmt.Errorf("rate limiter get failed: %w", err)
	}

	remaining := rl.max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
