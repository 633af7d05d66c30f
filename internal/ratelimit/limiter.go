package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config is one sliding window: at most Max events per Window, counted per
// identifier (an IP, an email, a user ID).
type Config struct {
	Name   string
	Window time.Duration
	Max    int
}

// Limiter is a redis-backed sliding-window rate limiter shared across
// instances. Used to throttle login attempts.
type Limiter struct {
	redis  *redis.Client
	config Config
}

func New(redis *redis.Client, config Config) *Limiter {
	return &Limiter{
		redis:  redis,
		config: config,
	}
}

// Allow records one event for identifier and reports whether it stayed within
// the window. Errors fail open so a redis outage does not lock everyone out.
func (l *Limiter) Allow(ctx context.Context, identifier string) (bool, error) {
	key := fmt.Sprintf("rate_limit:%s:%s", l.config.Name, identifier)

	pipe := l.redis.Pipeline()
	now := time.Now().Unix()
	windowStart := now - int64(l.config.Window.Seconds())

	// Remove old entries
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	// Count current window
	pipe.ZCard(ctx, key)

	// Add new entry
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})

	// Set expiration
	pipe.Expire(ctx, key, l.config.Window*2)

	results, err := pipe.Exec(ctx)
	if err != nil {
		return true, fmt.Errorf("redis pipeline error: %w", err)
	}

	count := results[1].(*redis.IntCmd).Val()
	return count <= int64(l.config.Max), nil
}
