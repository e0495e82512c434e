// Package ratelimit implements a Redis fixed-window limiter keyed by client
// IP and purpose.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter allows max requests per window for each ip/purpose pair.
type Limiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewLimiter(client *redis.Client, maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		max:    maxRequests,
		window: window,
	}
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:%s:ip:%s", purpose, ip)
}

// CheckIPRateLimitWithPurpose reports whether ip already used up its window.
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(ip, purpose)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}

	return count >= l.max, nil
}

// RecordIPRequestWithPurpose counts one request. The window starts with the
// first request and is not extended by later ones.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := ipKey(ip, purpose)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return nil
}
