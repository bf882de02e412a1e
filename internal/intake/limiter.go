// Package intake implements the public contact form pipeline: rate limit,
// honeypot, consent, field validation, attachment validation, transactional
// lead creation and best-effort notification.
package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cgvrzon/arynstal/pkg/logging"
)

// RedisLimiter is a fixed-window per-IP submission limiter. The limiter
// deters abuse, it is not a hard quota: with no redis client, or when redis
// is unreachable, it allows everything.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	logger *logging.Logger
}

// NewRedisLimiter creates a limiter allowing max submissions per window per
// IP. client may be nil.
func NewRedisLimiter(client *redis.Client, max int, window time.Duration, logger *logging.Logger) *RedisLimiter {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = time.Hour
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisLimiter{client: client, max: max, window: window, logger: logger}
}

// Allow reports whether a submission from ip is within the limit and counts
// it against the window.
func (l *RedisLimiter) Allow(ctx context.Context, ip string) bool {
	if l == nil || l.client == nil {
		return true
	}

	key := fmt.Sprintf("intake:ip:%s", ip)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing", "error", err, "ip", ip)
		return true
	}

	// Set expiry only on first increment so the window is fixed.
	if count == 1 {
		l.client.Expire(ctx, key, l.window)
	}

	if count > int64(l.max) {
		l.logger.Warn("submission rate limit hit", "ip", ip, "count", count, "max", l.max)
		return false
	}
	return true
}
