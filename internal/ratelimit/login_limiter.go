package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles login attempts per email+IP using a fixed window
// counter in Redis. It fails open when Redis is unreachable so an outage
// cannot block all logins.
type LoginLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewLoginLimiter builds a limiter; a nil client disables limiting.
func NewLoginLimiter(client *redis.Client, limit, windowSeconds int) *LoginLimiter {
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	return &LoginLimiter{
		client: client,
		limit:  limit,
		window: time.Duration(windowSeconds) * time.Second,
	}
}

// Allow reports whether another attempt for this email+IP is within limits.
func (l *LoginLimiter) Allow(ctx context.Context, email, ip string) (bool, error) {
	if l == nil || l.client == nil || l.limit <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("login_attempts:%s:%s", strings.ToLower(strings.TrimSpace(email)), ip)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		l.client.Expire(ctx, key, l.window)
	}
	return count <= int64(l.limit), nil
}
