package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle counts failed logins per username in Redis.
// Key format: login:failures:<username>
type LoginThrottle struct {
	client      *redis.Client
	maxFailures int64
	window      time.Duration
}

// NewLoginThrottle locks a username out after maxFailures failures inside
// window. The window starts at the first failure.
func NewLoginThrottle(client *redis.Client, maxFailures int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, maxFailures: int64(maxFailures), window: window}
}

// Locked reports whether username has exhausted its failed attempts.
func (l *LoginThrottle) Locked(ctx context.Context, username string) (bool, error) {
	if l.maxFailures <= 0 {
		return false, nil
	}
	n, err := l.client.Get(ctx, l.key(username)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("login throttle get: %w", err)
	}
	return n >= l.maxFailures, nil
}

// RegisterFailure increments the failure counter for username.
func (l *LoginThrottle) RegisterFailure(ctx context.Context, username string) error {
	key := l.key(username)
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("login throttle incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("login throttle expire: %w", err)
		}
	}
	return nil
}

// Reset clears the failure counter after a successful login.
func (l *LoginThrottle) Reset(ctx context.Context, username string) error {
	return l.client.Del(ctx, l.key(username)).Err()
}

func (l *LoginThrottle) key(username string) string {
	return "login:failures:" + username
}
