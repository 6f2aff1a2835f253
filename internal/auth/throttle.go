package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle caps login attempts per client and username within a fixed
// window shared across instances through Redis.
type LoginThrottle struct {
	redis       redis.Cmdable
	maxAttempts int
	window      time.Duration
	prefix      string
}

// NewLoginThrottle returns nil when throttling is disabled; a nil throttle
// allows everything.
func NewLoginThrottle(client redis.Cmdable, maxAttempts int, window time.Duration) *LoginThrottle {
	if client == nil || maxAttempts <= 0 || window <= 0 {
		return nil
	}
	return &LoginThrottle{
		redis:       client,
		maxAttempts: maxAttempts,
		window:      window,
		prefix:      "login_throttle",
	}
}

func (t *LoginThrottle) key(clientIP, username string) string {
	return fmt.Sprintf("%s:%s:%s", t.prefix, clientIP, strings.ToLower(strings.TrimSpace(username)))
}

// Allow counts one attempt and reports whether it is within the limit, plus
// the time until the window resets. On Redis errors the attempt is allowed and
// the error returned for logging.
func (t *LoginThrottle) Allow(ctx context.Context, clientIP, username string) (bool, time.Duration, error) {
	if t == nil {
		return true, 0, nil
	}
	key := t.key(clientIP, username)

	count, err := t.redis.Incr(ctx, key).Result()
	if err != nil {
		return true, 0, fmt.Errorf("login throttle: %w", err)
	}
	retryAfter, err := t.redis.TTL(ctx, key).Result()
	if err != nil {
		return true, 0, fmt.Errorf("login throttle: %w", err)
	}
	// A key without expiry is either new or was orphaned between INCR and EXPIRE.
	if retryAfter < 0 {
		if err := t.redis.Expire(ctx, key, t.window).Err(); err != nil {
			return true, 0, fmt.Errorf("login throttle: %w", err)
		}
		retryAfter = t.window
	}
	return count <= int64(t.maxAttempts), retryAfter, nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, clientIP, username string) error {
	if t == nil {
		return nil
	}
	return t.redis.Del(ctx, t.key(clientIP, username)).Err()
}
