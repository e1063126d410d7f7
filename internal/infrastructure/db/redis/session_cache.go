package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSessionCacheTTL bounds how long a cached answer may lag behind the
// credential store.
const DefaultSessionCacheTTL = 5 * time.Minute

// SessionCache records per-account session liveness.
// Key format: session:<account_id> → "1" (active) | "0" (revoked)
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a SessionCache wrapping the given Redis client.
// A non-positive ttl falls back to DefaultSessionCacheTTL.
func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = DefaultSessionCacheTTL
	}
	return &SessionCache{client: client, ttl: ttl}
}

// Store records whether the account currently holds a live refresh token.
func (c *SessionCache) Store(ctx context.Context, accountID string, active bool) error {
	value := "0"
	if active {
		value = "1"
	}
	if err := c.client.Set(ctx, c.key(accountID), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("session cache store: %w", err)
	}
	return nil
}

// Lookup reports the cached liveness; found is false on a miss.
func (c *SessionCache) Lookup(ctx context.Context, accountID string) (active, found bool, err error) {
	value, err := c.client.Get(ctx, c.key(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("session cache lookup: %w", err)
	}
	return value == "1", true, nil
}

func (c *SessionCache) key(accountID string) string {
	return "session:" + accountID
}
