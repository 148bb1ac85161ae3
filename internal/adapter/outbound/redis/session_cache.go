// Package redis implements the session cache port on a Redis client, for
// deployments where several tills on one counter share the signed-in
// profile.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockroomhq/stockroom/internal/domain/model"
	"github.com/stockroomhq/stockroom/internal/port/outbound/cache"
)

const (
	sessionKey        = "stockroom:session:current"
	defaultSessionTTL = 24 * time.Hour
)

// sessionCache implements cache.SessionCache.
type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new SessionCache.
func NewSessionCache(client *redis.Client, ttl time.Duration) cache.SessionCache {
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) Save(ctx context.Context, session model.UserSession, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := c.client.Set(ctx, sessionKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session in cache: %w", err)
	}
	return nil
}

func (c *sessionCache) Load(ctx context.Context) (*model.UserSession, error) {
	data, err := c.client.Get(ctx, sessionKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	var session model.UserSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (c *sessionCache) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, sessionKey).Err(); err != nil {
		return fmt.Errorf("failed to delete session from cache: %w", err)
	}
	return nil
}
