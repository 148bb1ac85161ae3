// Package memory implements the session cache port in process memory. It
// is the default adapter when no Redis instance is configured; the session
// then lives only as long as the process.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/stockroomhq/stockroom/internal/domain/model"
	"github.com/stockroomhq/stockroom/internal/port/outbound/cache"
)

// sessionCache implements cache.SessionCache.
type sessionCache struct {
	mu      sync.Mutex
	session *model.UserSession
	expires time.Time
}

// NewSessionCache creates an in-memory SessionCache.
func NewSessionCache() cache.SessionCache {
	return &sessionCache{}
}

func (c *sessionCache) Save(ctx context.Context, session model.UserSession, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = &session
	if ttl > 0 {
		c.expires = time.Now().Add(ttl)
	} else {
		c.expires = time.Time{}
	}
	return nil
}

func (c *sessionCache) Load(ctx context.Context) (*model.UserSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, nil
	}
	if !c.expires.IsZero() && time.Now().After(c.expires) {
		c.session = nil
		return nil, nil
	}
	session := *c.session
	return &session, nil
}

func (c *sessionCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	return nil
}
