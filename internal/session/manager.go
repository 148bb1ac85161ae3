// Package session tracks the signed-in user whose id is stamped on every
// write. It replaces a global profile singleton with an explicit handle
// passed to the SQL managers at construction.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stockroomhq/stockroom/internal/dispatch"
	"github.com/stockroomhq/stockroom/internal/domain/model"
	"github.com/stockroomhq/stockroom/internal/port/outbound/cache"
)

const defaultTTL = 24 * time.Hour

// Manager holds the current session and mirrors it through the cache port
// so a restart resumes where the user left off.
type Manager struct {
	cache  cache.SessionCache
	logger *zap.Logger
	ttl    time.Duration

	mu      sync.RWMutex
	current *model.UserSession
}

// NewManager creates a session manager backed by the given cache.
func NewManager(sessionCache cache.SessionCache, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cache:  sessionCache,
		logger: logger,
		ttl:    defaultTTL,
	}
}

// Restore loads a previously saved session, if any.
func (m *Manager) Restore(ctx context.Context) error {
	session, err := m.cache.Load(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	m.mu.Lock()
	m.current = session
	m.mu.Unlock()

	m.logger.Info("restored session",
		zap.Int64("user_id", session.UserID),
		zap.String("user_name", session.UserName),
	)
	return nil
}

// Current returns a copy of the active session, or nil when signed out.
func (m *Manager) Current() *model.UserSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	session := *m.current
	return &session
}

// UserID returns the acting-user id, or 0 when no one is signed in.
func (m *Manager) UserID() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return 0
	}
	return m.current.UserID
}

// SignIn records the session and persists it through the cache.
func (m *Manager) SignIn(ctx context.Context, userID int64, userName string) {
	session := model.UserSession{
		UserID:     userID,
		UserName:   userName,
		SignedInAt: time.Now(),
	}

	m.mu.Lock()
	m.current = &session
	m.mu.Unlock()

	if err := m.cache.Save(ctx, session, m.ttl); err != nil {
		m.logger.Warn("failed to persist session", zap.Error(err))
	}
}

// SignOut clears the session and the cache.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.cache.Clear(ctx); err != nil {
		m.logger.Warn("failed to clear session", zap.Error(err))
	}
}

// Watch consumes a worker subscription and keeps the session in step with
// sign-in results. It returns when the channel closes or the context is
// cancelled; run it in its own goroutine.
func (m *Manager) Watch(ctx context.Context, results <-chan dispatch.QueryResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-results:
			if !ok {
				return
			}
			m.observe(ctx, res)
		}
	}
}

func (m *Manager) observe(ctx context.Context, res dispatch.QueryResult) {
	if !res.Successful || res.Request.Domain != dispatch.DomainUser {
		return
	}
	if res.Request.Command != "sign_in_user" {
		return
	}

	userID, _ := res.Outcome["user_id"].(int64)
	userName, _ := res.Outcome["user_name"].(string)
	if userID <= 0 {
		return
	}
	m.SignIn(ctx, userID, userName)
}
