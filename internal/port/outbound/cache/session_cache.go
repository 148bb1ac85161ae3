// Package cache defines the outbound port for the signed-in session cache.
package cache

import (
	"context"
	"time"

	"github.com/stockroomhq/stockroom/internal/domain/model"
)

// SessionCache persists the signed-in user profile so it survives a
// restart. A cache miss is (nil, nil), never an error.
type SessionCache interface {
	Save(ctx context.Context, session model.UserSession, ttl time.Duration) error
	Load(ctx context.Context) (*model.UserSession, error)
	Clear(ctx context.Context) error
}
