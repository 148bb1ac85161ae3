package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stockroomhq/stockroom/internal/adapter/outbound/memory"
	"github.com/stockroomhq/stockroom/internal/domain/model"
)

func TestSessionCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss before save", func(t *testing.T) {
		c := memory.NewSessionCache()
		got, err := c.Load(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected miss, got %+v", got)
		}
	})

	t.Run("save then load", func(t *testing.T) {
		c := memory.NewSessionCache()
		session := model.UserSession{UserID: 4, UserName: "ama", SignedInAt: time.Now()}
		if err := c.Save(ctx, session, time.Hour); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		got, err := c.Load(ctx)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got == nil || got.UserID != 4 || got.UserName != "ama" {
			t.Errorf("unexpected session %+v", got)
		}
	})

	t.Run("expired session is a miss", func(t *testing.T) {
		c := memory.NewSessionCache()
		if err := c.Save(ctx, model.UserSession{UserID: 4}, time.Nanosecond); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		time.Sleep(time.Millisecond)

		got, err := c.Load(ctx)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got != nil {
			t.Errorf("expected expired session to be a miss, got %+v", got)
		}
	})

	t.Run("clear", func(t *testing.T) {
		c := memory.NewSessionCache()
		if err := c.Save(ctx, model.UserSession{UserID: 4}, 0); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := c.Clear(ctx); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		got, err := c.Load(ctx)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got != nil {
			t.Errorf("expected cleared session to be a miss, got %+v", got)
		}
	})
}
