// Package messaging defines the outbound port for domain event publishing.
package messaging

import (
	"context"
	"strings"

	"github.com/stockroomhq/stockroom/internal/domain/event"
)

// EventPublisher publishes domain events to external observers.
type EventPublisher interface {
	// Publish publishes a single event.
	Publish(ctx context.Context, evt event.Event) error

	// PublishAll publishes events in order, stopping at the first failure.
	PublishAll(ctx context.Context, events []event.Event) error
}

// TopicForEvent derives the transport topic from an event type, e.g.
// "stock.item_added" stays dot-separated for subject-based brokers.
func TopicForEvent(evt event.Event) string {
	return strings.ToLower(evt.EventType())
}

// NopPublisher discards all events. It is the default when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, evt event.Event) error { return nil }

func (NopPublisher) PublishAll(ctx context.Context, events []event.Event) error { return nil }
