package providers

import (
	"context"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.TriageEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.TriageEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelRegistry carries every registry change
const EventChannelRegistry = "triage:registry"
