package events

import (
	"context"
	"sync/atomic"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
)

// MemoryEventBus delivers events within a single process
type MemoryEventBus struct {
	hub    *hub
	closed atomic.Bool
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{hub: newHub()}
}

// Publish delivers the event to current subscribers of the channel
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.TriageEvent) error {
	if b.closed.Load() {
		return apperrors.NewInternalError("event bus is closed", nil)
	}
	b.hub.broadcast(channel, event)
	return nil
}

// Subscribe returns a queue that is closed when ctx is done or the bus closes
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.TriageEvent, error) {
	if b.closed.Load() {
		return nil, apperrors.NewInternalError("event bus is closed", nil)
	}
	ch, _ := b.hub.add(channel)

	go func() {
		<-ctx.Done()
		b.hub.remove(channel, ch)
	}()
	return ch, nil
}

// Close closes every subscription
func (b *MemoryEventBus) Close() error {
	if b.closed.CompareAndSwap(false, true) {
		b.hub.closeAll()
	}
	return nil
}
