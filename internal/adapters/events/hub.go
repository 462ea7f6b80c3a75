package events

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

// subscriberBuffer is how many undelivered events a slow subscriber may hold
// before further events are dropped for it.
const subscriberBuffer = 64

// hub fans events out to per-channel subscriber queues. Delivery never blocks
// the publisher.
type hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.TriageEvent]struct{}
}

func newHub() *hub {
	return &hub{subscribers: make(map[string]map[chan *entities.TriageEvent]struct{})}
}

// add registers a new queue and reports whether it is the channel's first.
func (h *hub) add(channel string) (chan *entities.TriageEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[channel]
	if !ok {
		subs = make(map[chan *entities.TriageEvent]struct{})
		h.subscribers[channel] = subs
	}
	ch := make(chan *entities.TriageEvent, subscriberBuffer)
	subs[ch] = struct{}{}
	return ch, !ok
}

// remove closes the queue and reports whether the channel has no subscribers left.
func (h *hub) remove(channel string, ch chan *entities.TriageEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[channel]
	if !ok {
		return false
	}
	if _, ok := subs[ch]; !ok {
		return false
	}
	delete(subs, ch)
	close(ch)

	if len(subs) == 0 {
		delete(h.subscribers, channel)
		return true
	}
	return false
}

func (h *hub) broadcast(channel string, event *entities.TriageEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[channel] {
		select {
		case ch <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("Subscriber queue full, dropping event")
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel, subs := range h.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(h.subscribers, channel)
	}
}

func (h *hub) count(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channel])
}
