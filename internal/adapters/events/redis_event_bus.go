package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
)

// RedisEventBus implements the EventBus interface using Redis Pub/Sub, so
// dashboards connected to any replica see every registry change.
type RedisEventBus struct {
	client        redis.UniversalClient
	hub           *hub
	mu            sync.Mutex
	subscriptions map[string]*redis.PubSub
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client redis.UniversalClient) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:        client,
		hub:           newHub(),
		subscriptions: make(map[string]*redis.PubSub),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.TriageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewSerializationError("failed to marshal event", err)
	}

	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return apperrors.NewExternalError("failed to publish event", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Str("event_type", string(event.EventType)).Msg("Published event")
	return nil
}

// Subscribe subscribes to events on a channel; one Redis subscription is
// shared by all local subscribers of that channel.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.TriageEvent, error) {
	if b.ctx.Err() != nil {
		return nil, apperrors.NewInternalError("event bus is closed", nil)
	}

	b.mu.Lock()
	if _, exists := b.subscriptions[channel]; !exists {
		pubsub := b.client.Subscribe(b.ctx, channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			b.mu.Unlock()
			_ = pubsub.Close()
			return nil, apperrors.NewExternalError("failed to subscribe to "+channel, err)
		}
		b.subscriptions[channel] = pubsub
		go b.receiveMessages(channel, pubsub)
	}
	eventChan, _ := b.hub.add(channel)
	b.mu.Unlock()

	log.Info().Str("channel", channel).Int("subscribers", b.hub.count(channel)).Msg("Subscribed to channel")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

// receiveMessages relays Redis messages to local subscribers until the
// subscription or the bus is closed. Local queues are closed by their owners.
func (b *RedisEventBus) receiveMessages(channel string, pubsub *redis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event entities.TriageEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("Failed to unmarshal event")
				continue
			}
			b.hub.broadcast(channel, &event)
		}
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, eventChan chan *entities.TriageEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hub.remove(channel, eventChan) {
		return
	}
	if pubsub, ok := b.subscriptions[channel]; ok {
		_ = pubsub.Close()
		delete(b.subscriptions, channel)
		log.Debug().Str("channel", channel).Msg("Closed subscription")
	}
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	var errs []error
	for channel, pubsub := range b.subscriptions {
		if err := pubsub.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(b.subscriptions, channel)
	}
	b.mu.Unlock()

	b.hub.closeAll()

	if err := errors.Join(errs...); err != nil {
		return apperrors.NewExternalError("errors closing event bus", err)
	}
	log.Info().Msg("Event bus closed")
	return nil
}
