// Package events fans committed workflow events out to live subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/config"
	"github.com/stemsi/classroom-backend/internal/model"
)

// subscriberBuffer bounds how far a slow subscriber may lag before events are dropped.
const subscriberBuffer = 64

// Bus publishes events and hands out subscriptions. A subscription's channel
// is closed once its context is done.
type Bus interface {
	Publish(ctx context.Context, ev model.Event) error
	Subscribe(ctx context.Context) (<-chan model.Event, error)
}

// RedisBus distributes events over Redis Pub/Sub so every server instance sees them.
type RedisBus struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisBus creates a new RedisBus.
func NewRedisBus(rdb *redis.Client, log zerolog.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, log: log.With().Str("component", "event_bus").Logger()}
}

func (b *RedisBus) Publish(ctx context.Context, ev model.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.rdb.Publish(ctx, config.CacheKey.EventsChannel(), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan model.Event, error) {
	pubsub := b.rdb.Subscribe(ctx, config.CacheKey.EventsChannel())
	// Wait for the subscription to be confirmed before returning.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe events: %w", err)
	}

	out := make(chan model.Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev model.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn().Err(err).Msg("Dropping malformed event")
					continue
				}
				select {
				case out <- ev:
				default:
					b.log.Warn().Str("event", string(ev.Type)).Msg("Subscriber lagging, event dropped")
				}
			}
		}
	}()
	return out, nil
}

// LocalBus delivers events within the process. It backs the demo server and tests.
type LocalBus struct {
	mu   sync.Mutex
	subs map[chan model.Event]struct{}
}

// NewLocalBus creates a new LocalBus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[chan model.Event]struct{})}
}

// Publish never blocks; subscribers with a full buffer miss the event.
func (b *LocalBus) Publish(_ context.Context, ev model.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context) (<-chan model.Event, error) {
	ch := make(chan model.Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}
