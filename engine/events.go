// ABOUTME: In-memory fan-out of engine events to registered subscribers.
// ABOUTME: Explicit registration/unregistration; ordered, non-blocking notification.

package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/coven-chat/conn"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// EventKind says which slice of engine state changed.
type EventKind string

const (
	// EventConnection: the connection state moved.
	EventConnection EventKind = "connection"
	// EventChannels: the channel list changed (create/delete/pin/select).
	EventChannels EventKind = "channels"
	// EventMessage: a message was appended or its content/status changed.
	EventMessage EventKind = "message"
	// EventLoading: a loading key flipped.
	EventLoading EventKind = "loading"
)

// Event notifies a subscriber that state changed. Events carry identifiers,
// not state: subscribers read current state through the engine's accessors,
// which always reflect every mutation up to the notification.
type Event struct {
	Kind            EventKind
	ConnectionState conn.State
	ChannelID       string
	MessageID       string
	LoadingKey      string
}

// broadcaster fans events out to subscribers. Notification order follows
// mutation order because publish is only called under the engine's apply
// lock. Slow subscribers have events dropped rather than stalling the engine.
type broadcaster struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	logger *slog.Logger
}

func newBroadcaster(logger *slog.Logger) *broadcaster {
	return &broadcaster{
		subs:   make(map[string]chan Event),
		logger: logger.With("component", "events"),
	}
}

// subscribe registers a listener. The subscription is cleaned up when ctx is
// cancelled, or explicitly via unsubscribe.
func (b *broadcaster) subscribe(ctx context.Context) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	b.mu.Lock()
	b.subs[subID] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.unsubscribe(subID)
	}()

	return ch, subID
}

func (b *broadcaster) unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subs[subID]
	if !ok {
		return
	}
	delete(b.subs, subID)
	close(ch)
}

// publish delivers to every subscriber without blocking. The read lock is
// held across the sends so no channel can be closed mid-delivery.
func (b *broadcaster) publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("dropped event for slow subscriber", "kind", ev.Kind)
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
