// Package events fans game events out to listeners such as the terminal UI.
//
// Events describe what already happened to the session; listeners re-read
// session state rather than rebuilding it from the stream. Within one draw
// the order is NumberDrawn, GameOver when it was the last number,
// PlaybackStarted, then exactly one of PlaybackEnded or PlaybackFailed.
// Delivery is best effort: a subscriber whose buffer is full misses events
// instead of stalling the draw.
package events

import (
	"slices"
	"sync"

	"github.com/jscyril/audio_tombola/api"
)

const (
	typedBuffer = 10
	allBuffer   = 32
)

// EventBus distributes game events over buffered channels
type EventBus struct {
	subscribers map[api.EventType][]chan api.GameEvent
	// channels maps each subscription to the types it listens to
	channels map[<-chan api.GameEvent]chan api.GameEvent
	closed   bool
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[api.EventType][]chan api.GameEvent),
		channels:    make(map[<-chan api.GameEvent]chan api.GameEvent),
	}
}

// Subscribe returns one channel receiving every event of the given types.
// With no types it receives everything. After Close the channel is
// returned already closed.
func (b *EventBus) Subscribe(types ...api.EventType) <-chan api.GameEvent {
	size := typedBuffer
	if len(types) == 0 {
		types = api.AllEventTypes()
		size = allBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan api.GameEvent, size)
	if b.closed {
		close(ch)
		return ch
	}
	for _, eventType := range slices.Compact(slices.Sorted(slices.Values(types))) {
		b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	}
	b.channels[ch] = ch
	return ch
}

// SubscribeAll returns a channel receiving every event type
func (b *EventBus) SubscribeAll() <-chan api.GameEvent {
	return b.Subscribe()
}

// Publish sends event to its subscribers without blocking. A nil or
// closed bus drops the event.
func (b *EventBus) Publish(event api.GameEvent) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
			// Subscriber is behind; it re-reads state on the next event
		}
	}
}

// Unsubscribe stops delivery to ch and closes it. Unknown channels are
// ignored.
func (b *EventBus) Unsubscribe(ch <-chan api.GameEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.channels[ch]
	if !ok {
		return
	}
	delete(b.channels, ch)
	for eventType, subs := range b.subscribers {
		b.subscribers[eventType] = slices.DeleteFunc(subs, func(c chan api.GameEvent) bool { return c == sub })
	}
	close(sub)
}

// Close closes every subscription. Later publishes are dropped.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.channels {
		close(ch)
	}
	b.channels = make(map[<-chan api.GameEvent]chan api.GameEvent)
	b.subscribers = make(map[api.EventType][]chan api.GameEvent)
}
