package events

import (
	"testing"

	"github.com/jscyril/audio_tombola/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_DeliversToTypeSubscribers(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	drawn := bus.Subscribe(api.EventNumberDrawn)
	over := bus.Subscribe(api.EventGameOver)

	bus.Publish(api.GameEvent{Type: api.EventNumberDrawn, Number: 7})

	select {
	case ev := <-drawn:
		assert.Equal(t, 7, ev.Number)
	default:
		t.Fatal("expected event on drawn channel")
	}

	select {
	case ev := <-over:
		t.Fatalf("unexpected event %v on game over channel", ev.Type)
	default:
	}
}

func TestSubscribeAll_ReceivesEveryType(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	all := bus.SubscribeAll()
	for _, et := range api.AllEventTypes() {
		bus.Publish(api.GameEvent{Type: et})
	}

	for _, want := range api.AllEventTypes() {
		ev := <-all
		assert.Equal(t, want, ev.Type)
	}
}

func TestPublish_FullChannelDoesNotBlock(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	_ = bus.Subscribe(api.EventPlaybackEnded)
	for i := 0; i < 100; i++ {
		bus.Publish(api.GameEvent{Type: api.EventPlaybackEnded})
	}
}

func TestPublish_NilBus(t *testing.T) {
	var bus *EventBus
	bus.Publish(api.GameEvent{Type: api.EventGameOver})
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := bus.SubscribeAll()
	bus.Unsubscribe(ch)

	_, ok := <-ch
	require.False(t, ok, "channel should be closed")

	// Publishing afterwards must not panic on the closed channel
	bus.Publish(api.GameEvent{Type: api.EventPhaseChanged})
}

func TestSubscribe_SeveralTypesOnOneChannel(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	playback := bus.Subscribe(api.EventPlaybackEnded, api.EventPlaybackFailed, api.EventPlaybackEnded)

	bus.Publish(api.GameEvent{Type: api.EventNumberDrawn, Number: 3})
	bus.Publish(api.GameEvent{Type: api.EventPlaybackEnded, Number: 3})
	bus.Publish(api.GameEvent{Type: api.EventPlaybackFailed, Number: 4})

	require.Len(t, playback, 2, "a repeated type is delivered once")
	assert.Equal(t, api.EventPlaybackEnded, (<-playback).Type)
	assert.Equal(t, api.EventPlaybackFailed, (<-playback).Type)
}

func TestClose_Idempotent(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe(api.EventGameOver)

	bus.Close()
	bus.Close()

	_, ok := <-ch
	assert.False(t, ok)
	bus.Unsubscribe(ch)
	bus.Publish(api.GameEvent{Type: api.EventGameOver})
}

func TestSubscribe_AfterCloseIsClosed(t *testing.T) {
	bus := NewEventBus()
	bus.Close()

	_, ok := <-bus.SubscribeAll()
	assert.False(t, ok, "late listeners must not wait forever")
}
