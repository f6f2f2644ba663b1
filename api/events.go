package api

// EventType identifies game events
type EventType int

const (
	EventRegistryChanged EventType = iota
	EventPhaseChanged
	EventNumberDrawn
	EventPlaybackStarted
	EventPlaybackEnded
	EventPlaybackFailed
	EventGameOver
	EventDrawRestarted
)

// AllEventTypes lists every event type, in declaration order
func AllEventTypes() []EventType {
	return []EventType{
		EventRegistryChanged,
		EventPhaseChanged,
		EventNumberDrawn,
		EventPlaybackStarted,
		EventPlaybackEnded,
		EventPlaybackFailed,
		EventGameOver,
		EventDrawRestarted,
	}
}

func (t EventType) String() string {
	switch t {
	case EventRegistryChanged:
		return "registry_changed"
	case EventPhaseChanged:
		return "phase_changed"
	case EventNumberDrawn:
		return "number_drawn"
	case EventPlaybackStarted:
		return "playback_started"
	case EventPlaybackEnded:
		return "playback_ended"
	case EventPlaybackFailed:
		return "playback_failed"
	case EventGameOver:
		return "game_over"
	case EventDrawRestarted:
		return "draw_restarted"
	default:
		return "unknown"
	}
}

// GameEvent is published on the event bus
type GameEvent struct {
	Type   EventType
	Number int
	Phase  Phase
	Err    error
}
