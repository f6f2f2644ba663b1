// Package draw implements the draw phase: sampling numbers without
// replacement and playing the clip behind each one.
package draw

import (
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/jscyril/audio_tombola/api"
	"github.com/jscyril/audio_tombola/pkg/events"
)

// Ensure the default sources satisfy the interface at compile time
var (
	_ api.RandomSource = globalSource{}
	_ api.RandomSource = (*seededSource)(nil)
)

// Engine draws numbers from a fixed universe. At most one playback is in
// flight at a time; busy guards Draw and Replay until it settles.
type Engine struct {
	universe []api.Entry
	byID     map[int]api.Entry

	drawn    []int
	drawnSet map[int]bool
	current  int
	busy     bool
	closed   bool

	// seq identifies the in-flight playback; completions carrying an older
	// seq belong to playback that was stopped and are dropped.
	seq     uint64
	playing api.MediaRef

	player api.Player
	rng    api.RandomSource
	bus    *events.EventBus
	logger *slog.Logger

	// Completions arrive on the audio goroutine
	mu sync.Mutex
}

// Option configures an Engine
type Option func(*Engine)

// WithBus publishes draw events on bus
func WithBus(bus *events.EventBus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine over a snapshot of entries. A nil rng uses
// NewRandomSource.
func NewEngine(universe []api.Entry, player api.Player, rng api.RandomSource, opts ...Option) *Engine {
	if rng == nil {
		rng = NewRandomSource()
	}

	e := &Engine{
		universe: make([]api.Entry, len(universe)),
		byID:     make(map[int]api.Entry, len(universe)),
		drawnSet: make(map[int]bool, len(universe)),
		player:   player,
		rng:      rng,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	copy(e.universe, universe)
	sort.Slice(e.universe, func(i, j int) bool { return e.universe[i].ID < e.universe[j].ID })
	for _, entry := range e.universe {
		e.byID[entry.ID] = entry
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Draw picks a number uniformly from those not yet drawn and starts its
// playback. It returns false while busy, after the game is over, or once
// the engine is closed.
func (e *Engine) Draw() (api.DrawResult, bool) {
	e.mu.Lock()
	if e.closed || e.busy || len(e.drawn) >= len(e.universe) {
		e.mu.Unlock()
		return api.DrawResult{}, false
	}

	available := e.available()
	if len(available) == 0 {
		e.mu.Unlock()
		return api.DrawResult{}, false
	}

	pick := available[e.rng.IntN(len(available))]
	e.drawn = append(e.drawn, pick)
	e.drawnSet[pick] = true
	e.current = pick

	entry := e.byID[pick]
	remaining := len(e.universe) - len(e.drawn)
	result := api.DrawResult{
		Number:    pick,
		Entry:     entry,
		Remaining: remaining,
		GameOver:  remaining == 0,
	}
	seq := e.beginPlayback(entry.Ref)
	e.mu.Unlock()

	e.logger.Info("number drawn", "number", pick, "name", entry.DisplayName, "remaining", remaining)
	e.bus.Publish(api.GameEvent{Type: api.EventNumberDrawn, Number: pick})
	if result.GameOver {
		e.bus.Publish(api.GameEvent{Type: api.EventGameOver, Number: pick})
	}

	e.play(seq, entry)
	return result, true
}

// Replay plays the current number again without drawing
func (e *Engine) Replay() bool {
	e.mu.Lock()
	if e.closed || e.busy || e.current == 0 {
		e.mu.Unlock()
		return false
	}
	entry := e.byID[e.current]
	seq := e.beginPlayback(entry.Ref)
	e.mu.Unlock()

	e.logger.Debug("replaying number", "number", entry.ID)
	e.play(seq, entry)
	return true
}

// Restart stops any playback and forgets every draw. The universe is kept.
func (e *Engine) Restart() {
	e.mu.Lock()
	ref := e.abandonPlayback()
	e.drawn = nil
	e.drawnSet = make(map[int]bool, len(e.universe))
	e.current = 0
	closed := e.closed
	e.mu.Unlock()

	if ref != "" && e.player != nil {
		e.player.Stop(ref)
	}
	if !closed {
		e.logger.Info("draw restarted")
		e.bus.Publish(api.GameEvent{Type: api.EventDrawRestarted})
	}
}

// Close stops any playback and rejects further draws. Draw state is left
// readable.
func (e *Engine) Close() {
	e.mu.Lock()
	ref := e.abandonPlayback()
	e.closed = true
	e.mu.Unlock()

	if ref != "" && e.player != nil {
		e.player.Stop(ref)
	}
}

// State returns the current engine state
func (e *Engine) State() api.DrawState {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.busy:
		return api.DrawDrawing
	case len(e.drawn) == len(e.universe):
		return api.DrawTerminal
	case e.current == 0:
		return api.DrawIdle
	default:
		return api.DrawSettled
	}
}

// Busy reports whether a playback is in flight
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// IsTerminal reports whether every number has been drawn
func (e *Engine) IsTerminal() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.drawn) == len(e.universe)
}

// Current returns the most recently drawn number
func (e *Engine) Current() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, e.current != 0
}

// CurrentEntry returns the entry for the most recently drawn number
func (e *Engine) CurrentEntry() (api.Entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == 0 {
		return api.Entry{}, false
	}
	return e.byID[e.current], true
}

// DrawnOrder returns a copy of the numbers drawn so far, in draw order
func (e *Engine) DrawnOrder() []int {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]int, len(e.drawn))
	copy(result, e.drawn)
	return result
}

// Universe returns the drawable numbers in ascending order
func (e *Engine) Universe() []int {
	ids := make([]int, len(e.universe))
	for i, entry := range e.universe {
		ids[i] = entry.ID
	}
	return ids
}

// Stats returns draw progress
func (e *Engine) Stats() api.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return api.Stats{
		Total:     len(e.universe),
		Drawn:     len(e.drawn),
		Remaining: len(e.universe) - len(e.drawn),
	}
}

// Board returns one cell per number in ascending order
func (e *Engine) Board() []api.BoardCell {
	e.mu.Lock()
	defer e.mu.Unlock()

	cells := make([]api.BoardCell, len(e.universe))
	for i, entry := range e.universe {
		status := api.CellPending
		switch {
		case entry.ID == e.current:
			status = api.CellCurrent
		case e.drawnSet[entry.ID]:
			status = api.CellDrawn
		}
		cells[i] = api.BoardCell{Number: entry.ID, Status: status}
	}
	return cells
}

// available returns universe minus drawn, in ascending order
func (e *Engine) available() []int {
	available := make([]int, 0, len(e.universe)-len(e.drawn))
	for _, entry := range e.universe {
		if !e.drawnSet[entry.ID] {
			available = append(available, entry.ID)
		}
	}
	return available
}

// beginPlayback marks the engine busy. Caller holds mu.
func (e *Engine) beginPlayback(ref api.MediaRef) uint64 {
	e.seq++
	e.busy = true
	e.playing = ref
	return e.seq
}

// abandonPlayback clears busy and invalidates the in-flight completion.
// Caller holds mu. Returns the media to stop, if any.
func (e *Engine) abandonPlayback() api.MediaRef {
	var ref api.MediaRef
	if e.busy {
		ref = e.playing
	}
	e.seq++
	e.busy = false
	e.playing = ""
	return ref
}

func (e *Engine) play(seq uint64, entry api.Entry) {
	if e.player == nil {
		e.settle(seq, entry.ID, nil)
		return
	}
	e.bus.Publish(api.GameEvent{Type: api.EventPlaybackStarted, Number: entry.ID})
	e.player.Play(entry.Ref, func(err error) {
		e.settle(seq, entry.ID, err)
	})
}

// settle handles the completion of playback seq. Failed playback is not
// retried and the draw stays recorded.
func (e *Engine) settle(seq uint64, number int, err error) {
	e.mu.Lock()
	if seq != e.seq || !e.busy {
		e.mu.Unlock()
		e.logger.Debug("ignoring stale playback completion", "number", number)
		return
	}
	e.busy = false
	e.playing = ""
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("playback failed", "number", number, "error", err)
		e.bus.Publish(api.GameEvent{Type: api.EventPlaybackFailed, Number: number, Err: err})
		return
	}
	e.bus.Publish(api.GameEvent{Type: api.EventPlaybackEnded, Number: number})
}
