// Package session owns one game: the registry edited during setup and the
// draw engine that replaces it as the source of truth once drawing starts.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/jscyril/audio_tombola/api"
	"github.com/jscyril/audio_tombola/internal/draw"
	"github.com/jscyril/audio_tombola/internal/media"
	"github.com/jscyril/audio_tombola/internal/registry"
	playerrors "github.com/jscyril/audio_tombola/pkg/errors"
	"github.com/jscyril/audio_tombola/pkg/events"
)

// MediaManager registers files as playable handles and releases them
type MediaManager interface {
	api.Releaser
	RegisterAll(ctx context.Context, paths []string) ([]api.Media, error)
}

// Session moves between the setup and draw phases. The registry may only
// change during setup; draw operations are only valid during draw.
type Session struct {
	media    MediaManager
	player   api.Player
	rng      api.RandomSource
	bus      *events.EventBus
	logger   *slog.Logger
	capacity int

	registry *registry.Registry
	engine   *draw.Engine
	phase    api.Phase
	mu       sync.Mutex
}

// Option configures a Session
type Option func(*Session)

// WithCapacity sets the registry capacity
func WithCapacity(capacity int) Option {
	return func(s *Session) { s.capacity = capacity }
}

// WithRandomSource sets the source used by each draw engine
func WithRandomSource(rng api.RandomSource) Option {
	return func(s *Session) { s.rng = rng }
}

// WithBus publishes session and draw events on bus
func WithBus(bus *events.EventBus) Option {
	return func(s *Session) { s.bus = bus }
}

// WithLogger sets the logger shared with the registry and engines
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a session in the setup phase with an empty registry
func New(mediaManager MediaManager, player api.Player, opts ...Option) *Session {
	s := &Session{
		media:    mediaManager,
		player:   player,
		capacity: registry.DefaultCapacity,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		phase:    api.PhaseSetup,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry = registry.New(s.capacity, mediaManager, s.logger)
	return s
}

// AddFiles registers files and directories and appends them to the
// registry. Unsupported files are skipped before any slot is counted, and
// a file that fails to register gives its slot to the next one in line.
// Files past the remaining capacity are dropped silently without being
// opened. Failures are reported in the joined error while the rest of the
// batch is still added.
func (s *Session) AddFiles(ctx context.Context, paths []string) (int, error) {
	if err := s.requirePhase("add", api.PhaseSetup); err != nil {
		return 0, err
	}

	expanded, expandErr := media.Expand(paths)
	pending, rejectErr := media.Supported(expanded)
	errs := []error{expandErr, rejectErr}

	total := 0
	for len(pending) > 0 {
		remaining := s.registry.Remaining()
		if remaining == 0 {
			s.logger.Debug("registry capacity reached, dropping files", "dropped", len(pending))
			break
		}

		batch := pending[:min(remaining, len(pending))]
		pending = pending[len(batch):]

		items, regErr := s.media.RegisterAll(ctx, batch)
		errs = append(errs, regErr)
		if items == nil && regErr != nil {
			break
		}

		accepted, err := s.appendItems(items)
		total += accepted
		if err != nil {
			errs = append(errs, err)
			break
		}
		// Another import filled the registry while this one ran
		if accepted < len(items) {
			break
		}
	}

	if total > 0 {
		s.logger.Info("entries added", "accepted", total, "total", s.registry.Len())
		s.bus.Publish(api.GameEvent{Type: api.EventRegistryChanged, Phase: api.PhaseSetup})
	}
	return total, errors.Join(errs...)
}

// appendItems adds registered media to the registry and releases whatever
// it does not accept
func (s *Session) appendItems(items []api.Media) (int, error) {
	s.mu.Lock()
	if s.phase != api.PhaseSetup {
		phase := s.phase
		s.mu.Unlock()
		s.releaseAll(items)
		return 0, &playerrors.PhaseError{Op: "add", Phase: phase}
	}
	accepted := s.registry.Add(items)
	s.mu.Unlock()

	s.releaseAll(items[accepted:])
	return accepted, nil
}

// Remove deletes the entry with the given id, releasing its media. A
// missing id is a no-op.
func (s *Session) Remove(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != api.PhaseSetup {
		return false, &playerrors.PhaseError{Op: "remove", Phase: s.phase}
	}
	if !s.registry.Remove(id) {
		return false, nil
	}
	s.bus.Publish(api.GameEvent{Type: api.EventRegistryChanged, Phase: s.phase})
	return true, nil
}

// Move swaps the entry at index with its neighbor. Moving past either end
// is a no-op.
func (s *Session) Move(index int, dir api.Direction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != api.PhaseSetup {
		return false, &playerrors.PhaseError{Op: "move", Phase: s.phase}
	}
	if !s.registry.MoveAdjacent(index, dir) {
		return false, nil
	}
	s.bus.Publish(api.GameEvent{Type: api.EventRegistryChanged, Phase: s.phase})
	return true, nil
}

// StartDraw freezes the registry and starts a draw over its current ids
func (s *Session) StartDraw() error {
	s.mu.Lock()
	if s.phase != api.PhaseSetup {
		phase := s.phase
		s.mu.Unlock()
		return &playerrors.PhaseError{Op: "start draw", Phase: phase}
	}
	if s.registry.Len() == 0 {
		s.mu.Unlock()
		return playerrors.ErrRegistryEmpty
	}

	universe := s.registry.Entries()
	s.engine = draw.NewEngine(universe, s.player, s.rng,
		draw.WithBus(s.bus),
		draw.WithLogger(s.logger),
	)
	s.phase = api.PhaseDraw
	s.mu.Unlock()

	s.logger.Info("draw started", "numbers", len(universe))
	s.bus.Publish(api.GameEvent{Type: api.EventPhaseChanged, Phase: api.PhaseDraw})
	return nil
}

// Draw draws the next number. ok is false when the engine is busy or every
// number has been drawn.
func (s *Session) Draw() (result api.DrawResult, ok bool, err error) {
	engine, err := s.drawEngine("draw")
	if err != nil {
		return api.DrawResult{}, false, err
	}
	result, ok = engine.Draw()
	return result, ok, nil
}

// Replay plays the current number again
func (s *Session) Replay() (bool, error) {
	engine, err := s.drawEngine("replay")
	if err != nil {
		return false, err
	}
	return engine.Replay(), nil
}

// RestartDraw forgets every draw and keeps the universe
func (s *Session) RestartDraw() error {
	engine, err := s.drawEngine("restart")
	if err != nil {
		return err
	}
	engine.Restart()
	return nil
}

// EndDraw discards the draw, stopping any playback, and returns to setup
// with the registry intact
func (s *Session) EndDraw() error {
	s.mu.Lock()
	if s.phase != api.PhaseDraw {
		phase := s.phase
		s.mu.Unlock()
		return &playerrors.PhaseError{Op: "end draw", Phase: phase}
	}
	s.engine.Close()
	s.engine = nil
	s.phase = api.PhaseSetup
	s.mu.Unlock()

	s.logger.Info("draw ended")
	s.bus.Publish(api.GameEvent{Type: api.EventPhaseChanged, Phase: api.PhaseSetup})
	return nil
}

// ResetAll stops playback, releases every entry's media, empties the
// registry and returns to setup. It is valid in either phase.
func (s *Session) ResetAll() {
	s.mu.Lock()
	wasDraw := s.phase == api.PhaseDraw
	if s.engine != nil {
		// Stop playback before the clip behind it is released
		s.engine.Close()
		s.engine = nil
	}
	released := s.registry.Len()
	s.registry.Clear()
	s.phase = api.PhaseSetup
	s.mu.Unlock()

	s.logger.Info("session reset", "released", released)
	s.bus.Publish(api.GameEvent{Type: api.EventRegistryChanged, Phase: api.PhaseSetup})
	if wasDraw {
		s.bus.Publish(api.GameEvent{Type: api.EventPhaseChanged, Phase: api.PhaseSetup})
	}
}

// Phase returns the current phase
func (s *Session) Phase() api.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Registry returns the session registry. Callers must go through the
// session to mutate it.
func (s *Session) Registry() *registry.Registry {
	return s.registry
}

// Engine returns the active draw engine, or nil during setup
func (s *Session) Engine() *draw.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// Stats returns draw progress. During setup every entry counts as remaining.
func (s *Session) Stats() api.Stats {
	if engine := s.Engine(); engine != nil {
		return engine.Stats()
	}
	n := s.registry.Len()
	return api.Stats{Total: n, Remaining: n}
}

func (s *Session) requirePhase(op string, phase api.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != phase {
		return &playerrors.PhaseError{Op: op, Phase: s.phase}
	}
	return nil
}

func (s *Session) drawEngine(op string) (*draw.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != api.PhaseDraw {
		return nil, &playerrors.PhaseError{Op: op, Phase: s.phase}
	}
	return s.engine, nil
}

func (s *Session) releaseAll(items []api.Media) {
	for _, item := range items {
		s.media.Release(item.Ref)
	}
}
