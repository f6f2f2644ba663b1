package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/jscyril/audio_tombola/api"
	"github.com/jscyril/audio_tombola/internal/draw"
	"github.com/jscyril/audio_tombola/internal/media"
	playerrors "github.com/jscyril/audio_tombola/pkg/errors"
	"github.com/jscyril/audio_tombola/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// journal records player and media calls in the order they happen
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakePlayer struct {
	log     *journal
	mu      sync.Mutex
	pending []func(error)
}

func (p *fakePlayer) Play(ref api.MediaRef, done func(err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.log != nil {
		p.log.add("play %s", ref)
	}
	p.pending = append(p.pending, done)
}

func (p *fakePlayer) Stop(ref api.MediaRef) {
	if p.log != nil {
		p.log.add("stop %s", ref)
	}
}

func (p *fakePlayer) finish(err error) {
	p.mu.Lock()
	done := p.pending[0]
	p.pending = p.pending[1:]
	p.mu.Unlock()
	done(err)
}

// fakeMedia registers every path as "ref:<base name>" unless its base name
// is listed in fail
type fakeMedia struct {
	log       *journal
	fail      map[string]bool
	mu        sync.Mutex
	attempted []string
	released  map[api.MediaRef]int
}

func newFakeMedia(log *journal) *fakeMedia {
	return &fakeMedia{log: log, released: make(map[api.MediaRef]int)}
}

func (m *fakeMedia) RegisterAll(_ context.Context, paths []string) ([]api.Media, error) {
	m.mu.Lock()
	m.attempted = append(m.attempted, paths...)
	m.mu.Unlock()

	items := make([]api.Media, 0, len(paths))
	var errs []error
	for _, path := range paths {
		name := filepath.Base(path)
		if m.fail[name] {
			errs = append(errs, &playerrors.MediaError{Path: path, Err: playerrors.ErrPlaybackFailed})
			continue
		}
		items = append(items, api.Media{Ref: api.MediaRef("ref:" + name), Name: name, Path: path})
	}
	return items, errors.Join(errs...)
}

func (m *fakeMedia) Release(ref api.MediaRef) {
	m.mu.Lock()
	m.released[ref]++
	m.mu.Unlock()
	if m.log != nil {
		m.log.add("release %s", ref)
	}
}

func writeClips(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("clip"), 0644))
	}
}

func names(entries []api.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.DisplayName
	}
	return out
}

func TestSession_RemoveMoveAndDrawToTerminal(t *testing.T) {
	dir := t.TempDir()
	writeClips(t, dir, "a.mp3", "b.mp3", "c.mp3")

	manager := media.NewManager(2, nil)
	player := &fakePlayer{}
	s := New(manager, player, WithRandomSource(draw.NewSeededSource(7)))

	accepted, err := s.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Equal(t, 3, accepted)
	assert.Equal(t, []int{1, 2, 3}, s.Registry().IDs())

	removed, err := s.Remove(2)
	require.NoError(t, err)
	require.True(t, removed)
	assert.Equal(t, []int{1, 2}, s.Registry().IDs())
	assert.Equal(t, []string{"a.mp3", "c.mp3"}, names(s.Registry().Entries()))
	assert.Equal(t, 2, manager.Active(), "removed entry's media is released")

	moved, err := s.Move(0, api.Down)
	require.NoError(t, err)
	require.True(t, moved)
	assert.Equal(t, []int{1, 2}, s.Registry().IDs())
	assert.Equal(t, []string{"c.mp3", "a.mp3"}, names(s.Registry().Entries()))

	require.NoError(t, s.StartDraw())
	assert.Equal(t, api.PhaseDraw, s.Phase())
	engine := s.Engine()
	require.NotNil(t, engine)
	assert.Equal(t, []int{1, 2}, engine.Universe())

	first, ok, err := s.Draw()
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, first.GameOver)
	player.finish(nil)

	second, ok, err := s.Draw()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, second.GameOver)
	player.finish(nil)

	order := engine.DrawnOrder()
	sort.Ints(order)
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, api.DrawTerminal, engine.State())

	_, ok, err = s.Draw()
	require.NoError(t, err)
	assert.False(t, ok, "draw after the last number is a no-op")
}

func TestSession_AddFilesTruncatesAtCapacity(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 95; i++ {
		writeClips(t, dir, fmt.Sprintf("clip%03d.wav", i))
	}

	manager := media.NewManager(8, nil)
	s := New(manager, nil)

	accepted, err := s.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 90, accepted)

	ids := s.Registry().IDs()
	require.Len(t, ids, 90)
	for i, id := range ids {
		assert.Equal(t, i+1, id)
	}
	assert.Equal(t, 90, manager.Active(), "overflow is never registered")
	assert.Equal(t, 0, s.Registry().Remaining())

	accepted, err = s.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Zero(t, accepted)
}

func TestSession_AddFilesKeepsSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeClips(t, dir, "uno.mp3", "notes.txt")

	s := New(media.NewManager(2, nil), nil)
	accepted, err := s.AddFiles(context.Background(), []string{
		filepath.Join(dir, "uno.mp3"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "missing.flac"),
	})

	assert.Equal(t, 1, accepted)
	require.Error(t, err)
	assert.ErrorIs(t, err, playerrors.ErrUnsupportedFormat)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSession_AddFilesSkipsUnsupportedBeforeCounting(t *testing.T) {
	dir := t.TempDir()
	writeClips(t, dir, "notes.txt", "a.wav", "b.wav", "c.wav")

	tests := []struct {
		name     string
		capacity int
		paths    []string
		want     []string
	}{
		{
			name:     "unsupported file ahead of clips",
			capacity: 2,
			paths:    []string{"notes.txt", "a.wav", "b.wav"},
			want:     []string{"a.wav", "b.wav"},
		},
		{
			name:     "missing and unsupported files ahead of clips",
			capacity: 2,
			paths:    []string{"missing.flac", "notes.txt", "a.wav", "b.wav", "c.wav"},
			want:     []string{"a.wav", "b.wav"},
		},
		{
			name:     "fewer clips than slots",
			capacity: 5,
			paths:    []string{"notes.txt", "a.wav"},
			want:     []string{"a.wav"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := media.NewManager(2, nil)
			s := New(manager, nil, WithCapacity(tt.capacity))

			paths := make([]string, len(tt.paths))
			for i, name := range tt.paths {
				paths[i] = filepath.Join(dir, name)
			}

			accepted, err := s.AddFiles(context.Background(), paths)
			require.Error(t, err)
			assert.ErrorIs(t, err, playerrors.ErrUnsupportedFormat)
			assert.Equal(t, len(tt.want), accepted)
			assert.Equal(t, tt.want, names(s.Registry().Entries()))
			assert.Equal(t, len(tt.want), manager.Active(), "only accepted clips stay registered")
		})
	}
}

func TestSession_AddFilesRefillsSlotsOfFailedFiles(t *testing.T) {
	fm := newFakeMedia(nil)
	fm.fail = map[string]bool{"bad.mp3": true}
	s := New(fm, nil, WithCapacity(2))

	dir := t.TempDir()
	writeClips(t, dir, "a.mp3", "b.mp3", "bad.mp3", "c.mp3")

	accepted, err := s.AddFiles(context.Background(), []string{
		filepath.Join(dir, "bad.mp3"),
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "b.mp3"),
		filepath.Join(dir, "c.mp3"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, playerrors.ErrPlaybackFailed)
	assert.Equal(t, 2, accepted)
	assert.Equal(t, []string{"a.mp3", "b.mp3"}, names(s.Registry().Entries()))

	var tried []string
	for _, path := range fm.attempted {
		tried = append(tried, filepath.Base(path))
	}
	assert.Equal(t, []string{"bad.mp3", "a.mp3", "b.mp3"}, tried, "files past a full registry are never registered")
	assert.Empty(t, fm.released)
}

func TestSession_WithCapacity(t *testing.T) {
	fm := newFakeMedia(nil)
	s := New(fm, nil, WithCapacity(2))

	dir := t.TempDir()
	writeClips(t, dir, "a.mp3", "b.mp3", "c.mp3")

	accepted, err := s.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)
	assert.Equal(t, 2, s.Registry().Capacity())
	assert.Empty(t, fm.released, "files past the capacity are not registered")
}

func TestSession_PhaseErrors(t *testing.T) {
	s := New(newFakeMedia(nil), &fakePlayer{})

	_, _, err := s.Draw()
	assert.ErrorIs(t, err, playerrors.ErrWrongPhase)
	_, err = s.Replay()
	assert.ErrorIs(t, err, playerrors.ErrWrongPhase)
	assert.ErrorIs(t, s.RestartDraw(), playerrors.ErrWrongPhase)
	assert.ErrorIs(t, s.EndDraw(), playerrors.ErrWrongPhase)
	assert.ErrorIs(t, s.StartDraw(), playerrors.ErrRegistryEmpty)
	assert.Equal(t, api.PhaseSetup, s.Phase())

	dir := t.TempDir()
	writeClips(t, dir, "a.mp3", "b.mp3")
	_, err = s.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)
	require.NoError(t, s.StartDraw())

	_, err = s.AddFiles(context.Background(), []string{dir})
	assert.ErrorIs(t, err, playerrors.ErrWrongPhase)
	_, err = s.Remove(1)
	assert.ErrorIs(t, err, playerrors.ErrWrongPhase)
	_, err = s.Move(0, api.Down)
	assert.ErrorIs(t, err, playerrors.ErrWrongPhase)

	var phaseErr *playerrors.PhaseError
	require.ErrorAs(t, s.StartDraw(), &phaseErr)
	assert.Equal(t, api.PhaseDraw, phaseErr.Phase)
	assert.Equal(t, []int{1, 2}, s.Registry().IDs(), "registry is frozen during draw")
}

func TestSession_StructuralNoOps(t *testing.T) {
	s := New(newFakeMedia(nil), nil)
	dir := t.TempDir()
	writeClips(t, dir, "a.mp3", "b.mp3")
	_, err := s.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)

	tests := []struct {
		name string
		op   func() (bool, error)
	}{
		{"remove missing id", func() (bool, error) { return s.Remove(5) }},
		{"remove id zero", func() (bool, error) { return s.Remove(0) }},
		{"move first up", func() (bool, error) { return s.Move(0, api.Up) }},
		{"move last down", func() (bool, error) { return s.Move(1, api.Down) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Registry().Entries()
			changed, err := tt.op()
			require.NoError(t, err)
			assert.False(t, changed)
			assert.Equal(t, before, s.Registry().Entries())
		})
	}
}

func TestSession_ResetStopsPlaybackBeforeRelease(t *testing.T) {
	log := &journal{}
	fm := newFakeMedia(log)
	player := &fakePlayer{log: log}
	s := New(fm, player, WithRandomSource(draw.NewSeededSource(1)))

	dir := t.TempDir()
	writeClips(t, dir, "a.mp3", "b.mp3", "c.mp3")
	_, err := s.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)
	require.NoError(t, s.StartDraw())

	result, ok, err := s.Draw()
	require.NoError(t, err)
	require.True(t, ok)
	playing := result.Entry.Ref

	s.ResetAll()

	entries := log.list()
	require.GreaterOrEqual(t, len(entries), 5)
	assert.Equal(t, "play "+string(playing), entries[0])
	assert.Equal(t, "stop "+string(playing), entries[1])
	assert.ElementsMatch(t, []string{
		"release ref:a.mp3", "release ref:b.mp3", "release ref:c.mp3",
	}, entries[2:])

	for ref, n := range fm.released {
		assert.Equal(t, 1, n, "%s released once", ref)
	}
	assert.Equal(t, api.PhaseSetup, s.Phase())
	assert.Nil(t, s.Engine())
	assert.Zero(t, s.Registry().Len())

	// The abandoned playback completing later changes nothing
	player.finish(playerrors.ErrPlaybackStopped)
	assert.Equal(t, api.PhaseSetup, s.Phase())
}

func TestSession_ResetFromSetup(t *testing.T) {
	fm := newFakeMedia(nil)
	s := New(fm, nil)
	dir := t.TempDir()
	writeClips(t, dir, "a.mp3", "b.mp3")
	_, err := s.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)

	s.ResetAll()
	s.ResetAll()

	assert.Zero(t, s.Registry().Len())
	assert.Len(t, fm.released, 2)
	for _, n := range fm.released {
		assert.Equal(t, 1, n)
	}
}

func TestSession_EndDrawKeepsRegistry(t *testing.T) {
	log := &journal{}
	player := &fakePlayer{log: log}
	fm := newFakeMedia(log)
	s := New(fm, player)

	dir := t.TempDir()
	writeClips(t, dir, "a.mp3", "b.mp3")
	_, err := s.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)
	require.NoError(t, s.StartDraw())

	result, ok, err := s.Draw()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.EndDraw())
	assert.Equal(t, api.PhaseSetup, s.Phase())
	assert.Nil(t, s.Engine())
	assert.Equal(t, []int{1, 2}, s.Registry().IDs())
	assert.Contains(t, log.list(), "stop "+string(result.Entry.Ref))
	assert.Empty(t, fm.released)

	// A fresh draw starts from idle
	require.NoError(t, s.StartDraw())
	assert.Equal(t, api.DrawIdle, s.Engine().State())
	assert.Empty(t, s.Engine().DrawnOrder())
}

func TestSession_RestartAndReplay(t *testing.T) {
	player := &fakePlayer{}
	s := New(newFakeMedia(nil), player)
	dir := t.TempDir()
	writeClips(t, dir, "a.mp3", "b.mp3")
	_, err := s.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)
	require.NoError(t, s.StartDraw())

	replayed, err := s.Replay()
	require.NoError(t, err)
	assert.False(t, replayed, "nothing to replay before the first draw")

	_, ok, err := s.Draw()
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = s.Draw()
	require.NoError(t, err)
	assert.False(t, ok, "draw while busy is ignored")

	player.finish(nil)
	replayed, err = s.Replay()
	require.NoError(t, err)
	assert.True(t, replayed)
	player.finish(nil)

	assert.Equal(t, api.Stats{Total: 2, Drawn: 1, Remaining: 1}, s.Stats())

	require.NoError(t, s.RestartDraw())
	assert.Equal(t, api.DrawIdle, s.Engine().State())
	assert.Equal(t, api.Stats{Total: 2, Drawn: 0, Remaining: 2}, s.Stats())
	assert.Equal(t, []int{1, 2}, s.Engine().Universe())
}

func TestSession_PublishesEvents(t *testing.T) {
	bus := events.NewEventBus()
	defer bus.Close()
	ch := bus.SubscribeAll()

	s := New(newFakeMedia(nil), nil, WithBus(bus))
	dir := t.TempDir()
	writeClips(t, dir, "a.mp3")
	_, err := s.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)
	require.NoError(t, s.StartDraw())

	var got []api.EventType
	for len(ch) > 0 {
		got = append(got, (<-ch).Type)
	}
	assert.Equal(t, []api.EventType{api.EventRegistryChanged, api.EventPhaseChanged}, got)
}

func TestSession_StatsDuringSetup(t *testing.T) {
	s := New(newFakeMedia(nil), nil)
	dir := t.TempDir()
	writeClips(t, dir, "a.mp3", "b.mp3", "c.mp3")
	_, err := s.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, api.Stats{Total: 3, Remaining: 3}, s.Stats())
}
