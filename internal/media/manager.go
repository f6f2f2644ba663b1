// Package media registers audio files as playable handles and releases
// them when their entries are dropped.
package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jscyril/audio_tombola/api"
	"github.com/jscyril/audio_tombola/internal/audio"
	playerrors "github.com/jscyril/audio_tombola/pkg/errors"
)

// Ensure Manager satisfies the capabilities it is handed out as
var (
	_ api.Releaser = (*Manager)(nil)
	_ audio.Source = (*Manager)(nil)
)

// Manager owns registered media. Handles stay valid until released.
type Manager struct {
	items   map[api.MediaRef]api.Media
	reader  *MetadataReader
	workers int
	logger  *slog.Logger
	mu      sync.RWMutex
}

// NewManager creates a media manager importing with the given number of workers
func NewManager(workers int, logger *slog.Logger) *Manager {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		items:   make(map[api.MediaRef]api.Media),
		reader:  NewMetadataReader(),
		workers: workers,
		logger:  logger,
	}
}

// Register validates a file and returns a handle for it
func (m *Manager) Register(path string) (api.Media, error) {
	if !audio.IsSupported(path) {
		return api.Media{}, &playerrors.MediaError{Path: path, Err: playerrors.ErrUnsupportedFormat}
	}

	info, err := os.Stat(path)
	if err != nil {
		return api.Media{}, &playerrors.MediaError{Path: path, Err: pkgerrors.Wrap(err, "stat")}
	}
	if info.IsDir() {
		return api.Media{}, &playerrors.MediaError{Path: path, Err: pkgerrors.New("is a directory")}
	}

	name, err := m.reader.DisplayName(path)
	if err != nil {
		return api.Media{}, &playerrors.MediaError{Path: path, Err: pkgerrors.Wrap(err, "read metadata")}
	}

	duration, err := audio.Probe(path)
	if err != nil {
		// Playback reports undecodable clips; the draw stays valid
		m.logger.Debug("could not probe duration", "path", path, "error", err)
	}

	item := api.Media{
		Ref:      api.MediaRef(uuid.NewString()),
		Name:     name,
		Path:     path,
		Duration: duration,
	}

	m.mu.Lock()
	m.items[item.Ref] = item
	m.mu.Unlock()

	m.logger.Debug("media registered", "ref", item.Ref, "path", path, "name", name)
	return item, nil
}

// RegisterAll registers paths concurrently and returns the registered media
// in input order. Files that fail are skipped and reported in the joined
// error; the rest of the batch is kept. If ctx is canceled every handle
// registered by this call is released.
func (m *Manager) RegisterAll(ctx context.Context, paths []string) ([]api.Media, error) {
	results := make([]api.Media, len(paths))
	failures := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item, err := m.Register(path)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, item := range results {
			if item.Ref != "" {
				m.Release(item.Ref)
			}
		}
		return nil, pkgerrors.Wrap(err, "register media")
	}

	registered := make([]api.Media, 0, len(paths))
	for _, item := range results {
		if item.Ref != "" {
			registered = append(registered, item)
		}
	}

	err := errors.Join(failures...)
	if err != nil {
		m.logger.Warn("some files were not registered", "registered", len(registered), "requested", len(paths), "error", err)
	}
	return registered, err
}

// Release drops a handle. Releasing an unknown or released handle is a no-op.
func (m *Manager) Release(ref api.MediaRef) {
	m.mu.Lock()
	item, ok := m.items[ref]
	delete(m.items, ref)
	m.mu.Unlock()

	if ok {
		m.logger.Debug("media released", "ref", ref, "path", item.Path)
	}
}

// Open returns a reader for a registered handle and the file name used to
// pick a decoder
func (m *Manager) Open(ref api.MediaRef) (io.ReadSeekCloser, string, error) {
	m.mu.RLock()
	item, ok := m.items[ref]
	m.mu.RUnlock()

	if !ok {
		return nil, "", playerrors.NewPlaybackError("open", ref, playerrors.ErrMediaNotFound)
	}

	file, err := os.Open(item.Path)
	if err != nil {
		return nil, "", playerrors.NewPlaybackError("open", ref, err)
	}
	return file, item.Path, nil
}

// Get returns the media behind a handle
func (m *Manager) Get(ref api.MediaRef) (api.Media, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[ref]
	return item, ok
}

// Active returns the number of handles not yet released
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
