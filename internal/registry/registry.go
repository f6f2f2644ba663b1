// Package registry holds the numbered list of entries loaded during setup.
package registry

import (
	"io"
	"log/slog"
	"sync"

	"github.com/jscyril/audio_tombola/api"
)

// DefaultCapacity is the number of entries a board can hold
const DefaultCapacity = 90

// Registry is an ordered, capacity-bounded list of entries. The entry at
// position i always has ID i+1.
type Registry struct {
	entries  []api.Entry
	capacity int
	releaser api.Releaser
	logger   *slog.Logger
	mu       sync.RWMutex
}

// New creates an empty registry. A capacity below 1 uses DefaultCapacity.
func New(capacity int, releaser api.Releaser, logger *slog.Logger) *Registry {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		entries:  make([]api.Entry, 0, capacity),
		capacity: capacity,
		releaser: releaser,
		logger:   logger,
	}
}

// Add appends as many items as fit and returns how many were accepted.
// Items past the capacity are dropped without error.
func (r *Registry) Add(items []api.Media) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := r.capacity - len(r.entries)
	if remaining <= 0 || len(items) == 0 {
		if len(items) > 0 {
			r.logger.Debug("registry full, dropping items", "dropped", len(items))
		}
		return 0
	}

	accepted := min(remaining, len(items))
	for _, item := range items[:accepted] {
		r.entries = append(r.entries, api.Entry{
			ID:          len(r.entries) + 1,
			Ref:         item.Ref,
			DisplayName: item.Name,
			Path:        item.Path,
		})
	}

	if dropped := len(items) - accepted; dropped > 0 {
		r.logger.Debug("registry capacity reached, dropping items", "accepted", accepted, "dropped", dropped)
	}
	return accepted
}

// Remove deletes the entry with the given id and renumbers the rest.
// The removed entry's media is released before it is dropped.
func (r *Registry) Remove(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := id - 1
	if index < 0 || index >= len(r.entries) {
		return false
	}

	removed := r.entries[index]
	r.release(removed.Ref)

	r.entries = append(r.entries[:index], r.entries[index+1:]...)
	r.renumber(index)

	r.logger.Debug("entry removed", "id", id, "name", removed.DisplayName)
	return true
}

// MoveAdjacent swaps the entry at index with its neighbor in dir.
// Moving past either end is a no-op.
func (r *Registry) MoveAdjacent(index int, dir api.Direction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.entries) {
		return false
	}

	other := index - 1
	if dir == api.Down {
		other = index + 1
	}
	if other < 0 || other >= len(r.entries) {
		return false
	}

	r.entries[index], r.entries[other] = r.entries[other], r.entries[index]
	r.entries[index].ID = index + 1
	r.entries[other].ID = other + 1
	return true
}

// Clear releases every entry's media and empties the registry
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		r.release(e.Ref)
	}
	n := len(r.entries)
	r.entries = make([]api.Entry, 0, r.capacity)

	if n > 0 {
		r.logger.Debug("registry cleared", "released", n)
	}
}

// Get returns the entry with the given id
func (r *Registry) Get(id int) (api.Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id < 1 || id > len(r.entries) {
		return api.Entry{}, false
	}
	return r.entries[id-1], true
}

// Entries returns a copy of the entries in order
func (r *Registry) Entries() []api.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]api.Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

// IDs returns the current id set in order
func (r *Registry) IDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.ID
	}
	return ids
}

// Len returns the number of entries
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Remaining returns the number of free slots
func (r *Registry) Remaining() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.capacity - len(r.entries)
}

// Capacity returns the maximum number of entries
func (r *Registry) Capacity() int {
	return r.capacity
}

// renumber restores id = position+1 from index onwards
func (r *Registry) renumber(from int) {
	for i := from; i < len(r.entries); i++ {
		r.entries[i].ID = i + 1
	}
}

func (r *Registry) release(ref api.MediaRef) {
	if r.releaser != nil && ref != "" {
		r.releaser.Release(ref)
	}
}
