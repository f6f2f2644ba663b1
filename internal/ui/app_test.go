package ui

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jscyril/audio_tombola/api"
	"github.com/jscyril/audio_tombola/internal/config"
	"github.com/jscyril/audio_tombola/internal/media"
	"github.com/jscyril/audio_tombola/internal/session"
	"github.com/jscyril/audio_tombola/internal/ui/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVolume struct {
	level float64
}

func (v *fakeVolume) GetState() *api.PlaybackState {
	return &api.PlaybackState{Volume: v.level}
}

func (v *fakeVolume) SetVolume(level float64) error {
	v.level = level
	return nil
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

// drain runs cmd and feeds every resulting message back into the model
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = drain(t, m, c)
		}
		return m
	}
	if msg == nil {
		return m
	}
	next, cmd := m.Update(msg)
	return drain(t, next.(Model), cmd)
}

func press(t *testing.T, m Model, key string) Model {
	t.Helper()
	next, cmd := m.Update(keyMsg(key))
	return drain(t, next.(Model), cmd)
}

func newTestModel(t *testing.T) (Model, *session.Session, string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("clip"), 0644))
	}

	sess := session.New(media.NewManager(2, nil), nil)
	m := NewModel(context.Background(), sess, &fakeVolume{level: 0.5}, nil, config.GetDefaultConfig().KeyBindings)
	t.Cleanup(m.cancel)
	return m, sess, dir
}

func TestModel_StartRequiresEntries(t *testing.T) {
	m, sess, _ := newTestModel(t)

	m = press(t, m, "s")
	assert.Equal(t, api.PhaseSetup, sess.Phase())
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "add some clips")
}

func TestModel_SetupToDrawAndBack(t *testing.T) {
	m, sess, dir := newTestModel(t)

	next, cmd := m.Update(views.AddPathsMsg{Paths: []string{dir}})
	m = drain(t, next.(Model), cmd)
	assert.Equal(t, 3, sess.Registry().Len())
	assert.Contains(t, m.status, "Added 3")
	assert.Len(t, m.setupView.EntryList.Items, 3)

	// Move the first entry down
	m = press(t, m, "J")
	entries := sess.Registry().Entries()
	assert.Equal(t, "b.mp3", entries[0].DisplayName)
	assert.Equal(t, 1, m.setupView.EntryList.Selected, "selection follows the moved entry")

	// Remove the selected entry
	m = press(t, m, "d")
	assert.Equal(t, []int{1, 2}, sess.Registry().IDs())

	m = press(t, m, "s")
	require.NoError(t, m.err)
	assert.Equal(t, api.PhaseDraw, sess.Phase())

	m = press(t, m, " ")
	assert.Equal(t, 1, sess.Engine().Stats().Drawn)
	assert.True(t, m.drawView.Snapshot.HasPick)

	m = press(t, m, " ")
	m = press(t, m, " ")
	assert.Equal(t, api.DrawTerminal, sess.Engine().State())
	assert.Contains(t, m.status, "Every number")

	m = press(t, m, "R")
	assert.Equal(t, api.DrawIdle, sess.Engine().State())

	m = press(t, m, "esc")
	assert.Equal(t, api.PhaseSetup, sess.Phase())
	assert.Equal(t, 2, sess.Registry().Len())
}

func TestModel_QuitAndResetAskFirst(t *testing.T) {
	m, sess, dir := newTestModel(t)
	_, err := sess.AddFiles(context.Background(), []string{dir})
	require.NoError(t, err)

	m = press(t, m, "q")
	require.True(t, m.confirm.Active)
	assert.Contains(t, m.View(), "Quit and discard")

	m = press(t, m, "n")
	assert.False(t, m.confirm.Active)
	assert.NoError(t, m.ctx.Err(), "declining keeps the program running")

	m = press(t, m, "X")
	require.True(t, m.confirm.Active)
	m = press(t, m, "y")
	assert.Zero(t, sess.Registry().Len())
	assert.Equal(t, api.PhaseSetup, sess.Phase())

	// Nothing loaded, quit needs no confirmation
	next, cmd := m.Update(keyMsg("q"))
	m = next.(Model)
	require.NotNil(t, cmd)
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		require.Len(t, batch, 1)
		msg = batch[0]()
	}
	assert.Equal(t, tea.QuitMsg{}, msg)
	assert.Error(t, m.ctx.Err())
}

func TestModel_Volume(t *testing.T) {
	m, _, _ := newTestModel(t)
	vol := m.volume.(*fakeVolume)

	m = press(t, m, "+")
	assert.InDelta(t, 0.6, vol.level, 1e-9)

	for range 10 {
		m = press(t, m, "-")
	}
	assert.Zero(t, vol.level)
}
