// Package ui is the terminal front end: a setup screen for loading and
// ordering clips and a draw screen for calling numbers.
package ui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/audio_tombola/api"
	"github.com/jscyril/audio_tombola/internal/config"
	"github.com/jscyril/audio_tombola/internal/session"
	"github.com/jscyril/audio_tombola/internal/ui/views"
	playerrors "github.com/jscyril/audio_tombola/pkg/errors"
	"github.com/jscyril/audio_tombola/pkg/events"
)

const (
	actionQuit  = "quit"
	actionReset = "reset"
)

// VolumeControl reads and changes the output volume
type VolumeControl interface {
	GetState() *api.PlaybackState
	SetVolume(level float64) error
}

// Model is the main bubbletea model
type Model struct {
	// Dimensions
	width  int
	height int

	// Views
	setupView views.SetupView
	drawView  views.DrawView
	confirm   views.ConfirmView

	// Components
	session *session.Session
	volume  VolumeControl
	events  <-chan api.GameEvent
	keys    config.KeyMap

	// State
	ctx        context.Context
	cancel     context.CancelFunc
	importing  bool
	lastFailed bool
	status     string
	err        error

	// Styles
	tabStyle       lipgloss.Style
	activeTabStyle lipgloss.Style
	statusStyle    lipgloss.Style
	errorStyle     lipgloss.Style
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// GameEventMsg carries an event from the bus
type GameEventMsg struct {
	Event api.GameEvent
}

// FilesAddedMsg reports the outcome of an import
type FilesAddedMsg struct {
	Accepted int
	Err      error
}

// NewModel creates a new application model. volume and bus may be nil.
func NewModel(ctx context.Context, sess *session.Session, volume VolumeControl, bus *events.EventBus, keys config.KeyMap) Model {
	ctx, cancel := context.WithCancel(ctx)

	m := Model{
		width:   80,
		height:  24,
		session: sess,
		volume:  volume,
		keys:    keys,
		ctx:     ctx,
		cancel:  cancel,
		confirm: views.NewConfirmView(),
		tabStyle: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("240")),
		activeTabStyle: lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Background(lipgloss.Color("236")),
		statusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
	}
	if bus != nil {
		m.events = bus.SubscribeAll()
	}

	m.setupView = views.NewSetupView(m.width, m.height-4, keys)
	m.drawView = views.NewDrawView(m.width, m.height-4, keys)
	m.refresh()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.listenForEvents(),
	)
}

// tickCmd returns a command that ticks every 500ms
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// listenForEvents waits for the next game event
func (m Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		select {
		case event, ok := <-m.events:
			if !ok {
				return nil
			}
			return GameEventMsg{Event: event}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// importCmd imports paths off the UI goroutine
func (m Model) importCmd(paths []string) tea.Cmd {
	return func() tea.Msg {
		accepted, err := m.session.AddFiles(m.ctx, paths)
		return FilesAddedMsg{Accepted: accepted, Err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.setupView.SetSize(m.width, m.height-4)
		m.drawView.SetSize(m.width, m.height-4)

	case TickMsg:
		cmds = append(cmds, tickCmd())

	case GameEventMsg:
		switch msg.Event.Type {
		case api.EventPlaybackFailed:
			m.lastFailed = true
		case api.EventNumberDrawn, api.EventPlaybackStarted, api.EventDrawRestarted, api.EventPhaseChanged:
			m.lastFailed = false
		}
		cmds = append(cmds, m.listenForEvents())

	case views.AddPathsMsg:
		m.importing = true
		m.status = "Importing..."
		cmds = append(cmds, m.importCmd(msg.Paths))

	case FilesAddedMsg:
		m.importing = false
		m.err = msg.Err
		m.status = fmt.Sprintf("Added %d clip(s)", msg.Accepted)
		if m.session.Registry().Remaining() == 0 {
			m.status += ", the board is full"
		}

	case views.RemoveEntryMsg:
		_, m.err = m.session.Remove(msg.ID)

	case views.MoveEntryMsg:
		_, m.err = m.session.Move(msg.Index, msg.Dir)

	case views.StartDrawMsg:
		m.err = m.session.StartDraw()
		if errors.Is(m.err, playerrors.ErrRegistryEmpty) {
			m.err = errors.New("add some clips before starting the draw")
		}

	case views.ConfirmedMsg:
		if msg.Yes {
			switch msg.Action {
			case actionQuit:
				return m, m.quit()
			case actionReset:
				m.session.ResetAll()
				m.status = "Everything cleared"
			}
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.confirm.Active {
			var cmd tea.Cmd
			m.confirm, cmd = m.confirm.Update(msg)
			return m, cmd
		}
		if m.session.Phase() == api.PhaseSetup && m.setupView.Browsing {
			var cmd tea.Cmd
			m.setupView, cmd = m.setupView.Update(msg)
			return m, cmd
		}
		cmds = append(cmds, m.handleKey(msg))
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

// handleKey runs global bindings and then the active phase's bindings
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.err = nil
	loaded := m.session.Registry().Len() > 0

	switch msg.String() {
	case m.keys.Quit:
		if !loaded {
			return m.quit()
		}
		m.confirm.Ask(actionQuit, "Quit and discard the loaded clips?")
		return nil
	case m.keys.Reset:
		if loaded {
			m.confirm.Ask(actionReset, "Remove every clip and clear the draw?")
		}
		return nil
	case m.keys.VolumeUp, "=":
		m.changeVolume(0.1)
		return nil
	case m.keys.VolumeDown:
		m.changeVolume(-0.1)
		return nil
	}

	if m.session.Phase() == api.PhaseSetup {
		if m.importing && msg.String() == m.keys.Add {
			return nil
		}
		var cmd tea.Cmd
		m.setupView, cmd = m.setupView.Update(msg)
		return cmd
	}

	switch msg.String() {
	case m.keys.Draw:
		_, ok, err := m.session.Draw()
		m.err = err
		if err == nil && !ok && m.session.Engine().IsTerminal() {
			m.status = "Every number has been drawn"
		}
	case m.keys.Replay:
		_, m.err = m.session.Replay()
	case m.keys.Restart:
		m.err = m.session.RestartDraw()
		m.status = "Draw restarted"
	case m.keys.Back:
		m.err = m.session.EndDraw()
		m.status = ""
	}
	return nil
}

// changeVolume steps the volume by delta, clamped to [0, 1]
func (m *Model) changeVolume(delta float64) {
	if m.volume == nil {
		return
	}
	level := m.volume.GetState().Volume + delta
	level = math.Round(min(max(level, 0), 1)*10) / 10
	m.err = m.volume.SetVolume(level)
}

func (m *Model) quit() tea.Cmd {
	m.cancel()
	return tea.Quit
}

// refresh copies session state into the views
func (m *Model) refresh() {
	reg := m.session.Registry()
	m.setupView.SetEntries(reg.Entries(), reg.Capacity())

	engine := m.session.Engine()
	if engine == nil {
		return
	}

	current, hasPick := engine.CurrentEntry()
	snapshot := views.DrawSnapshot{
		State:   engine.State(),
		Current: current,
		HasPick: hasPick,
		Stats:   engine.Stats(),
		Board:   engine.Board(),
		Failed:  m.lastFailed,
	}
	if m.volume != nil {
		snapshot.Volume = m.volume.GetState().Volume
	}
	m.drawView.SetSnapshot(snapshot)
}

// View renders the UI
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.renderTabs())
	sb.WriteString("\n")

	if m.confirm.Active {
		sb.WriteString(m.confirm.View())
		return sb.String()
	}

	switch m.session.Phase() {
	case api.PhaseSetup:
		sb.WriteString(m.setupView.View())
	case api.PhaseDraw:
		sb.WriteString(m.drawView.View())
	}

	if m.status != "" {
		sb.WriteString("\n" + m.statusStyle.Render(m.status))
	}
	if m.err != nil {
		sb.WriteString("\n" + m.errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return sb.String()
}

// renderTabs shows which phase is active
func (m Model) renderTabs() string {
	phases := []api.Phase{api.PhaseSetup, api.PhaseDraw}
	labels := []string{"Setup", "Draw"}

	current := m.session.Phase()
	var rendered []string
	for i, phase := range phases {
		if phase == current {
			rendered = append(rendered, m.activeTabStyle.Render(labels[i]))
		} else {
			rendered = append(rendered, m.tabStyle.Render(labels[i]))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// Run starts the bubbletea program and blocks until it exits
func Run(ctx context.Context, sess *session.Session, volume VolumeControl, bus *events.EventBus, keys config.KeyMap) error {
	model := NewModel(ctx, sess, volume, bus, keys)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
