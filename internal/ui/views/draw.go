package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/audio_tombola/api"
	"github.com/jscyril/audio_tombola/internal/config"
	"github.com/jscyril/audio_tombola/internal/ui/components"
)

// DrawSnapshot is the draw state shown on screen
type DrawSnapshot struct {
	State   api.DrawState
	Current api.Entry
	HasPick bool
	Stats   api.Stats
	Board   []api.BoardCell
	Volume  float64
	Failed  bool
}

// DrawView shows the current number, the board and draw progress
type DrawView struct {
	Width    int
	Height   int
	Keys     config.KeyMap
	Snapshot DrawSnapshot
	Board    components.Board
	Progress components.CountBar

	// Styles
	NumberStyle   lipgloss.Style
	NameStyle     lipgloss.Style
	StatusStyle   lipgloss.Style
	ControlsStyle lipgloss.Style
	BorderStyle   lipgloss.Style
}

// NewDrawView creates a new draw view
func NewDrawView(width, height int, keys config.KeyMap) DrawView {
	return DrawView{
		Width:    width,
		Height:   height,
		Keys:     keys,
		Board:    components.NewBoard(),
		Progress: components.NewCountBar(width-8, "Drawn"),
		NumberStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("212")).
			Padding(1, 4),
		NameStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		StatusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		ControlsStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
}

// SetSnapshot updates what the view shows
func (v *DrawView) SetSnapshot(s DrawSnapshot) {
	v.Snapshot = s
	v.Board.Cells = s.Board
	v.Progress.Set(s.Stats.Drawn, s.Stats.Total)
}

// SetSize updates view dimensions
func (v *DrawView) SetSize(width, height int) {
	v.Width = width
	v.Height = height
	v.Progress.Width = width - 8
}

// View renders the draw view
func (v DrawView) View() string {
	var sb strings.Builder
	s := v.Snapshot

	if !s.HasPick {
		sb.WriteString(v.NumberStyle.Render(" ? "))
		sb.WriteString("\n\n")
		sb.WriteString(v.NameStyle.Render(fmt.Sprintf("Press %s to draw the first number", keyLabel(v.Keys.Draw))))
	} else {
		sb.WriteString(v.NumberStyle.Render(fmt.Sprintf("%3d", s.Current.ID)))
		sb.WriteString("\n\n")
		sb.WriteString(v.NameStyle.Render(s.Current.DisplayName))
	}
	sb.WriteString("\n")
	sb.WriteString(v.StatusStyle.Render(statusLine(s)))
	sb.WriteString("\n\n")

	sb.WriteString(v.Progress.View())
	sb.WriteString("\n\n")
	sb.WriteString(v.Board.View())
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Volume: %s %d%%", renderVolumeBar(s.Volume), int(s.Volume*100)))
	sb.WriteString("\n")
	sb.WriteString(v.ControlsStyle.Render(fmt.Sprintf(
		"[%s] Draw  [%s] Replay  [%s] Restart  [%s] Setup  [%s] Reset  [%s/%s] Volume  [%s] Quit",
		keyLabel(v.Keys.Draw), keyLabel(v.Keys.Replay), keyLabel(v.Keys.Restart), keyLabel(v.Keys.Back),
		keyLabel(v.Keys.Reset), keyLabel(v.Keys.VolumeUp), keyLabel(v.Keys.VolumeDown), keyLabel(v.Keys.Quit),
	)))

	return v.BorderStyle.Width(max(v.Width-4, 20)).Render(sb.String())
}

func statusLine(s DrawSnapshot) string {
	switch s.State {
	case api.DrawDrawing:
		return "▶ Playing"
	case api.DrawTerminal:
		if s.Failed {
			return "■ All numbers drawn (last clip failed to play)"
		}
		return "■ All numbers drawn"
	case api.DrawSettled:
		if s.Failed {
			return "⚠ Clip failed to play, the number stays drawn"
		}
		return fmt.Sprintf("%d left", s.Stats.Remaining)
	default:
		return fmt.Sprintf("%d numbers ready", s.Stats.Total)
	}
}

// renderVolumeBar renders a volume bar
func renderVolumeBar(volume float64) string {
	filled := min(max(int(volume*10), 0), 10)
	empty := 10 - filled

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	return filledStyle.Render(strings.Repeat("●", filled)) + emptyStyle.Render(strings.Repeat("○", empty))
}
