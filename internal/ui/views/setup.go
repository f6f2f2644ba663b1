package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/audio_tombola/api"
	"github.com/jscyril/audio_tombola/internal/config"
	"github.com/jscyril/audio_tombola/internal/ui/components"
)

// AddPathsMsg asks for files or directories to be imported
type AddPathsMsg struct {
	Paths []string
}

// RemoveEntryMsg asks for the entry with ID to be removed
type RemoveEntryMsg struct {
	ID int
}

// MoveEntryMsg asks for the entry at Index to swap with its neighbor
type MoveEntryMsg struct {
	Index int
	Dir   api.Direction
}

// StartDrawMsg asks for the draw phase to begin
type StartDrawMsg struct{}

// SetupView lists the numbered entries and lets the user edit them
type SetupView struct {
	Width       int
	Height      int
	Keys        config.KeyMap
	EntryList   components.EntryList
	Capacity    components.CountBar
	FileBrowser components.FileBrowser
	Browsing    bool // True when file browser is open
	BrowsePath  string
	BorderStyle lipgloss.Style
	HelpStyle   lipgloss.Style
}

// NewSetupView creates a new setup view
func NewSetupView(width, height int, keys config.KeyMap) SetupView {
	entryList := components.NewEntryList(height-8, width-6)
	entryList.Title = "🎱 Numbers"

	return SetupView{
		Width:     width,
		Height:    height,
		Keys:      keys,
		EntryList: entryList,
		Capacity:  components.NewCountBar(width-8, "Loaded"),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		HelpStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// SetEntries refreshes the list and the capacity bar
func (v *SetupView) SetEntries(entries []api.Entry, capacity int) {
	v.EntryList.SetItems(entries)
	v.Capacity.Set(len(entries), capacity)
}

// SetSize updates view dimensions
func (v *SetupView) SetSize(width, height int) {
	v.Width = width
	v.Height = height
	v.EntryList.Width = width - 6
	v.EntryList.Height = height - 8
	v.Capacity.Width = width - 8
	v.FileBrowser.Width = width
	v.FileBrowser.Height = height
}

// Update handles messages
func (v SetupView) Update(msg tea.Msg) (SetupView, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}

	if v.Browsing {
		switch key.String() {
		case "esc":
			v.Browsing = false
		case "enter":
			// A directory navigates and keeps the browser open
			if path := v.FileBrowser.EnterSelected(); path != "" {
				v.closeBrowser()
				return v, addPaths(path)
			}
		case v.Keys.Add:
			if path := v.FileBrowser.PickSelected(); path != "" {
				v.closeBrowser()
				return v, addPaths(path)
			}
		default:
			v.FileBrowser, _ = v.FileBrowser.Update(msg)
		}
		return v, nil
	}

	switch key.String() {
	case v.Keys.Add:
		v.Browsing = true
		v.FileBrowser = components.NewFileBrowser(v.BrowsePath, v.Width, v.Height)
	case v.Keys.Remove:
		if entry, ok := v.EntryList.SelectedItem(); ok {
			return v, func() tea.Msg { return RemoveEntryMsg{ID: entry.ID} }
		}
	case v.Keys.MoveUp:
		index := v.EntryList.Selected
		v.EntryList.MoveUp()
		return v, func() tea.Msg { return MoveEntryMsg{Index: index, Dir: api.Up} }
	case v.Keys.MoveDown:
		index := v.EntryList.Selected
		v.EntryList.MoveDown()
		return v, func() tea.Msg { return MoveEntryMsg{Index: index, Dir: api.Down} }
	case v.Keys.Start:
		return v, func() tea.Msg { return StartDrawMsg{} }
	default:
		v.EntryList, _ = v.EntryList.Update(msg)
	}
	return v, nil
}

// closeBrowser remembers the directory so the next add starts there
func (v *SetupView) closeBrowser() {
	v.Browsing = false
	v.BrowsePath = v.FileBrowser.CurrentPath
}

func addPaths(path string) tea.Cmd {
	return func() tea.Msg { return AddPathsMsg{Paths: []string{path}} }
}

// View renders the setup view
func (v SetupView) View() string {
	if v.Browsing {
		return v.FileBrowser.View()
	}

	var sb strings.Builder
	sb.WriteString(v.Capacity.View())
	sb.WriteString("\n\n")
	sb.WriteString(v.EntryList.View())
	sb.WriteString("\n\n")
	sb.WriteString(v.HelpStyle.Render(fmt.Sprintf(
		"[%s] Add  [%s] Remove  [%s/%s] Move  [%s] Start draw  [%s] Reset  [%s] Quit",
		keyLabel(v.Keys.Add), keyLabel(v.Keys.Remove), keyLabel(v.Keys.MoveUp), keyLabel(v.Keys.MoveDown),
		keyLabel(v.Keys.Start), keyLabel(v.Keys.Reset), keyLabel(v.Keys.Quit),
	)))

	return v.BorderStyle.Width(max(v.Width-4, 20)).Render(sb.String())
}

// keyLabel names a binding for help text
func keyLabel(key string) string {
	switch key {
	case " ":
		return "Space"
	case "esc":
		return "Esc"
	default:
		return key
	}
}
