package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/audio_tombola/api"
)

// EntryList is a scrollable list of numbered entries
type EntryList struct {
	Items         []api.Entry
	Selected      int
	Height        int
	Width         int
	Offset        int
	Title         string
	SelectedStyle lipgloss.Style
	NormalStyle   lipgloss.Style
	NumberStyle   lipgloss.Style
	TitleStyle    lipgloss.Style
}

// NewEntryList creates a new entry list
func NewEntryList(height, width int) EntryList {
	return EntryList{
		Height: height,
		Width:  width,
		SelectedStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
		NormalStyle: lipgloss.NewStyle().
			Padding(0, 1),
		NumberStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1),
	}
}

// SetItems replaces the entries, keeping the selection in range
func (l *EntryList) SetItems(items []api.Entry) {
	l.Items = items
	if l.Selected >= len(items) {
		l.Selected = len(items) - 1
	}
	if l.Selected < 0 {
		l.Selected = 0
	}
	l.ensureVisible()
}

// Select moves the selection to index, clamped to the list
func (l *EntryList) Select(index int) {
	l.Selected = max(0, min(index, len(l.Items)-1))
	l.ensureVisible()
}

// Update handles navigation keys
func (l EntryList) Update(msg tea.Msg) (EntryList, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home":
			l.Selected = 0
			l.Offset = 0
		case "end":
			if len(l.Items) > 0 {
				l.Selected = len(l.Items) - 1
				l.ensureVisible()
			}
		case "pgup":
			l.PageUp()
		case "pgdown":
			l.PageDown()
		}
	}
	return l, nil
}

// MoveUp moves selection up
func (l *EntryList) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
		l.ensureVisible()
	}
}

// MoveDown moves selection down
func (l *EntryList) MoveDown() {
	if l.Selected < len(l.Items)-1 {
		l.Selected++
		l.ensureVisible()
	}
}

// PageUp moves selection up by a page
func (l *EntryList) PageUp() {
	l.Select(l.Selected - l.visibleHeight())
}

// PageDown moves selection down by a page
func (l *EntryList) PageDown() {
	l.Select(l.Selected + l.visibleHeight())
}

func (l *EntryList) visibleHeight() int {
	return max(l.Height-2, 1) // title and scroll indicator
}

// ensureVisible ensures the selected item is visible
func (l *EntryList) ensureVisible() {
	visible := l.visibleHeight()
	if l.Selected < l.Offset {
		l.Offset = l.Selected
	} else if l.Selected >= l.Offset+visible {
		l.Offset = l.Selected - visible + 1
	}
}

// SelectedItem returns the selected entry
func (l *EntryList) SelectedItem() (api.Entry, bool) {
	if l.Selected >= 0 && l.Selected < len(l.Items) {
		return l.Items[l.Selected], true
	}
	return api.Entry{}, false
}

// View renders the list
func (l EntryList) View() string {
	var sb strings.Builder

	if l.Title != "" {
		sb.WriteString(l.TitleStyle.Render(l.Title))
		sb.WriteString("\n")
	}

	if len(l.Items) == 0 {
		sb.WriteString(l.NormalStyle.Render("No entries, press the add key to load clips"))
		return sb.String()
	}

	visible := l.visibleHeight()
	end := min(l.Offset+visible, len(l.Items))

	for i := l.Offset; i < end; i++ {
		entry := l.Items[i]
		name := truncate(entry.DisplayName, max(l.Width-10, 10))
		number := fmt.Sprintf("%3d.", entry.ID)

		if i == l.Selected {
			sb.WriteString(l.SelectedStyle.Render(number + " " + name))
		} else {
			sb.WriteString(l.NormalStyle.Render(l.NumberStyle.Render(number) + " " + name))
		}
		if i < end-1 {
			sb.WriteString("\n")
		}
	}

	if len(l.Items) > visible {
		sb.WriteString("\n")
		sb.WriteString(l.NormalStyle.Render(fmt.Sprintf("  [%d/%d]", l.Selected+1, len(l.Items))))
	}

	return sb.String()
}

// truncate truncates a string to maxLen runes
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
