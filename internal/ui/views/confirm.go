package views

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmedMsg reports the answer to a confirmation prompt
type ConfirmedMsg struct {
	Action string
	Yes    bool
}

// ConfirmView asks a yes/no question before a destructive action
type ConfirmView struct {
	Action   string
	Question string
	Active   bool

	BorderStyle lipgloss.Style
	TextStyle   lipgloss.Style
	HelpStyle   lipgloss.Style
}

// NewConfirmView creates an inactive prompt
func NewConfirmView() ConfirmView {
	return ConfirmView{
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(1, 2),
		TextStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		HelpStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Ask activates the prompt for action
func (v *ConfirmView) Ask(action, question string) {
	v.Action = action
	v.Question = question
	v.Active = true
}

// Update answers the prompt on y/n. Esc counts as no.
func (v ConfirmView) Update(msg tea.Msg) (ConfirmView, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !v.Active {
		return v, nil
	}

	var yes bool
	switch strings.ToLower(key.String()) {
	case "y", "enter":
		yes = true
	case "n", "esc":
	default:
		return v, nil
	}

	v.Active = false
	action := v.Action
	return v, func() tea.Msg { return ConfirmedMsg{Action: action, Yes: yes} }
}

// View renders the prompt
func (v ConfirmView) View() string {
	return v.BorderStyle.Render(
		v.TextStyle.Render(v.Question) + "\n\n" + v.HelpStyle.Render("[y] Yes  [n] No"),
	)
}
