package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CountBar renders a filled bar for a count out of a total, such as loaded
// entries against capacity or drawn numbers against the universe
type CountBar struct {
	Width       int
	Current     int
	Total       int
	Label       string
	BarChar     string
	EmptyChar   string
	Style       lipgloss.Style
	FilledStyle lipgloss.Style
	FullStyle   lipgloss.Style
	EmptyStyle  lipgloss.Style
}

// NewCountBar creates a new count bar
func NewCountBar(width int, label string) CountBar {
	return CountBar{
		Width:       width,
		Label:       label,
		BarChar:     "█",
		EmptyChar:   "░",
		Style:       lipgloss.NewStyle(),
		FilledStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		FullStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		EmptyStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Set updates the count
func (p *CountBar) Set(current, total int) {
	p.Current = current
	p.Total = total
}

// View renders the bar
func (p CountBar) View() string {
	var sb strings.Builder

	var percent float64
	if p.Total > 0 {
		percent = float64(p.Current) / float64(p.Total)
	}
	percent = min(max(percent, 0), 1)

	counter := fmt.Sprintf(" %d/%d", p.Current, p.Total)
	if p.Label != "" {
		sb.WriteString(p.Label)
		sb.WriteString(" ")
	}

	barWidth := max(p.Width-len(p.Label)-len(counter)-1, 10)
	filled := int(float64(barWidth) * percent)
	empty := barWidth - filled

	fill := p.FilledStyle
	if p.Total > 0 && p.Current >= p.Total {
		fill = p.FullStyle
	}
	sb.WriteString(fill.Render(strings.Repeat(p.BarChar, filled)))
	sb.WriteString(p.EmptyStyle.Render(strings.Repeat(p.EmptyChar, empty)))
	sb.WriteString(counter)

	return p.Style.Render(sb.String())
}
