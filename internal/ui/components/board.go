package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/audio_tombola/api"
)

// BoardColumns is the number of cells per board row
const BoardColumns = 10

// Board renders drawn numbers as a grid
type Board struct {
	Cells        []api.BoardCell
	Columns      int
	PendingStyle lipgloss.Style
	DrawnStyle   lipgloss.Style
	CurrentStyle lipgloss.Style
}

// NewBoard creates an empty board
func NewBoard() Board {
	return Board{
		Columns:      BoardColumns,
		PendingStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		DrawnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		CurrentStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("212")).
			Foreground(lipgloss.Color("230")).
			Bold(true),
	}
}

// View renders the grid, one row per Columns cells
func (b Board) View() string {
	if len(b.Cells) == 0 {
		return ""
	}
	columns := max(b.Columns, 1)

	var sb strings.Builder
	for i, cell := range b.Cells {
		text := fmt.Sprintf("%3d", cell.Number)
		switch cell.Status {
		case api.CellCurrent:
			sb.WriteString(b.CurrentStyle.Render(text))
		case api.CellDrawn:
			sb.WriteString(b.DrawnStyle.Render(text))
		default:
			sb.WriteString(b.PendingStyle.Render(text))
		}

		switch {
		case i == len(b.Cells)-1:
		case (i+1)%columns == 0:
			sb.WriteString("\n")
		default:
			sb.WriteString(" ")
		}
	}
	return sb.String()
}
