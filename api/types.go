package api

import "time"

// MediaRef is an opaque handle to a registered playable resource.
// The media manager owns the resource; holders only reference it.
type MediaRef string

// Media is a registered item as returned by the media manager
type Media struct {
	Ref      MediaRef      `json:"ref"`
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration"`
}

// Entry is one numbered item in the registry. ID doubles as the call number
// and the 1-based list position.
type Entry struct {
	ID          int      `json:"id"`
	Ref         MediaRef `json:"ref"`
	DisplayName string   `json:"display_name"`
	Path        string   `json:"path"`
}

// Direction is the direction of an adjacent move in the registry
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Phase is the session phase
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseDraw
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// DrawState is the state of the draw engine
type DrawState int

const (
	DrawIdle DrawState = iota
	DrawDrawing
	DrawSettled
	DrawTerminal
)

func (s DrawState) String() string {
	switch s {
	case DrawIdle:
		return "idle"
	case DrawDrawing:
		return "drawing"
	case DrawSettled:
		return "settled"
	case DrawTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// DrawResult describes a successful draw
type DrawResult struct {
	Number    int
	Entry     Entry
	Remaining int
	GameOver  bool
}

// Stats summarizes draw progress
type Stats struct {
	Total     int `json:"total"`
	Drawn     int `json:"drawn"`
	Remaining int `json:"remaining"`
}

// CellStatus is the status of one number on the board
type CellStatus int

const (
	CellPending CellStatus = iota
	CellDrawn
	CellCurrent
)

// BoardCell is one number on the board
type BoardCell struct {
	Number int
	Status CellStatus
}
