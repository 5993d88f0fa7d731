package engine

import (
	"errors"
	"fmt"
)

// Direction is one of the four headings the snake can travel in.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// ParseDirection converts raw request input into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Up, Down, Left, Right:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Opposite returns the reverse heading.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return ""
}

// Delta returns the unit step for the direction.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Status is the lifecycle state of a game.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusPaused     Status = "paused"
	StatusOver       Status = "over"
)

// CellTag classifies a grid cell in a rendered view.
type CellTag string

const (
	CellEmpty CellTag = "empty"
	CellHead  CellTag = "head"
	CellBody  CellTag = "body"
	CellFood  CellTag = "food"
)

// Validation constants
const (
	MinGridSize = 5
	MaxGridSize = 100

	DefaultGridSize          = 20
	DefaultTickIntervalMs    = 300
	DefaultMinTickIntervalMs = 100
	DefaultIntervalDecrement = 10
	foodAttemptsPerCell      = 4
)

var (
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidSnapshot  = errors.New("invalid snapshot")
)

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NoFood marks a board with no free cell left for food.
var NoFood = Position{X: -1, Y: -1}

// Move returns the neighbouring position in direction d.
func (p Position) Move(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// GameConfig describes one game mode.
type GameConfig struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Start       Position `json:"start"`
	Food        Position `json:"food"`

	TickIntervalMs    int  `json:"tick_interval_ms"`
	MinTickIntervalMs int  `json:"min_tick_interval_ms"`
	IntervalDecrement int  `json:"interval_decrement_ms"`
	SpeedRamp         bool `json:"speed_ramp"`
}

// GameState is the complete mutable state of one simulation.
type GameState struct {
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	Snake          []Position `json:"snake"`
	Food           Position   `json:"food"`
	Direction      Direction  `json:"direction"`
	Heading        Direction  `json:"heading"`
	Score          int        `json:"score"`
	Status         Status     `json:"status"`
	TickIntervalMs int        `json:"tick_interval_ms"`
}

// Head returns the first snake cell.
func (gs *GameState) Head() Position {
	return gs.Snake[0]
}

// InBounds reports whether p lies on the grid.
func (gs *GameState) InBounds(p Position) bool {
	return p.X >= 0 && p.X < gs.Width && p.Y >= 0 && p.Y < gs.Height
}

// Occupies reports whether any snake cell equals p.
func (gs *GameState) Occupies(p Position) bool {
	for _, c := range gs.Snake {
		if c == p {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the state.
func (gs *GameState) Clone() *GameState {
	cp := *gs
	cp.Snake = append([]Position(nil), gs.Snake...)
	return &cp
}

// AdvanceResult reports what a single tick did.
type AdvanceResult struct {
	Moved    bool `json:"moved"`
	Ate      bool `json:"ate"`
	Collided bool `json:"collided"`
}

// View is a read-only projection of a game for display.
type View struct {
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	Cells          [][]CellTag `json:"cells"`
	Score          int         `json:"score"`
	Status         Status      `json:"status"`
	Direction      Direction   `json:"direction"`
	Length         int         `json:"length"`
	TickIntervalMs int         `json:"tick_interval_ms"`
}
