package engine

import "fmt"

// Point is a coordinate pair serialized as [x, y].
type Point [2]int

// Snapshot is the persisted projection of a game.
type Snapshot struct {
	Snake          []Point   `json:"snake" msgpack:"snake"`
	Food           Point     `json:"food" msgpack:"food"`
	Direction      Direction `json:"direction" msgpack:"direction"`
	Score          int       `json:"score" msgpack:"score"`
	GameStarted    bool      `json:"gameStarted" msgpack:"gameStarted"`
	GameOver       bool      `json:"gameOver" msgpack:"gameOver"`
	GamePaused     bool      `json:"gamePaused" msgpack:"gamePaused"`
	TickIntervalMs int       `json:"tickIntervalMs,omitempty" msgpack:"tickIntervalMs,omitempty"`
}

func toPoint(p Position) Point { return Point{p.X, p.Y} }
func fromPoint(p Point) Position { return Position{X: p[0], Y: p[1]} }

// Snapshot captures the current state for persistence.
func (e *Engine) Snapshot() *Snapshot {
	gs := e.state
	snap := &Snapshot{
		Snake:          make([]Point, len(gs.Snake)),
		Food:           toPoint(gs.Food),
		Direction:      gs.Direction,
		Score:          gs.Score,
		GameStarted:    gs.Status != StatusNotStarted,
		GameOver:       gs.Status == StatusOver,
		GamePaused:     gs.Status == StatusPaused,
		TickIntervalMs: gs.TickIntervalMs,
	}
	for i, c := range gs.Snake {
		snap.Snake[i] = toPoint(c)
	}
	return snap
}

// Restore replaces the state with a validated snapshot. On error the
// current state is left untouched.
func (e *Engine) Restore(snap *Snapshot) error {
	state, err := stateFromSnapshot(e.config, snap)
	if err != nil {
		return err
	}
	e.state = state
	return nil
}

// NewEngineFromSnapshot builds an engine whose state is restored from snap.
func NewEngineFromSnapshot(config *GameConfig, snap *Snapshot, opts ...Option) (*Engine, error) {
	e, err := NewEngine(config, opts...)
	if err != nil {
		return nil, err
	}
	if err := e.Restore(snap); err != nil {
		return nil, err
	}
	return e, nil
}

func stateFromSnapshot(config *GameConfig, snap *Snapshot) (*GameState, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if len(snap.Snake) == 0 {
		return nil, fmt.Errorf("%w: empty snake", ErrInvalidSnapshot)
	}
	if _, err := ParseDirection(string(snap.Direction)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if snap.Score < 0 {
		return nil, fmt.Errorf("%w: negative score %d", ErrInvalidSnapshot, snap.Score)
	}

	gs := &GameState{
		Width:     config.Width,
		Height:    config.Height,
		Snake:     make([]Position, len(snap.Snake)),
		Food:      fromPoint(snap.Food),
		Direction: snap.Direction,
		Score:     snap.Score,
	}

	seen := make(map[Position]struct{}, len(snap.Snake))
	for i, p := range snap.Snake {
		c := fromPoint(p)
		if !gs.InBounds(c) {
			return nil, fmt.Errorf("%w: snake cell (%d,%d) out of bounds", ErrInvalidSnapshot, c.X, c.Y)
		}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: duplicate snake cell (%d,%d)", ErrInvalidSnapshot, c.X, c.Y)
		}
		seen[c] = struct{}{}
		gs.Snake[i] = c
	}

	gs.Heading = travelled(gs.Snake, snap.Direction)

	switch {
	case snap.GameOver:
		gs.Status = StatusOver
	case snap.GameStarted && snap.GamePaused:
		gs.Status = StatusPaused
	case snap.GameStarted:
		gs.Status = StatusRunning
	default:
		gs.Status = StatusNotStarted
	}

	if !(gs.Status == StatusOver && gs.Food == NoFood) {
		if !gs.InBounds(gs.Food) {
			return nil, fmt.Errorf("%w: food (%d,%d) out of bounds", ErrInvalidSnapshot, gs.Food.X, gs.Food.Y)
		}
		if _, onSnake := seen[gs.Food]; onSnake {
			return nil, fmt.Errorf("%w: food (%d,%d) inside snake", ErrInvalidSnapshot, gs.Food.X, gs.Food.Y)
		}
	}

	gs.TickIntervalMs = config.TickIntervalMs
	if config.SpeedRamp && snap.TickIntervalMs >= config.MinTickIntervalMs && snap.TickIntervalMs <= config.TickIntervalMs {
		gs.TickIntervalMs = snap.TickIntervalMs
	}

	return gs, nil
}

// travelled derives the last direction moved from the two leading cells. A
// single-cell snake has no history, so the queued direction stands in.
func travelled(snake []Position, queued Direction) Direction {
	if len(snake) < 2 {
		return queued
	}
	for _, d := range []Direction{Up, Down, Left, Right} {
		if snake[1].Move(d) == snake[0] {
			return d
		}
	}
	return queued
}
