package engine

import (
	"math/rand/v2"
	"time"
)

// Engine owns one snake simulation. It is not safe for concurrent use;
// callers serialize access (see the session package).
type Engine struct {
	state  *GameState
	config *GameConfig
	rng    *rand.Rand
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRand sets the random source used for food placement.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*Engine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &Engine{config: config}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e.state = initialState(config)
	return e, nil
}

func initialState(config *GameConfig) *GameState {
	return &GameState{
		Width:          config.Width,
		Height:         config.Height,
		Snake:          []Position{config.Start},
		Food:           config.Food,
		Direction:      Right,
		Heading:        Right,
		Score:          0,
		Status:         StatusNotStarted,
		TickIntervalMs: config.TickIntervalMs,
	}
}

// GetState returns a copy of the current game state
func (e *Engine) GetState() *GameState {
	return e.state.Clone()
}

// Status returns the lifecycle status.
func (e *Engine) Status() Status {
	return e.state.Status
}

// GetScore returns the current score
func (e *Engine) GetScore() int {
	return e.state.Score
}

// TickInterval returns the cadence at which the game should advance.
func (e *Engine) TickInterval() time.Duration {
	return time.Duration(e.state.TickIntervalMs) * time.Millisecond
}

// Start moves a fresh game into the running state. It does nothing in any
// other state; a finished game needs Reset first.
func (e *Engine) Start() bool {
	if e.state.Status != StatusNotStarted {
		return false
	}
	e.state.Status = StatusRunning
	return true
}

// TogglePause flips between running and paused.
func (e *Engine) TogglePause() bool {
	switch e.state.Status {
	case StatusRunning:
		e.state.Status = StatusPaused
	case StatusPaused:
		e.state.Status = StatusRunning
	default:
		return false
	}
	return true
}

// Reset returns the game to its initial not-started state.
func (e *Engine) Reset() *GameState {
	e.state = initialState(e.config)
	return e.state.Clone()
}

// SetDirection queues a heading for the next tick. Reversals of either the
// queued direction or the heading last travelled are ignored, as is any
// change while paused or over.
func (e *Engine) SetDirection(d Direction) bool {
	switch e.state.Status {
	case StatusPaused, StatusOver:
		return false
	}
	if d.Opposite() == "" {
		return false
	}
	if d == e.state.Direction.Opposite() {
		return false
	}
	if len(e.state.Snake) > 1 && d == e.state.Heading.Opposite() {
		return false
	}
	e.state.Direction = d
	return true
}
