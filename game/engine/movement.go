package engine

// Advance runs one tick: the head moves one cell in the queued direction,
// a wall or self collision ends the game, and eating food grows the snake.
// It is a no-op unless the game is running.
func (e *Engine) Advance() AdvanceResult {
	gs := e.state
	if gs.Status != StatusRunning {
		return AdvanceResult{}
	}

	newHead := gs.Head().Move(gs.Direction)

	if !gs.InBounds(newHead) || gs.Occupies(newHead) {
		gs.Status = StatusOver
		return AdvanceResult{Collided: true}
	}

	gs.Snake = append(gs.Snake, Position{})
	copy(gs.Snake[1:], gs.Snake[:len(gs.Snake)-1])
	gs.Snake[0] = newHead
	gs.Heading = gs.Direction

	if newHead != gs.Food {
		gs.Snake = gs.Snake[:len(gs.Snake)-1]
		return AdvanceResult{Moved: true}
	}

	gs.Score++
	e.speedUp()
	if food, ok := e.placeFood(); ok {
		gs.Food = food
	} else {
		// Board is full: nothing left to eat.
		gs.Food = NoFood
		gs.Status = StatusOver
	}
	return AdvanceResult{Moved: true, Ate: true}
}

// speedUp shortens the tick interval toward the configured floor.
func (e *Engine) speedUp() {
	if !e.config.SpeedRamp {
		return
	}
	next := e.state.TickIntervalMs - e.config.IntervalDecrement
	if next >= e.config.MinTickIntervalMs {
		e.state.TickIntervalMs = next
	}
}

// placeFood picks a uniformly random cell outside the snake. Sampling is
// bounded; after that a scan returns the first free cell, and ok is false
// only when the snake covers the whole grid.
func (e *Engine) placeFood() (Position, bool) {
	gs := e.state
	cells := gs.Width * gs.Height
	if len(gs.Snake) >= cells {
		return NoFood, false
	}

	occupied := make(map[Position]struct{}, len(gs.Snake))
	for _, c := range gs.Snake {
		occupied[c] = struct{}{}
	}

	for i := 0; i < cells*foodAttemptsPerCell; i++ {
		p := Position{X: e.rng.IntN(gs.Width), Y: e.rng.IntN(gs.Height)}
		if _, taken := occupied[p]; !taken {
			return p, true
		}
	}

	for y := 0; y < gs.Height; y++ {
		for x := 0; x < gs.Width; x++ {
			p := Position{X: x, Y: y}
			if _, taken := occupied[p]; !taken {
				return p, true
			}
		}
	}
	return NoFood, false
}
