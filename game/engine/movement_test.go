package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance_MovesOneCellInDirection(t *testing.T) {
	tests := []struct {
		name     string
		heading  Direction
		turn     Direction
		expected Position
	}{
		{"keep right", Right, Right, Position{X: 11, Y: 10}},
		{"right then up", Right, Up, Position{X: 10, Y: 9}},
		{"right then down", Right, Down, Position{X: 10, Y: 11}},
		{"up then left", Up, Left, Position{X: 9, Y: 10}},
		{"left then up", Left, Up, Position{X: 10, Y: 9}},
		{"down then right", Down, Right, Position{X: 11, Y: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, createTestConfig())
			back := Position{X: 10, Y: 10}.Move(tt.heading.Opposite())
			setSnake(e, tt.heading, Position{X: 10, Y: 10}, back)

			require.True(t, e.SetDirection(tt.turn))
			result := e.Advance()

			assert.True(t, result.Moved)
			assert.Equal(t, tt.expected, e.GetState().Head())
			assert.Len(t, e.GetState().Snake, 2)
		})
	}
}

func TestAdvance_ReverseIsNoOp(t *testing.T) {
	e := newTestEngine(t, createTestConfig())
	setSnake(e, Right, Position{X: 10, Y: 10}, Position{X: 9, Y: 10})

	e.SetDirection(Left)
	e.Advance()

	state := e.GetState()
	assert.Equal(t, Right, state.Direction)
	assert.Equal(t, Position{X: 11, Y: 10}, state.Head())
	assert.Equal(t, StatusRunning, state.Status)
}

func TestAdvance_EatFood(t *testing.T) {
	e := newTestEngine(t, createTestConfig())
	require.True(t, e.Start())
	e.state.Food = Position{X: 11, Y: 10}

	result := e.Advance()
	state := e.GetState()

	assert.True(t, result.Ate)
	assert.Equal(t, []Position{{X: 11, Y: 10}, {X: 10, Y: 10}}, state.Snake)
	assert.Equal(t, 1, state.Score)
	assert.NotEqual(t, Position{X: 11, Y: 10}, state.Food)
	assert.False(t, state.Occupies(state.Food), "food must not land on the snake")
	assert.True(t, state.InBounds(state.Food))
}

func TestAdvance_NonEatingMoveKeepsLength(t *testing.T) {
	e := newTestEngine(t, createTestConfig())
	setSnake(e, Right, Position{X: 10, Y: 10}, Position{X: 9, Y: 10}, Position{X: 8, Y: 10})

	e.Advance()

	state := e.GetState()
	assert.Equal(t, []Position{{X: 11, Y: 10}, {X: 10, Y: 10}, {X: 9, Y: 10}}, state.Snake)
	assert.Equal(t, 0, state.Score)
}

func TestAdvance_WallCollision(t *testing.T) {
	e := newTestEngine(t, createTestConfig())
	setSnake(e, Right, Position{X: 19, Y: 10}, Position{X: 18, Y: 10}, Position{X: 17, Y: 10})

	result := e.Advance()
	assert.True(t, result.Collided)
	assert.Equal(t, StatusOver, e.Status())

	frozen := e.GetState().Snake
	for i := 0; i < 3; i++ {
		assert.Equal(t, AdvanceResult{}, e.Advance())
	}
	assert.Equal(t, frozen, e.GetState().Snake)
}

func TestAdvance_WallCollisionAllEdges(t *testing.T) {
	tests := []struct {
		dir  Direction
		head Position
	}{
		{Up, Position{X: 5, Y: 0}},
		{Down, Position{X: 5, Y: 19}},
		{Left, Position{X: 0, Y: 5}},
		{Right, Position{X: 19, Y: 5}},
	}

	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			e := newTestEngine(t, createTestConfig())
			setSnake(e, tt.dir, tt.head)
			e.Advance()
			assert.Equal(t, StatusOver, e.Status())
			assert.Equal(t, tt.head, e.GetState().Head())
		})
	}
}

func TestAdvance_SelfCollision(t *testing.T) {
	e := newTestEngine(t, createTestConfig())
	// Head at (5,5) heading down into its own body at (5,6).
	setSnake(e, Left,
		Position{X: 5, Y: 5},
		Position{X: 6, Y: 5},
		Position{X: 6, Y: 6},
		Position{X: 5, Y: 6},
		Position{X: 4, Y: 6},
	)
	require.True(t, e.SetDirection(Down))

	result := e.Advance()
	assert.True(t, result.Collided)
	assert.Equal(t, StatusOver, e.Status())
	assert.Len(t, e.GetState().Snake, 5)
}

func TestAdvance_NotRunningIsNoOp(t *testing.T) {
	e := newTestEngine(t, createTestConfig())
	before := e.GetState()

	assert.Equal(t, AdvanceResult{}, e.Advance())
	assert.Equal(t, before, e.GetState())
}

func TestAdvance_SpeedRamp(t *testing.T) {
	t.Run("interval shrinks per food down to the floor", func(t *testing.T) {
		config := createTestConfig()
		config.SpeedRamp = true
		config.TickIntervalMs = 130
		config.MinTickIntervalMs = 110
		config.IntervalDecrement = 10
		e := newTestEngine(t, config)
		e.Start()

		expected := []int{120, 110, 110}
		for i, want := range expected {
			e.state.Food = e.state.Head().Move(e.state.Direction)
			result := e.Advance()
			require.True(t, result.Ate, "tick %d", i)
			assert.Equal(t, want, e.GetState().TickIntervalMs, "tick %d", i)
		}
	})

	t.Run("fixed interval when ramp disabled", func(t *testing.T) {
		e := newTestEngine(t, createTestConfig())
		e.Start()
		e.state.Food = Position{X: 11, Y: 10}
		e.Advance()
		assert.Equal(t, 300, e.GetState().TickIntervalMs)
	})
}

func TestPlaceFood_NeverOnSnake(t *testing.T) {
	config := createTestConfig()
	config.Width, config.Height = 5, 5
	config.Start = Position{X: 2, Y: 2}
	config.Food = Position{X: 4, Y: 4}
	e, err := NewEngine(config, WithRand(rand.New(rand.NewPCG(7, 7))))
	require.NoError(t, err)

	// Fill every cell but one.
	var snake []Position
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if x == 3 && y == 4 {
				continue
			}
			snake = append(snake, Position{X: x, Y: y})
		}
	}
	e.state.Snake = snake

	food, ok := e.placeFood()
	require.True(t, ok)
	assert.Equal(t, Position{X: 3, Y: 4}, food)
}

func TestPlaceFood_FullBoardEndsGame(t *testing.T) {
	config := createTestConfig()
	config.Width, config.Height = 5, 5
	config.Start = Position{X: 0, Y: 0}
	config.Food = Position{X: 1, Y: 0}
	e := newTestEngine(t, config)

	// A serpentine snake covering 24 cells with the head next to the last free cell.
	var snake []Position
	for y := 4; y >= 0; y-- {
		if y%2 == 0 {
			for x := 4; x >= 0; x-- {
				snake = append(snake, Position{X: x, Y: y})
			}
		} else {
			for x := 0; x < 5; x++ {
				snake = append(snake, Position{X: x, Y: y})
			}
		}
	}
	// snake now ends at (0,0); drop it so (0,0) is the only free cell and
	// reverse so the head is (1,0) heading left.
	snake = snake[:len(snake)-1]
	for i, j := 0, len(snake)-1; i < j; i, j = i+1, j-1 {
		snake[i], snake[j] = snake[j], snake[i]
	}
	setSnake(e, Left, snake...)
	e.state.Food = Position{X: 0, Y: 0}

	result := e.Advance()
	state := e.GetState()

	assert.True(t, result.Ate)
	assert.Len(t, state.Snake, 25)
	assert.Equal(t, NoFood, state.Food)
	assert.Equal(t, StatusOver, state.Status)
}
