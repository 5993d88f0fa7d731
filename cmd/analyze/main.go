// Command analyze prints quick, human-readable heuristics about the game modes
// in a configs directory: board size, the opening from start to first food,
// and how quickly the speed ramp reaches its floor.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wricardo/snake-api/game/config"
	"github.com/wricardo/snake-api/game/engine"
)

// Analysis summarizes one game mode.
type Analysis struct {
	Name          string
	Cells         int
	MaxScore      int
	FoodDistance  int
	FoodAhead     bool
	StepsToWall   int
	CrossBoard    time.Duration
	FoodsToFloor  int
	FloorInterval time.Duration
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := run(os.Stdout, dir); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, dir string) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}
	configs, err := manager.ListConfigs()
	if err != nil {
		return err
	}

	for _, info := range configs {
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Fprintf(w, "\n=== %s ===\nError: %v\n", info.ConfigID, err)
			continue
		}
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", info.Filename)
		printAnalysis(w, Analyze(cfg))
	}
	return nil
}

// Analyze derives the heuristics for cfg. The snake starts as one cell
// heading right.
func Analyze(cfg *engine.GameConfig) Analysis {
	base := time.Duration(cfg.TickIntervalMs) * time.Millisecond
	a := Analysis{
		Name:          cfg.Name,
		Cells:         cfg.Width * cfg.Height,
		MaxScore:      cfg.Width*cfg.Height - 1,
		FoodDistance:  abs(cfg.Food.X-cfg.Start.X) + abs(cfg.Food.Y-cfg.Start.Y),
		FoodAhead:     cfg.Food.Y == cfg.Start.Y && cfg.Food.X > cfg.Start.X,
		StepsToWall:   cfg.Width - 1 - cfg.Start.X,
		CrossBoard:    time.Duration(cfg.Width) * base,
		FloorInterval: base,
	}

	if cfg.SpeedRamp && cfg.IntervalDecrement > 0 && cfg.MinTickIntervalMs < cfg.TickIntervalMs {
		span := cfg.TickIntervalMs - cfg.MinTickIntervalMs
		a.FoodsToFloor = (span + cfg.IntervalDecrement - 1) / cfg.IntervalDecrement
		a.FloorInterval = time.Duration(cfg.MinTickIntervalMs) * time.Millisecond
	}
	return a
}

func printAnalysis(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Cells: %d (max score %d)\n", a.Cells, a.MaxScore)
	fmt.Fprintf(w, "First food: %d steps away", a.FoodDistance)
	if a.FoodAhead {
		fmt.Fprintf(w, ", straight ahead")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Crossing the board takes %s at the starting speed\n", a.CrossBoard)

	if a.FoodsToFloor > 0 {
		fmt.Fprintf(w, "Speed ramp reaches %s after %d foods\n", a.FloorInterval, a.FoodsToFloor)
	} else {
		fmt.Fprintf(w, "Fixed speed: %s per tick\n", a.FloorInterval)
	}

	switch {
	case a.StepsToWall == 0:
		fmt.Fprintf(w, "⚠️  WARNING: the snake starts facing the wall and dies on the first tick without a turn\n")
	case !a.FoodAhead && a.StepsToWall < a.FoodDistance:
		fmt.Fprintf(w, "⚠️  WARNING: the wall is %d steps ahead, closer than the first food\n", a.StepsToWall)
	default:
		fmt.Fprintf(w, "✅ Opening is safe without input for %d ticks\n", a.StepsToWall)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
