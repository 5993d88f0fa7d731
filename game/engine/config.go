package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultGameConfig returns the canonical 20x20 mode: start at (10,10),
// first food at (15,15), 300ms ticks, no speed ramp.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:              "classic",
		Description:       "Classic 20x20 snake with a fixed tick",
		Width:             DefaultGridSize,
		Height:            DefaultGridSize,
		Start:             Position{X: 10, Y: 10},
		Food:              Position{X: 15, Y: 15},
		TickIntervalMs:    DefaultTickIntervalMs,
		MinTickIntervalMs: DefaultMinTickIntervalMs,
		IntervalDecrement: DefaultIntervalDecrement,
		SpeedRamp:         false,
	}
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.Width < MinGridSize || config.Width > MaxGridSize {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Width)
	}
	if config.Height < MinGridSize || config.Height > MaxGridSize {
		return fmt.Errorf("config validation: height must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Height)
	}

	inBounds := func(p Position) bool {
		return p.X >= 0 && p.X < config.Width && p.Y >= 0 && p.Y < config.Height
	}
	if !inBounds(config.Start) {
		return fmt.Errorf("config validation: start (%d,%d) is outside the %dx%d grid",
			config.Start.X, config.Start.Y, config.Width, config.Height)
	}
	if !inBounds(config.Food) {
		return fmt.Errorf("config validation: food (%d,%d) is outside the %dx%d grid",
			config.Food.X, config.Food.Y, config.Width, config.Height)
	}
	if config.Start == config.Food {
		return fmt.Errorf("config validation: start and food must be different cells")
	}

	if config.TickIntervalMs <= 0 {
		return fmt.Errorf("config validation: tick_interval_ms must be positive, got %d", config.TickIntervalMs)
	}
	if config.SpeedRamp {
		if config.IntervalDecrement <= 0 {
			return fmt.Errorf("config validation: interval_decrement_ms must be positive when speed_ramp is enabled")
		}
		if config.MinTickIntervalMs <= 0 || config.MinTickIntervalMs > config.TickIntervalMs {
			return fmt.Errorf("config validation: min_tick_interval_ms must be between 1 and tick_interval_ms (%d), got %d",
				config.TickIntervalMs, config.MinTickIntervalMs)
		}
	}

	return nil
}

// LoadConfigFromFile reads and validates a game mode from a JSON file.
func LoadConfigFromFile(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
