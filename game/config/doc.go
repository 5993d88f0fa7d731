// Package config provides game mode management for the snake server.
//
// The config package handles:
//   - Loading game modes from JSON files
//   - Validation through engine.ValidateGameConfig
//   - Default mode selection with a built-in fallback
//   - Mode discovery and listing
//
// Configuration Format:
//
// Each mode is a JSON file in the configs directory describing the grid
// dimensions, the start and first food cells, the base tick interval and the
// optional speed ramp (interval decrement and floor).
//
// Available Configurations:
//   - classic: 20x20 grid, fixed 300ms tick
//   - speed_ramp: 20x20 grid, 300ms tick shortened by 10ms per food down to 100ms
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("speed_ramp")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
package config
