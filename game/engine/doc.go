// Package engine provides the core game logic for the snake server.
//
// The engine package implements:
//   - Grid movement with wall and self collision
//   - Food placement, growth and scoring
//   - The not-started / running / paused / over lifecycle
//   - An optional speed ramp that shortens the tick interval as the score grows
//   - Snapshot and restore for persistence
//
// Core Types:
//
// Engine owns one GameState and the GameConfig it was built from. View is a
// read-only projection used for rendering, and Snapshot is the serialized
// form written to a snapshot store.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.Start()
//	gameEngine.SetDirection(engine.Up)
//	result := gameEngine.Advance()
//	view := gameEngine.Render()
//
// Concurrency:
//
// An Engine is not safe for concurrent use. The session package wraps each
// engine in a Session that serializes ticks and requests behind one lock.
package engine
