// Package mcp exposes the snake game to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST request against
// the API server, carrying the tool's session_id in the X-Session-ID header.
// It can be served over stdio (ServeStdio) or mounted as an HTTP handler that
// answers one JSON-RPC message per POST.
//
// MCP Tools:
//   - render_game: Board as text (H head, o body, * food, . empty)
//   - start_game: Start a fresh game
//   - pause_game: Toggle pause
//   - reset_game: Return to the initial state
//   - move: Queue a direction
//   - game_status: Started flag, status and score
//   - list_configs: Available game modes
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", logger)
//	if err := client.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
package mcp
