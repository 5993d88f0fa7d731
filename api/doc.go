// Package api provides the HTTP handlers of the snake server.
//
// Every game route acts on the caller's session. The session identifier is
// read from the X-Session-ID header, the session_id query parameter or the
// snake_session cookie; a request with none gets a new UUID issued as a
// cookie and echoed in the X-Session-ID response header.
//
// Endpoints:
//
// Game:
//   - GET /render - HTML board fragment; JSON view with ?format=json or Accept: application/json
//   - POST /start - Start a fresh game
//   - POST /pause - Toggle pause
//   - POST /reset - Return to the initial state
//   - POST /move - Queue a direction (form value, query or JSON {"direction": "up"})
//   - GET /status - {"started": bool, ...}
//   - GET /game-stream - Server-sent "gameUpdate" events carrying the HTML board
//   - GET /ws - WebSocket feed of JSON views
//
// Administration (only mounted with WithAdminToken, Bearer auth):
//   - GET /api/sessions - List live sessions
//   - DELETE /api/sessions/{id} - Stop a session and delete its snapshot
//
// Public:
//   - GET /api/configs - List game modes
//   - POST /mcp - MCP JSON-RPC endpoint (when configured)
//   - GET /healthz - Liveness probe
//
// All routes are also served under the optional path base.
//
// Error Handling:
//
// Errors are returned as JSON with an appropriate status code:
//
//	{"error": "invalid direction: \"north\""}
//
// 400 for bad input, 429 when the per-session move limit is exceeded, 404 for
// unknown sessions and 500 otherwise.
package api
