// Package websocket provides the WebSocket push feed for the snake server.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - Periodic view pushes to every connected client
//   - Immediate pushes after a request changes a game (Refresh)
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub goroutine owns
// all client bookkeeping. Each connection has a read pump, which only keeps
// the connection alive and detects disconnects, and a write pump.
//
// Message Protocol:
//
// Every frame is one JSON object:
//
//	{"session_id": "...", "event": "state_update", "view": {...}}
//
// where view is the engine.View of the session: dimensions, cell tags,
// score, status and direction.
//
// Usage:
//
//	hub := websocket.NewHub(renderLiveSession, websocket.DefaultPushInterval, logger)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, sessionID)
//	})
//
// Lifecycle:
//
// A client is registered on upgrade and immediately receives the current
// view. It is dropped when the peer disconnects, when its send buffer
// overflows, or when the hub's context ends.
package websocket
