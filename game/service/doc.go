// Package service provides the business logic layer for the snake server.
//
// The service package implements:
//   - Game operations (start, pause, reset, move) for one session at a time
//   - Rendering and status queries
//   - Session listing and deletion
//   - Game mode listing
//
// Core Interfaces:
//
// GameService is the main service interface used by the HTTP API, the
// websocket hub and the MCP tools. SessionManager is the registry it resolves
// sessions through, satisfied by session.Manager. ConfigManager lists game
// modes, satisfied by config.Manager.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/SSE/WebSocket/MCP)
// and the session registry. It parses and validates client input, applies
// the per-session move rate limit and shapes results for the wire. Locking and
// persistence are owned by the session package.
//
// Usage:
//
//	sessions, _ := session.NewManager(cfg)
//	configs, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessions, configs, logger)
//
//	if _, err := gameService.Start(ctx, sessionID); err != nil {
//		return err
//	}
//	_, err := gameService.Move(ctx, sessionID, "up")
//	view, err := gameService.Render(ctx, sessionID)
package service
