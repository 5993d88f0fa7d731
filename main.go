// Command snake-api serves the session-isolated snake game.
//
// Subcommands:
//  1. "serve" (default) – runs the HTTP server exposing the game routes, SSE
//     and WebSocket feeds, the admin API and an /mcp endpoint
//  2. "mcp" – runs an MCP stdio server against an existing API, or an internal
//     one when none answers
//  3. "validate" – checks every game mode file in the config directory
//  4. "inspect" – prints a stored session snapshot
//
// Every flag can also be set through a SNAKE_* environment variable or a .env
// file in the working directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Snake Server"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}
