package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/snake-api/game/engine"
	"github.com/wricardo/snake-api/game/service"
)

// sessionHeader carries the caller's session on proxied requests.
const sessionHeader = "X-Session-ID"

// maxMessageSize bounds a JSON-RPC request read by ServeHTTP.
const maxMessageSize = 1 << 20

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	logger     *zap.Logger
}

// NewClient creates a new MCP client that calls the REST API rooted at
// baseURL (including any path base).
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Snake",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Snake - MCP Interface

This is a thin client that proxies all requests to the REST API server.
Every game tool takes a session_id; pick any identifier and reuse it to
keep playing the same game.

GAME OBJECTIVE:
Steer the snake (H) to the food (*). Each food grows the snake by one and
scores a point. Hitting a wall or your own body (o) ends the game.

AVAILABLE TOOLS:
- start_game: Start a fresh game
- pause_game: Pause or resume
- reset_game: Return to the initial state without starting
- move: Queue a direction (up/down/left/right); reversing is ignored
- render_game: Show the board
- game_status: Show status and score
- list_configs: List available game modes

The snake keeps moving on its own while the game runs; call render_game to
see where it is now.`),
	)

	c.registerTools()
}

func sessionOnlySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": map[string]interface{}{
				"type":        "string",
				"description": "Session ID",
			},
		},
		Required: []string{"session_id"},
	}
}

func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "render_game",
		Description: "Render the current board as text",
		InputSchema: sessionOnlySchema(),
	}, c.handleRender)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start a fresh game in the session",
		InputSchema: sessionOnlySchema(),
	}, c.actionHandler("start"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pause_game",
		Description: "Toggle pause on the running game",
		InputSchema: sessionOnlySchema(),
	}, c.actionHandler("pause"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to its initial, not started state",
		InputSchema: sessionOnlySchema(),
	}, c.actionHandler("reset"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Queue the snake's next direction",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "Direction to turn",
					"enum":        []string{"up", "down", "left", "right"},
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_status",
		Description: "Get whether the game has started, its status and score",
		InputSchema: sessionOnlySchema(),
	}, c.handleStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game modes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeHTTP answers one JSON-RPC message per POST.
func (c *Client) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}

	response := c.mcpServer.HandleMessage(r.Context(), body)
	if response == nil {
		// notifications have no response
		w.WriteHeader(http.StatusAccepted)
		return
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(responseData)
}

// ServeStdio runs the MCP server over stdin/stdout until it exits.
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}

func (c *Client) apiCall(ctx context.Context, method, path, sessionID string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(sessionHeader, sessionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

func requireSession(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	sessionID, _ := arguments(request)["session_id"].(string)
	if sessionID == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return sessionID, nil
}

// Tool handlers

func (c *Client) actionHandler(action string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, errResult := requireSession(request)
		if errResult != nil {
			return errResult, nil
		}

		var result service.ActionResult
		if err := c.apiCall(ctx, "POST", "/"+action, sessionID, nil, &result); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(formatActionResult(action, &result)), nil
	}
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(request)
	if errResult != nil {
		return errResult, nil
	}
	direction, _ := arguments(request)["direction"].(string)
	if direction == "" {
		return mcp.NewToolResultError("direction is required"), nil
	}

	body := map[string]string{"direction": direction}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", "/move", sessionID, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult("move "+direction, &result)), nil
}

func (c *Client) handleRender(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var view engine.View
	path := "/render?" + url.Values{"format": {"json"}}.Encode()
	if err := c.apiCall(ctx, "GET", path, sessionID, nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatView(&view)), nil
}

func (c *Client) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var status service.StatusResult
	if err := c.apiCall(ctx, "GET", "/status", sessionID, nil, &status); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Started: %t\nStatus: %s\nScore: %d\n", status.Started, status.Status, status.Score)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []*service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", "", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available Game Modes (%d):\n\n", len(configs))
	for _, cfg := range configs {
		ramp := "fixed speed"
		if cfg.SpeedRamp {
			ramp = "speed ramp"
		}
		fmt.Fprintf(&b, "- %s: %s (%dx%d, %dms, %s)\n", cfg.ConfigID, cfg.Name, cfg.Width, cfg.Height, cfg.TickIntervalMs, ramp)
		if cfg.Description != "" {
			fmt.Fprintf(&b, "  %s\n", cfg.Description)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

func formatActionResult(action string, result *service.ActionResult) string {
	changed := "no change"
	if result.Changed {
		changed = "applied"
	}
	return fmt.Sprintf("%s: %s\nStatus: %s\nScore: %d\n", action, changed, result.GameStatus, result.Score)
}

var cellChars = map[engine.CellTag]byte{
	engine.CellEmpty: '.',
	engine.CellHead:  'H',
	engine.CellBody:  'o',
	engine.CellFood:  '*',
}

// formatView draws the board as text, one row per line.
//
// Legend: H = head, o = body, * = food, . = empty
func formatView(view *engine.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Score: %d | Length: %d | Status: %s | Heading: %s\n\n", view.Score, view.Length, view.Status, view.Direction)

	for _, row := range view.Cells {
		for _, cell := range row {
			ch, ok := cellChars[cell]
			if !ok {
				ch = '?'
			}
			b.WriteByte(ch)
		}
		b.WriteByte('\n')
	}

	switch view.Status {
	case engine.StatusOver:
		b.WriteString("\nGAME OVER! Use start_game to play again.\n")
	case engine.StatusNotStarted:
		b.WriteString("\nUse start_game to begin.\n")
	case engine.StatusPaused:
		b.WriteString("\nPaused. Use pause_game to resume.\n")
	}
	b.WriteString("\nLegend: H = head, o = body, * = food, . = empty\n")
	return b.String()
}
