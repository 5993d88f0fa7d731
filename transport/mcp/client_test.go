package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/snake-api/game/engine"
	"github.com/wricardo/snake-api/game/service"
)

// fakeAPI records proxied requests and answers like the REST server.
type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	sessions []string
	bodies   []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.sessions = append(f.sessions, r.Header.Get(sessionHeader))
	f.bodies = append(f.bodies, body["direction"])
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/start", "/pause", "/reset":
		json.NewEncoder(w).Encode(service.ActionResult{Status: "ok", Changed: true, GameStatus: engine.StatusRunning, Score: 3})
	case "/move":
		if body["direction"] == "north" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": `invalid direction: "north"`})
			return
		}
		json.NewEncoder(w).Encode(service.ActionResult{Status: "ok", Changed: true, GameStatus: engine.StatusRunning})
	case "/render":
		if r.URL.Query().Get("format") != "json" {
			w.WriteHeader(http.StatusNotAcceptable)
			return
		}
		e, h, b, f := engine.CellEmpty, engine.CellHead, engine.CellBody, engine.CellFood
		json.NewEncoder(w).Encode(engine.View{
			Width: 3, Height: 2,
			Cells:     [][]engine.CellTag{{b, h, e}, {e, e, f}},
			Score:     1,
			Status:    engine.StatusOver,
			Direction: engine.Right,
			Length:    2,
		})
	case "/status":
		json.NewEncoder(w).Encode(service.StatusResult{Started: true, Status: engine.StatusPaused, Score: 7})
	case "/api/configs":
		json.NewEncoder(w).Encode([]*service.ConfigInfo{
			{ConfigID: "classic", Name: "Classic", Width: 20, Height: 20, TickIntervalMs: 300},
			{ConfigID: "speed_ramp", Name: "Speed Ramp", Width: 20, Height: 20, TickIntervalMs: 300, SpeedRamp: true, Description: "gets faster"},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", zaptest.NewLogger(t)), api
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/snake-api/", nil)

	assert.Equal(t, "http://localhost:8080/snake-api", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.GetMCPServer())
	assert.NotNil(t, client.logger)
}

func TestClient_Actions(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	for _, action := range []string{"start", "pause", "reset"} {
		result, err := client.actionHandler(action)(ctx, callRequest(action+"_game", map[string]interface{}{"session_id": "s1"}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		text := resultText(t, result)
		assert.Contains(t, text, action+": applied")
		assert.Contains(t, text, "Score: 3")
	}

	assert.Equal(t, []string{"POST /start", "POST /pause", "POST /reset"}, api.requests)
	assert.Equal(t, []string{"s1", "s1", "s1"}, api.sessions)
}

func TestClient_RequiresSession(t *testing.T) {
	client, api := newTestClient(t)

	result, err := client.handleRender(context.Background(), callRequest("render_game", map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "session_id is required")

	result, err = client.handleStatus(context.Background(), callRequest("game_status", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	assert.Empty(t, api.requests)
}

func TestClient_Move(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	result, err := client.handleMove(ctx, callRequest("move", map[string]interface{}{"session_id": "s1", "direction": "up"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "move up: applied")
	assert.Equal(t, []string{"up"}, api.bodies)

	result, err = client.handleMove(ctx, callRequest("move", map[string]interface{}{"session_id": "s1", "direction": "north"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid direction")

	result, err = client.handleMove(ctx, callRequest("move", map[string]interface{}{"session_id": "s1"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Len(t, api.requests, 2, "missing direction is rejected locally")
}

func TestClient_Render(t *testing.T) {
	client, api := newTestClient(t)

	result, err := client.handleRender(context.Background(), callRequest("render_game", map[string]interface{}{"session_id": "s2"}))
	require.NoError(t, err)
	text := resultText(t, result)

	assert.Contains(t, text, "oH.\n..*\n")
	assert.Contains(t, text, "Score: 1")
	assert.Contains(t, text, "GAME OVER!")
	assert.Equal(t, []string{"s2"}, api.sessions)
}

func TestClient_Status(t *testing.T) {
	client, _ := newTestClient(t)

	result, err := client.handleStatus(context.Background(), callRequest("game_status", map[string]interface{}{"session_id": "s1"}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Started: true")
	assert.Contains(t, text, "Status: paused")
	assert.Contains(t, text, "Score: 7")
}

func TestClient_ListConfigs(t *testing.T) {
	client, api := newTestClient(t)

	result, err := client.handleListConfigs(context.Background(), callRequest("list_configs", nil))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Available Game Modes (2)")
	assert.Contains(t, text, "classic: Classic (20x20, 300ms, fixed speed)")
	assert.Contains(t, text, "speed_ramp: Speed Ramp (20x20, 300ms, speed ramp)")
	assert.Equal(t, []string{""}, api.sessions)
}

func TestClient_APIUnavailable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", zaptest.NewLogger(t))

	result, err := client.actionHandler("start")(context.Background(), callRequest("start_game", map[string]interface{}{"session_id": "s1"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestFormatView(t *testing.T) {
	view := &engine.View{
		Cells:  [][]engine.CellTag{{engine.CellEmpty, engine.CellHead}},
		Status: engine.StatusNotStarted,
	}
	text := formatView(view)
	assert.Contains(t, text, ".H\n")
	assert.Contains(t, text, "Use start_game to begin.")
	assert.NotContains(t, text, "GAME OVER!")
}

func TestClient_ServeHTTP(t *testing.T) {
	client, _ := newTestClient(t)

	t.Run("tools/list", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
		req := httptest.NewRequest("POST", "/mcp", strings.NewReader(body))
		w := httptest.NewRecorder()
		client.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		for _, name := range []string{"render_game", "start_game", "pause_game", "reset_game", "move", "game_status", "list_configs"} {
			assert.Contains(t, w.Body.String(), `"`+name+`"`)
		}
	})

	t.Run("tools/call", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"game_status","arguments":{"session_id":"s1"}}}`
		req := httptest.NewRequest("POST", "/mcp", strings.NewReader(body))
		w := httptest.NewRecorder()
		client.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Score: 7")
	})

	t.Run("wrong method", func(t *testing.T) {
		w := httptest.NewRecorder()
		client.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
