package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/snake-api/game/engine"
)

func testView(score int) *engine.View {
	return &engine.View{
		Width:  5,
		Height: 5,
		Score:  score,
		Status: engine.StatusRunning,
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil, 0, nil)

	require.NotNil(t, hub)
	assert.NotNil(t, hub.sessions)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.Equal(t, DefaultPushInterval, hub.interval)
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(nil, 0, nil)

	client := &Client{
		hub:       hub,
		sessionID: "test-session",
		send:      make(chan []byte, 256),
	}

	hub.registerClient(client)

	require.Contains(t, hub.sessions, "test-session")
	assert.True(t, hub.sessions["test-session"][client])
	assert.Len(t, hub.sessions["test-session"], 1)
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub(nil, 0, nil)

	client := &Client{
		hub:       hub,
		sessionID: "test-session",
		send:      make(chan []byte, 256),
	}

	hub.registerClient(client)
	hub.unregisterClient(client)

	assert.NotContains(t, hub.sessions, "test-session", "empty sessions are removed")

	_, ok := <-client.send
	assert.False(t, ok, "send channel is closed")

	// Unregistering twice is harmless.
	hub.unregisterClient(client)
}

func TestHubPushSession(t *testing.T) {
	hub := NewHub(func(ctx context.Context, sessionID string) (*engine.View, error) {
		if sessionID == "broken" {
			return nil, errors.New("render failed")
		}
		return testView(7), nil
	}, 0, zaptest.NewLogger(t))

	a := &Client{hub: hub, sessionID: "a", send: make(chan []byte, 4)}
	b := &Client{hub: hub, sessionID: "b", send: make(chan []byte, 4)}
	broken := &Client{hub: hub, sessionID: "broken", send: make(chan []byte, 4)}
	hub.registerClient(a)
	hub.registerClient(b)
	hub.registerClient(broken)

	hub.pushSession(context.Background(), "a")
	hub.pushSession(context.Background(), "broken")

	require.Len(t, a.send, 1)
	assert.Len(t, b.send, 0, "pushes are scoped to one session")
	assert.Len(t, broken.send, 0)

	var msg Message
	require.NoError(t, json.Unmarshal(<-a.send, &msg))
	assert.Equal(t, "a", msg.SessionID)
	assert.Equal(t, "state_update", msg.Event)
	require.NotNil(t, msg.View)
	assert.Equal(t, 7, msg.View.Score)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(func(ctx context.Context, sessionID string) (*engine.View, error) {
		return testView(0), nil
	}, 0, nil)

	slow := &Client{hub: hub, sessionID: "a", send: make(chan []byte, 1)}
	hub.registerClient(slow)

	hub.pushSession(context.Background(), "a")
	hub.pushSession(context.Background(), "a")

	assert.NotContains(t, hub.sessions, "a")
}

func TestHubServeWS(t *testing.T) {
	var renders atomic.Int32
	hub := NewHub(func(ctx context.Context, sessionID string) (*engine.View, error) {
		return testView(int(renders.Add(1))), nil
	}, 10*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session_id"))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session_id=abc"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// First frame arrives on registration, later ones on the interval.
	var last int
	for i := 0; i < 3; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "abc", msg.SessionID)
		require.NotNil(t, msg.View)
		assert.Greater(t, msg.View.Score, last)
		last = msg.View.Score
	}

	hub.Refresh("abc")
	hub.BroadcastEvent("abc", "notice", "hello")

	sawEvent := false
	for i := 0; i < 10 && !sawEvent; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		sawEvent = msg.Event == "notice"
	}
	assert.True(t, sawEvent)

	// Stopping the hub closes the connection.
	cancel()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
