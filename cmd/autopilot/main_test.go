package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/snake-api/api"
	"github.com/wricardo/snake-api/game/engine"
	"github.com/wricardo/snake-api/game/service"
	"github.com/wricardo/snake-api/game/session"
)

type staticConfigs struct {
	config *engine.GameConfig
}

func (s staticConfigs) ListConfigs() ([]*service.ConfigInfo, error) { return nil, nil }
func (s staticConfigs) GetDefault() *engine.GameConfig               { return s.config }

func TestPlay_EatsFood(t *testing.T) {
	config := &engine.GameConfig{
		Name:              "autopilot",
		Width:             10,
		Height:            10,
		Start:             engine.Position{X: 2, Y: 5},
		Food:              engine.Position{X: 7, Y: 5},
		TickIntervalMs:    20,
		MinTickIntervalMs: 10,
		IntervalDecrement: 1,
	}
	logger := zaptest.NewLogger(t)

	sessions, err := session.NewManager(config, session.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close(context.Background()) })

	svc := service.NewGameService(sessions, staticConfigs{config}, logger)
	srv := httptest.NewServer(api.NewServer(svc, nil, api.WithLogger(logger)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	view, err := Play(ctx, NewClient(srv.URL, "bot"), 2*time.Millisecond, logger)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.GreaterOrEqual(t, view.Score, 1)
}

func TestPlay_StopsWhenGameOver(t *testing.T) {
	var moves atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/start":
			w.Write([]byte(`{"status":"ok","changed":true}`))
		case "/render":
			w.Write([]byte(`{"width":2,"height":1,"cells":[["head","empty"]],"score":3,"status":"over","direction":"right","length":1}`))
		case "/move":
			moves.Add(1)
			w.Write([]byte(`{"status":"ok"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	view, err := Play(context.Background(), NewClient(srv.URL, "bot"), time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, engine.StatusOver, view.Status)
	assert.Equal(t, 3, view.Score)
	assert.Zero(t, moves.Load())
}

func TestPlay_StartFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Play(context.Background(), NewClient(srv.URL, "bot"), time.Millisecond, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestClient_SendsSessionHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Session-ID")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL+"/", "abc").Move(context.Background(), engine.Up))
	assert.Equal(t, "abc", got)
}
