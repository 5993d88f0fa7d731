package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"

	"github.com/wricardo/snake-api/game/engine"
	"github.com/wricardo/snake-api/game/service"
	"github.com/wricardo/snake-api/game/session"
)

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs []*service.ConfigInfo
	err     error
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	return m.configs, m.err
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return createTestConfig()
}

func createTestConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:              "test",
		Description:       "Test configuration",
		Width:             10,
		Height:            10,
		Start:             engine.Position{X: 5, Y: 5},
		Food:              engine.Position{X: 8, Y: 8},
		TickIntervalMs:    1000,
		MinTickIntervalMs: 100,
		IntervalDecrement: 10,
	}
}

func newTestService(t *testing.T, opts ...session.Option) (service.GameService, *session.Manager) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sessions, err := session.NewManager(createTestConfig(), append([]session.Option{session.WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close(context.Background()) })

	configs := &MockConfigManager{configs: []*service.ConfigInfo{{ConfigID: "test", Name: "test", Width: 10, Height: 10}}}
	return service.NewGameService(sessions, configs, logger), sessions
}

func TestGameService_Lifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	status, err := svc.Status(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, status.Started)
	assert.Equal(t, engine.StatusNotStarted, status.Status)

	res, err := svc.Start(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Status)
	assert.True(t, res.Changed)
	assert.Equal(t, engine.StatusRunning, res.GameStatus)

	res, err = svc.Start(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, res.Changed, "second start is a no-op")

	res, err = svc.Pause(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, engine.StatusPaused, res.GameStatus)

	status, err = svc.Status(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, status.Started)

	res, err = svc.Pause(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, engine.StatusRunning, res.GameStatus)

	res, err = svc.Reset(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, engine.StatusNotStarted, res.GameStatus)
	assert.Equal(t, 0, res.Score)
}

func TestGameService_Move(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("valid direction", func(t *testing.T) {
		res, err := svc.Move(ctx, "s1", "up")
		require.NoError(t, err)
		assert.True(t, res.Changed)

		view, err := svc.Render(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, engine.Up, view.Direction)
	})

	t.Run("reverse is ignored", func(t *testing.T) {
		res, err := svc.Move(ctx, "s1", "down")
		require.NoError(t, err)
		assert.False(t, res.Changed)
	})

	t.Run("invalid direction", func(t *testing.T) {
		for _, dir := range []string{"", "north", "UP"} {
			_, err := svc.Move(ctx, "s1", dir)
			assert.ErrorIs(t, err, engine.ErrInvalidDirection, "direction %q", dir)
		}

		view, err := svc.Render(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, engine.Up, view.Direction, "invalid input leaves the game unchanged")
	})
}

func TestGameService_MoveRateLimited(t *testing.T) {
	svc, _ := newTestService(t, session.WithMoveLimit(rate.Every(time.Hour), 1))
	ctx := context.Background()

	_, err := svc.Move(ctx, "s1", "up")
	require.NoError(t, err)

	_, err = svc.Move(ctx, "s1", "left")
	assert.ErrorIs(t, err, service.ErrRateLimited)
}

func TestGameService_SessionIsolation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, "a")
	require.NoError(t, err)

	status, err := svc.Status(ctx, "b")
	require.NoError(t, err)
	assert.False(t, status.Started, "starting one session must not affect another")
}

func TestGameService_Render(t *testing.T) {
	svc, _ := newTestService(t)

	view, err := svc.Render(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 10, view.Width)
	assert.Equal(t, 10, view.Height)
	assert.Equal(t, engine.CellHead, view.Cells[5][5])
	assert.Equal(t, engine.CellFood, view.Cells[8][8])
	assert.Equal(t, 1, view.Length)
}

func TestGameService_InvalidSession(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Render(context.Background(), "")
	assert.ErrorIs(t, err, session.ErrInvalidSessionID)

	_, err = svc.Start(context.Background(), "bad id")
	assert.ErrorIs(t, err, session.ErrInvalidSessionID)
}

func TestGameService_ListAndDeleteSessions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, "b")
	require.NoError(t, err)
	_, err = svc.Render(ctx, "a")
	require.NoError(t, err)

	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "a", sessions[0].ID)
	assert.Equal(t, "test", sessions[0].Mode)
	assert.Equal(t, engine.StatusRunning, sessions[1].Status)
	assert.Equal(t, 1, sessions[1].Length)

	require.NoError(t, svc.DeleteSession(ctx, "a"))
	assert.ErrorIs(t, svc.DeleteSession(ctx, "a"), session.ErrSessionNotFound)

	sessions, err = svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestGameService_ListConfigs(t *testing.T) {
	svc, _ := newTestService(t)

	configs, err := svc.ListConfigs(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "test", configs[0].ConfigID)

	failing := service.NewGameService(nil, &MockConfigManager{err: errors.New("boom")}, nil)
	_, err = failing.ListConfigs(context.Background())
	assert.Error(t, err)
}
