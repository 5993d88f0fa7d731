package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wricardo/snake-api/game/engine"
	"github.com/wricardo/snake-api/game/session"
)

var ErrRateLimited = errors.New("too many moves")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *zap.Logger
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, logger *zap.Logger) GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger,
	}
}

func (s *gameServiceImpl) resolve(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return sess, nil
}

func actionResult(sess *session.Session, changed bool) *ActionResult {
	state := sess.State()
	return &ActionResult{
		Status:     "ok",
		Changed:    changed,
		GameStatus: state.Status,
		Score:      state.Score,
	}
}

// Start begins the session's game if it has not started yet
func (s *gameServiceImpl) Start(ctx context.Context, sessionID string) (*ActionResult, error) {
	sess, err := s.resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	changed := sess.Start(ctx)
	if changed {
		s.logger.Debug("game started", zap.String("session_id", sessionID))
	}
	return actionResult(sess, changed), nil
}

// Pause toggles between running and paused
func (s *gameServiceImpl) Pause(ctx context.Context, sessionID string) (*ActionResult, error) {
	sess, err := s.resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return actionResult(sess, sess.TogglePause(ctx)), nil
}

// Reset returns the session's game to its initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*ActionResult, error) {
	sess, err := s.resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.Reset(ctx)
	s.logger.Debug("game reset", zap.String("session_id", sessionID))
	return &ActionResult{Status: "ok", Changed: true, GameStatus: state.Status, Score: state.Score}, nil
}

// Move queues a direction change. Invalid input leaves the game untouched.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string) (*ActionResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	sess, err := s.resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.AllowMove() {
		return nil, ErrRateLimited
	}
	return actionResult(sess, sess.SetDirection(ctx, dir)), nil
}

// Render returns the current view of the session's game
func (s *gameServiceImpl) Render(ctx context.Context, sessionID string) (*engine.View, error) {
	sess, err := s.resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Render(), nil
}

// Status reports whether the session's game has been started
func (s *gameServiceImpl) Status(ctx context.Context, sessionID string) (*StatusResult, error) {
	sess, err := s.resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.State()
	return &StatusResult{
		Started: state.Status != engine.StatusNotStarted,
		Status:  state.Status,
		Score:   state.Score,
	}, nil
}

// ListSessions returns all live sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		state := sess.State()
		result = append(result, &SessionInfo{
			ID:             sess.ID,
			Mode:           sess.Config.Name,
			Status:         state.Status,
			Score:          state.Score,
			Length:         len(state.Snake),
			CreatedAt:      sess.CreatedAt,
			LastAccessedAt: sess.LastAccessed(),
		})
	}

	return result, nil
}

// DeleteSession stops a session and forgets its stored state
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// ListConfigs returns all available game modes
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}
