package service

import (
	"context"

	"github.com/wricardo/snake-api/game/engine"
	"github.com/wricardo/snake-api/game/session"
)

// GameService defines all game-related operations. Every call names the
// session it acts on; unknown sessions are created on first use.
type GameService interface {
	// Game Operations
	Start(ctx context.Context, sessionID string) (*ActionResult, error)
	Pause(ctx context.Context, sessionID string) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string) (*ActionResult, error)
	Move(ctx context.Context, sessionID, direction string) (*ActionResult, error)

	// Game State
	Render(ctx context.Context, sessionID string) (*engine.View, error)
	Status(ctx context.Context, sessionID string) (*StatusResult, error)

	// Session Management
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
}

// SessionManager is the subset of session.Manager the service needs
type SessionManager interface {
	Resolve(ctx context.Context, id string) (*session.Session, error)
	List() []*session.Session
	Delete(ctx context.Context, id string) error
}

// ConfigManager handles game mode listing
type ConfigManager interface {
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
}
