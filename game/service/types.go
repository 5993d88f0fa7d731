package service

import (
	"time"

	"github.com/wricardo/snake-api/game/engine"
)

// ActionResult is returned by the mutating operations.
type ActionResult struct {
	Status     string        `json:"status"`
	Changed    bool          `json:"changed"`
	GameStatus engine.Status `json:"game_status"`
	Score      int           `json:"score"`
}

// StatusResult answers whether a session's game has been started
type StatusResult struct {
	Started bool          `json:"started"`
	Status  engine.Status `json:"status"`
	Score   int           `json:"score"`
}

// SessionInfo provides information about a live session
type SessionInfo struct {
	ID             string        `json:"id"`
	Mode           string        `json:"mode"`
	Status         engine.Status `json:"status"`
	Score          int           `json:"score"`
	Length         int           `json:"length"`
	CreatedAt      time.Time     `json:"created_at"`
	LastAccessedAt time.Time     `json:"last_accessed_at"`
}

// ConfigInfo provides information about a game mode
type ConfigInfo struct {
	Filename       string `json:"filename,omitempty"`
	ConfigID       string `json:"config_id"` // The identifier to pass to --mode
	Name           string `json:"name"`      // Display name
	Description    string `json:"description"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	TickIntervalMs int    `json:"tick_interval_ms"`
	SpeedRamp      bool   `json:"speed_ramp"`
}
