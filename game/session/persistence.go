package session

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/snake-api/game/engine"
)

// DefaultSnapshotTTL is how long a stored snapshot outlives its last write.
const DefaultSnapshotTTL = 24 * time.Hour

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrStoreUnavailable marks a write that BestEffortStore could not
	// complete. It is already reported through the degraded-mode log.
	ErrStoreUnavailable = errors.New("snapshot store unavailable")
)

// SnapshotStore persists game snapshots keyed by session ID.
//
// Get returns ErrSnapshotNotFound for missing or expired entries. Put
// overwrites any previous value and refreshes the TTL.
type SnapshotStore interface {
	Get(ctx context.Context, id string) (*engine.Snapshot, error)
	Put(ctx context.Context, id string, snap *engine.Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// SnapshotLister is implemented by stores that can enumerate their keys.
type SnapshotLister interface {
	ListAll(ctx context.Context) ([]string, error)
}
