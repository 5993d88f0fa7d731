package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/snake-api/game/engine"
)

// DefaultStoreTimeout bounds a single store call made by BestEffortStore.
const DefaultStoreTimeout = 2 * time.Second

// BestEffortStore wraps a SnapshotStore so that its failures never reach
// the game. Reads and deletes swallow failures; writes report them as
// ErrStoreUnavailable. The first failure logs a degraded-mode warning and the first
// success after that logs recovery; individual failures are not logged.
type BestEffortStore struct {
	inner   SnapshotStore
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	degraded bool
}

// NewBestEffortStore wraps inner. A zero timeout uses DefaultStoreTimeout.
func NewBestEffortStore(inner SnapshotStore, timeout time.Duration, logger *zap.Logger) *BestEffortStore {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BestEffortStore{inner: inner, timeout: timeout, logger: logger}
}

// Get returns ErrSnapshotNotFound for any failure, so callers start fresh.
func (s *BestEffortStore) Get(ctx context.Context, id string) (*engine.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap, err := s.inner.Get(ctx, id)
	if errors.Is(err, ErrSnapshotNotFound) {
		s.observe(nil)
		return nil, ErrSnapshotNotFound
	}
	s.observe(err)
	if err != nil {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// Put returns ErrStoreUnavailable when the write failed, so callers know
// the snapshot still needs writing. The failure itself is only logged on the
// transition into degraded mode.
func (s *BestEffortStore) Put(ctx context.Context, id string, snap *engine.Snapshot, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.inner.Put(ctx, id, snap, ttl)
	s.observe(err)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Delete swallows store failures but still reports a missing entry.
func (s *BestEffortStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.inner.Delete(ctx, id)
	if errors.Is(err, ErrSnapshotNotFound) {
		s.observe(nil)
		return ErrSnapshotNotFound
	}
	s.observe(err)
	return nil
}

// Degraded reports whether the last store call failed.
func (s *BestEffortStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *BestEffortStore) observe(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case err != nil && !s.degraded:
		s.degraded = true
		s.logger.Warn("snapshot store unavailable, running in degraded mode", zap.Error(err))
	case err == nil && s.degraded:
		s.degraded = false
		s.logger.Info("snapshot store recovered")
	}
}
