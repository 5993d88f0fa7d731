package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wricardo/snake-api/game/engine"
)

// Session is one client's game: an engine, the driver that ticks it and the
// lock that serializes every engine call. Store writes happen outside the
// lock from a snapshot copied under it.
type Session struct {
	ID        string
	Config    *engine.GameConfig
	CreatedAt time.Time

	mu           sync.Mutex
	engine       *engine.Engine
	version      uint64
	lastAccessed time.Time

	store  SnapshotStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	writeMu   sync.Mutex
	persisted uint64

	limiter *rate.Limiter

	driver      *Driver
	started     bool
	dirty       chan struct{}
	stopPersist chan struct{}
	persistDone chan struct{}
	haltOnce    sync.Once
	closeOnce   sync.Once
}

func newSession(id string, config *engine.GameConfig, eng *engine.Engine, m *Manager) *Session {
	now := m.now()
	s := &Session{
		ID:           id,
		Config:       config,
		CreatedAt:    now,
		engine:       eng,
		lastAccessed: now,
		store:        m.store,
		ttl:          m.ttl,
		logger:       m.logger.With(zap.String("session_id", id)),
		now:          m.now,
	}
	if m.moveRate > 0 {
		s.limiter = rate.NewLimiter(m.moveRate, m.moveBurst)
	}
	s.driver = NewDriver(eng.TickInterval(), s.tick)
	if s.store != nil {
		s.dirty = make(chan struct{}, 1)
		s.stopPersist = make(chan struct{})
		s.persistDone = make(chan struct{})
	}
	return s
}

// Start begins a fresh game.
func (s *Session) Start(ctx context.Context) bool {
	return s.apply(ctx, func(e *engine.Engine) bool { return e.Start() })
}

// TogglePause flips between running and paused.
func (s *Session) TogglePause(ctx context.Context) bool {
	return s.apply(ctx, func(e *engine.Engine) bool { return e.TogglePause() })
}

// Reset returns the game to its initial state.
func (s *Session) Reset(ctx context.Context) *engine.GameState {
	var state *engine.GameState
	s.apply(ctx, func(e *engine.Engine) bool {
		state = e.Reset()
		return true
	})
	return state
}

// SetDirection queues a heading for the next tick.
func (s *Session) SetDirection(ctx context.Context, d engine.Direction) bool {
	return s.apply(ctx, func(e *engine.Engine) bool { return e.SetDirection(d) })
}

// Render returns the current view.
func (s *Session) Render() *engine.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Render()
}

// State returns a copy of the engine state.
func (s *Session) State() *engine.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.GetState()
}

// Status returns the lifecycle status.
func (s *Session) Status() engine.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Status()
}

// Snapshot copies the persisted projection together with its version.
func (s *Session) Snapshot() (*engine.Snapshot, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot(), s.version
}

// AllowMove reports whether a direction change fits the session's rate limit.
func (s *Session) AllowMove() bool {
	if s.limiter == nil {
		return true
	}
	return s.limiter.Allow()
}

// Touch records client activity for idle eviction.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastAccessed = s.now()
	s.mu.Unlock()
}

// LastAccessed returns the time of the last client activity.
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

// Flush writes the current state if it is newer than what the store holds.
func (s *Session) Flush(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snap, version := s.Snapshot()
	return s.write(ctx, snap, version)
}

func (s *Session) apply(ctx context.Context, fn func(*engine.Engine) bool) bool {
	s.mu.Lock()
	changed := fn(s.engine)
	var snap *engine.Snapshot
	var version uint64
	if changed {
		s.version++
		version = s.version
		if s.store != nil {
			snap = s.engine.Snapshot()
		}
	}
	s.lastAccessed = s.now()
	s.mu.Unlock()

	if snap != nil {
		if err := s.write(ctx, snap, version); err != nil {
			s.logWriteError("failed to persist snapshot", err, zap.Uint64("version", version))
		}
	}
	return changed
}

// write serializes store writes and drops any older than the last one
// persisted, so concurrent writers converge on the newest state.
func (s *Session) write(ctx context.Context, snap *engine.Snapshot, version uint64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if version <= s.persisted {
		return nil
	}
	if err := s.store.Put(ctx, s.ID, snap, s.ttl); err != nil {
		return err
	}
	s.persisted = version
	return nil
}

// logWriteError keeps degraded-mode failures at debug level; the store
// already logged the outage once.
func (s *Session) logWriteError(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if errors.Is(err, ErrStoreUnavailable) {
		s.logger.Debug(msg, fields...)
		return
	}
	s.logger.Warn(msg, fields...)
}

func (s *Session) tick() time.Duration {
	s.mu.Lock()
	res := s.engine.Advance()
	changed := res.Moved || res.Collided
	if changed {
		s.version++
	}
	next := s.engine.TickInterval()
	status := s.engine.Status()
	score := s.engine.GetScore()
	s.mu.Unlock()

	if status == engine.StatusOver && changed {
		s.logger.Info("game over", zap.Int("score", score), zap.Bool("collided", res.Collided))
	}
	if changed {
		s.markDirty()
	}
	return next
}

func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// persistLoop writes tick-driven changes. Pending notifications coalesce
// into one write of the latest state.
func (s *Session) persistLoop() {
	defer close(s.persistDone)
	for {
		select {
		case <-s.stopPersist:
			return
		case <-s.dirty:
			if err := s.Flush(context.Background()); err != nil {
				s.logWriteError("failed to persist snapshot", err)
			}
		}
	}
}

func (s *Session) start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	if s.store != nil {
		go s.persistLoop()
	}
	s.driver.Start()
}

// shutdown stops the driver and persister without a final write.
func (s *Session) shutdown() {
	s.haltOnce.Do(func() {
		s.driver.Stop()
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started && s.stopPersist != nil {
			close(s.stopPersist)
			<-s.persistDone
		}
	})
}

// close stops the session and writes its final snapshot.
func (s *Session) close(ctx context.Context) {
	s.closeOnce.Do(func() {
		s.shutdown()
		if err := s.Flush(ctx); err != nil {
			s.logWriteError("failed to flush snapshot on close", err)
		}
	})
}
