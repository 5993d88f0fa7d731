package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/wricardo/snake-api/game/engine"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSessionID = errors.New("invalid session ID")
	ErrManagerClosed    = errors.New("session manager closed")
)

const (
	maxSessionIDLength = 128

	// DefaultHydrateTimeout bounds the store read made when a session is created.
	DefaultHydrateTimeout = 2 * time.Second
)

// Option configures a Manager.
type Option func(*Manager)

// WithStore persists snapshots to store, each kept for ttl.
func WithStore(store SnapshotStore, ttl time.Duration) Option {
	return func(m *Manager) {
		m.store = store
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMoveLimit caps direction changes per session.
func WithMoveLimit(limit rate.Limit, burst int) Option {
	return func(m *Manager) {
		m.moveRate = limit
		m.moveBurst = burst
	}
}

// WithHydrateTimeout bounds the store read on session creation.
func WithHydrateTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.hydrateTimeout = d
		}
	}
}

// WithRandSource supplies a per-session random source for food placement.
func WithRandSource(fn func() *rand.Rand) Option {
	return func(m *Manager) {
		m.newRand = fn
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager is the session registry. It creates a session on first touch of
// an ID, hydrating it once from the snapshot store, and owns its driver
// until eviction or Close.
type Manager struct {
	config *engine.GameConfig

	store          SnapshotStore
	ttl            time.Duration
	hydrateTimeout time.Duration
	logger         *zap.Logger
	moveRate       rate.Limit
	moveBurst      int
	newRand        func() *rand.Rand
	now            func() time.Time

	sessions map[string]*Session
	closed   bool
	mu       sync.RWMutex
	group    singleflight.Group
}

// NewManager creates a registry whose sessions play the given game mode.
func NewManager(config *engine.GameConfig, opts ...Option) (*Manager, error) {
	if err := engine.ValidateGameConfig(config); err != nil {
		return nil, err
	}

	m := &Manager{
		config:         config,
		ttl:            DefaultSnapshotTTL,
		hydrateTimeout: DefaultHydrateTimeout,
		logger:         zap.NewNop(),
		now:            time.Now,
		sessions:       make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the game mode new sessions are created with.
func (m *Manager) Config() *engine.GameConfig {
	return m.config
}

// ValidateID checks that id is usable as a session key and a file name.
func ValidateID(id string) error {
	if id == "" || len(id) > maxSessionIDLength {
		return fmt.Errorf("%w: length must be 1-%d", ErrInvalidSessionID, maxSessionIDLength)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: unexpected character %q", ErrInvalidSessionID, r)
		}
	}
	if id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

// Resolve returns the session for id, creating it on first use. Concurrent
// first calls for one id share a single creation, so exactly one Session
// and one Driver ever exist per id.
func (m *Manager) Resolve(ctx context.Context, id string) (*Session, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	if s, ok := m.lookup(id); ok {
		s.Touch()
		return s, nil
	}

	v, err, _ := m.group.Do(id, func() (interface{}, error) {
		if s, ok := m.lookup(id); ok {
			return s, nil
		}

		s, err := m.create(ctx, id)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, ErrManagerClosed
		}
		if existing, ok := m.sessions[id]; ok {
			m.mu.Unlock()
			return existing, nil
		}
		m.sessions[id] = s
		m.mu.Unlock()

		s.start()
		return s, nil
	})
	if err != nil {
		return nil, err
	}

	s := v.(*Session)
	s.Touch()
	return s, nil
}

func (m *Manager) create(ctx context.Context, id string) (*Session, error) {
	var opts []engine.Option
	if m.newRand != nil {
		opts = append(opts, engine.WithRand(m.newRand()))
	}
	eng, err := engine.NewEngine(m.config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	restored := false
	if m.store != nil {
		// Hydration must finish even if the triggering request goes away,
		// since other callers may be waiting on the same creation.
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.hydrateTimeout)
		snap, err := m.store.Get(hctx, id)
		cancel()

		switch {
		case err == nil:
			if rerr := eng.Restore(snap); rerr != nil {
				m.logger.Warn("discarding stored snapshot", zap.String("session_id", id), zap.Error(rerr))
			} else {
				restored = true
			}
		case errors.Is(err, ErrSnapshotNotFound):
		default:
			m.logger.Warn("failed to load snapshot, starting fresh", zap.String("session_id", id), zap.Error(err))
		}
	}

	m.logger.Info("session created",
		zap.String("session_id", id),
		zap.String("mode", m.config.Name),
		zap.Bool("restored", restored),
	)
	return newSession(id, m.config, eng, m), nil
}

func (m *Manager) lookup(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Get returns a live session without creating one.
func (m *Manager) Get(id string) (*Session, error) {
	if s, ok := m.lookup(id); ok {
		return s, nil
	}
	return nil, ErrSessionNotFound
}

// List returns all live sessions ordered by ID.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete stops a session and removes its stored snapshot.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, inMemory := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if inMemory {
		s.shutdown()
	}

	inStore := false
	if m.store != nil {
		err := m.store.Delete(ctx, id)
		switch {
		case err == nil:
			inStore = true
		case errors.Is(err, ErrSnapshotNotFound):
		default:
			return fmt.Errorf("failed to delete snapshot: %w", err)
		}
	}

	if !inMemory && !inStore {
		return ErrSessionNotFound
	}
	m.logger.Info("session deleted", zap.String("session_id", id))
	return nil
}

// CleanupExpiredSessions evicts sessions idle for longer than maxIdle,
// flushing each one's final state. It returns the number evicted.
func (m *Manager) CleanupExpiredSessions(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	var expired []*Session
	for _, s := range m.List() {
		if s.LastAccessed().Before(cutoff) {
			expired = append(expired, s)
		}
	}

	for _, s := range expired {
		// Flush before unmapping so a new session for this id hydrates
		// the final state.
		s.close(ctx)

		m.mu.Lock()
		if m.sessions[s.ID] == s {
			delete(m.sessions, s.ID)
		}
		m.mu.Unlock()
	}

	if len(expired) > 0 {
		m.logger.Info("evicted idle sessions", zap.Int("count", len(expired)), zap.Duration("max_idle", maxIdle))
	}
	return len(expired)
}

// Run evicts idle sessions every interval until ctx is done. A non-positive
// interval or maxIdle disables eviction.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupExpiredSessions(ctx, maxIdle)
		}
	}
}

// Close stops every session and flushes its state. Resolve fails afterwards.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.close(ctx)
		}(s)
	}
	wg.Wait()

	m.logger.Info("session manager closed", zap.Int("sessions", len(sessions)))
	return ctx.Err()
}
