package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/snake-api/game/engine"
)

func createTestConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:              "test",
		Description:       "Test configuration",
		Width:             10,
		Height:            10,
		Start:             engine.Position{X: 2, Y: 5},
		Food:              engine.Position{X: 7, Y: 5},
		TickIntervalMs:    1000,
		MinTickIntervalMs: 100,
		IntervalDecrement: 10,
	}
}

// memoryStore is an in-process SnapshotStore that records its traffic.
type memoryStore struct {
	mu      sync.Mutex
	data    map[string]*engine.Snapshot
	puts    int
	gets    int
	fail    error
	putHook func(id string, snap *engine.Snapshot)
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]*engine.Snapshot)}
}

func (s *memoryStore) Get(_ context.Context, id string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.fail != nil {
		return nil, s.fail
	}
	snap, ok := s.data[id]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *memoryStore) Put(_ context.Context, id string, snap *engine.Snapshot, _ time.Duration) error {
	s.mu.Lock()
	hook := s.putHook
	if s.fail != nil {
		s.mu.Unlock()
		return s.fail
	}
	s.puts++
	s.data[id] = snap
	s.mu.Unlock()
	if hook != nil {
		hook(id, snap)
	}
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.data[id]; !ok {
		return ErrSnapshotNotFound
	}
	delete(s.data, id)
	return nil
}

func (s *memoryStore) setFail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *memoryStore) snapshot(id string) *engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[id]
}

func (s *memoryStore) counts() (gets, puts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.puts
}

var errStoreDown = errors.New("store down")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
