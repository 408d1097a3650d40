package session

import (
	"context"
	"time"

	"yeargrid/internal/cache"
)

// MemoryStore keeps sessions in a bounded in-process LRU cache.
type MemoryStore struct {
	cache   *cache.LRUCache[State]
	manager *cache.Manager
}

// NewMemoryStore creates a store holding at most size sessions for ttl
// after their last use.
func NewMemoryStore(size int, ttl time.Duration, opts ...cache.Option) *MemoryStore {
	opts = append(opts, cache.WithSlidingExpiry())
	return &MemoryStore{cache: cache.NewLRUCache[State](size, ttl, opts...)}
}

// StartJanitor sweeps expired sessions every interval until Close.
func (m *MemoryStore) StartJanitor(manager *cache.Manager, interval time.Duration) {
	manager.Register(m.cache)
	manager.StartCleanup(interval)
	m.manager = manager
}

func (m *MemoryStore) Get(_ context.Context, id string) (State, error) {
	s, ok := m.cache.Get(id)
	if !ok {
		return State{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, s State) error {
	m.cache.Set(s.ID, s)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error {
	if m.manager != nil {
		m.manager.Stop()
	}
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Size()
}
