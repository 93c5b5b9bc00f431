package revocation

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore holds revocations in a map protected by a RWMutex.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // value = token expiry
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		stop:    make(chan struct{}),
	}
}

func (m *MemoryStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return errors.New("token id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tokenID] = expiresAt
	return nil
}

func (m *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exp, ok := m.entries[tokenID]
	return ok && time.Now().Before(exp), nil
}

func (m *MemoryStore) Prune(context.Context) error {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the janitor
func (m *MemoryStore) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *MemoryStore) Done() <-chan struct{} {
	return m.stop
}
