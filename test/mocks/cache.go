package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/aimd54/kibo-gamification/internal/cache"
)

// MockStore is an in-memory cache.Store that counts deletions.
// Used for testing without requiring a real Redis instance
type MockStore struct {
	data    map[string]string
	deleted []string
	mu      sync.RWMutex
}

// NewMockStore creates a new mock store instance
func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]string)}
}

// Get retrieves a value from the mock store
func (m *MockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, exists := m.data[key]
	if !exists {
		return "", cache.ErrCacheMiss
	}
	return val, nil
}

// Set stores a value in the mock store
func (m *MockStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	// Note: ttl is ignored in mock (no expiry implementation)
	return nil
}

// Del deletes keys from the mock store
func (m *MockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.data, key)
		m.deleted = append(m.deleted, key)
	}
	return nil
}

// Has reports whether key is currently stored
func (m *MockStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

// Deleted returns every key passed to Del, in order
func (m *MockStore) Deleted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.deleted...)
}

// Clear resets the mock store (useful for tests)
func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
	m.deleted = nil
}
