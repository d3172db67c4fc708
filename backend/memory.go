package backend

import (
	"context"
	"sync"
)

// Memory is an in-memory Backend implementation.
// It keeps blobs in a map without any filesystem dependency, which makes it
// useful for tests that simulate a cache restart against shared state.
// Thread-safe for concurrent reads and writes.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemory creates a new in-memory backend.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Load returns the blob for name.
func (m *Memory) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to prevent external mutation
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// Save replaces the blob for name.
func (m *Memory) Save(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	m.blobs[name] = copied
	return nil
}

// Remove deletes the blob for name.
func (m *Memory) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// Name returns "memory".
func (m *Memory) Name() string { return "memory" }

// Len returns the number of stored blobs.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
