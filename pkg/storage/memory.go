package storage

import (
	"context"
	"sync"
)

// MemoryBackend implements in-memory document storage
type MemoryBackend struct {
	state State
	mu    sync.RWMutex
}

// NewMemoryBackend creates a new memory backend, optionally seeded with an
// initial state
func NewMemoryBackend(seed State) *MemoryBackend {
	if seed == nil {
		seed = State{}
	}
	return &MemoryBackend{state: seed.Clone()}
}

// Load returns a copy of the stored state
func (m *MemoryBackend) Load(ctx context.Context) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.Clone(), nil
}

// Save stores a copy of the given state
func (m *MemoryBackend) Save(ctx context.Context, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state.Clone()
	return nil
}

// Close is a no-op for memory storage
func (m *MemoryBackend) Close() error {
	return nil
}
