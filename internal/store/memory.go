// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used for ephemeral sessions,
// primarily in development/testing, or when durability is not required.
//
// Characteristics:
//   - Stores snapshot copies keyed by player ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Load of an unknown player returns (nil, nil), never an error.

package store

import (
	"context"
	"sync"

	"github.com/robalobadob/cardmatch/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex              // guards saves map
	saves map[string]*game.Snapshot // keyed by player ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{saves: make(map[string]*game.Snapshot)}
}

// Load returns a copy of the player's snapshot, or nil if none.
func (m *memory) Load(ctx context.Context, playerID string) (*game.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves[playerID].Clone(), nil
}

// Save stores a copy so later engine mutations cannot leak in.
func (m *memory) Save(ctx context.Context, playerID string, s *game.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[playerID] = s.Clone()
	return nil
}

// Delete drops the player's snapshot. Deleting a missing entry is not an error.
func (m *memory) Delete(ctx context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saves, playerID)
	return nil
}

func (m *memory) Close() error { return nil }
