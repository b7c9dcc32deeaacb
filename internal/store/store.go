// internal/store/store.go
//
// Save Store backends for match sessions.
//
// Every backend implements the keyed Store interface (one snapshot per
// player). Slot binds a Store to a single player so it satisfies the
// engine's keyless game.SaveStore contract.
//
// Backends:
//   - memory  (NewMemoryStore)  process-local, for development and tests
//   - file    (NewFileStore)    one JSON document per player under a directory
//   - sqlite  (NewSQLStore)     `saves` table, shared with users/results
//   - redis   (NewRedisStore)   one JSON value per player key

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robalobadob/cardmatch/internal/game"
)

// Store defines the persistence interface for session snapshots.
type Store interface {
	// Load returns the player's snapshot, or (nil, nil) when none exists.
	Load(ctx context.Context, playerID string) (*game.Snapshot, error)

	// Save persists or replaces the player's snapshot.
	Save(ctx context.Context, playerID string, s *game.Snapshot) error

	// Delete removes the player's snapshot. Missing entries are not an error.
	Delete(ctx context.Context, playerID string) error

	// Close releases backend resources.
	Close() error
}

// ErrInvalidPlayer is returned for an empty player ID.
var ErrInvalidPlayer = errors.New("store: missing player id")

// slot adapts a keyed Store to game.SaveStore for one player.
type slot struct {
	st       Store
	playerID string
}

// Slot returns the game.SaveStore view of playerID's entry in st.
func Slot(st Store, playerID string) game.SaveStore {
	return &slot{st: st, playerID: playerID}
}

func (s *slot) Load(ctx context.Context) (*game.Snapshot, error) {
	return s.st.Load(ctx, s.playerID)
}

func (s *slot) Save(ctx context.Context, snap *game.Snapshot) error {
	return s.st.Save(ctx, s.playerID, snap)
}

func (s *slot) Delete(ctx context.Context) error {
	return s.st.Delete(ctx, s.playerID)
}

// Open constructs the backend named by kind.
func Open(kind string, opts Options) (Store, error) {
	switch strings.ToLower(kind) {
	case "", "sqlite":
		if opts.DB == nil {
			return nil, errors.New("store: sqlite backend needs a database handle")
		}
		return NewSQLStore(opts.DB), nil
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(opts.Dir), nil
	case "redis":
		return NewRedisStore(opts.RedisAddr, opts.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", kind)
	}
}
