// internal/store/sqlite.go
//
// SQL-backed Store over the `saves` table (see assets/sql/001_init.sql).
// The snapshot is kept as a JSON column; current_level and total_score are
// denormalized so they can be inspected without decoding.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/robalobadob/cardmatch/internal/game"
)

type sqlStore struct {
	db *sql.DB
}

// NewSQLStore wraps an opened, migrated database. Close does not close db;
// the caller owns it.
func NewSQLStore(db *sql.DB) Store {
	return &sqlStore{db: db}
}

func (s *sqlStore) Load(ctx context.Context, playerID string) (*game.Snapshot, error) {
	if playerID == "" {
		return nil, ErrInvalidPlayer
	}
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM saves WHERE player_id = ?`, playerID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query save: %w", err)
	}
	var out game.Snapshot
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode save: %w", err)
	}
	return &out, nil
}

func (s *sqlStore) Save(ctx context.Context, playerID string, snap *game.Snapshot) error {
	if playerID == "" {
		return ErrInvalidPlayer
	}
	if snap == nil {
		return errors.New("store: nil snapshot")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saves (player_id, snapshot, current_level, total_score, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(player_id) DO UPDATE SET
			snapshot = excluded.snapshot,
			current_level = excluded.current_level,
			total_score = excluded.total_score,
			updated_at = excluded.updated_at`,
		playerID, string(raw), snap.CurrentLevel, snap.TotalScore,
	)
	if err != nil {
		return fmt.Errorf("upsert save: %w", err)
	}
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, playerID string) error {
	if playerID == "" {
		return ErrInvalidPlayer
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE player_id = ?`, playerID); err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}

func (s *sqlStore) Close() error { return nil }
