// Package results records completed levels and serves the leaderboard.
package results

import (
	"context"
	"database/sql"
	"errors"
)

// Result is one completed level.
type Result struct {
	PlayerID       string `json:"playerId"`
	Level          int    `json:"level"`
	LevelScore     int    `json:"levelScore"`
	RemainingTurns int    `json:"remainingTurns"`
	TotalScore     int    `json:"totalScore"` // cumulative, after this level
	CreatedAt      string `json:"createdAt,omitempty"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Record(ctx context.Context, r Result) error {
	if r.PlayerID == "" {
		return errors.New("results: missing player id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO level_results(player_id, level, level_score, remaining_turns, total_score)
		VALUES(?,?,?,?,?)`,
		r.PlayerID, r.Level, r.LevelScore, r.RemainingTurns, r.TotalScore,
	)
	return err
}

// History returns a player's most recent results, newest first.
func (s *Store) History(ctx context.Context, playerID string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, level, level_score, remaining_turns, total_score, created_at
		FROM level_results
		WHERE player_id=?
		ORDER BY id DESC
		LIMIT ?`, playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Result, 0, limit)
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.PlayerID, &r.Level, &r.LevelScore, &r.RemainingTurns, &r.TotalScore, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LBRow is a player's best showing.
type LBRow struct {
	PlayerID   string `json:"playerId"`
	Username   string `json:"username,omitempty"` // empty for guests
	BestTotal  int    `json:"bestTotal"`
	BestLevel  int    `json:"bestLevel"`
	LevelsDone int    `json:"levelsDone"`
}

// Leaderboard ranks players by their best cumulative score, then highest
// level reached, then who got there first.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.player_id, COALESCE(u.username, ''), MAX(r.total_score), MAX(r.level), COUNT(1), MIN(r.created_at) AS first_at
		FROM level_results r
		LEFT JOIN users u ON u.id = r.player_id
		GROUP BY r.player_id
		ORDER BY MAX(r.total_score) DESC, MAX(r.level) DESC, first_at ASC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LBRow
	for rows.Next() {
		var r LBRow
		var firstAt string
		if err := rows.Scan(&r.PlayerID, &r.Username, &r.BestTotal, &r.BestLevel, &r.LevelsDone, &firstAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
