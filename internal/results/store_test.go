package results

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cardmatch/assets"
)

func newStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ddl, err := fs.ReadFile(assets.Migrations(), "001_init.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(ddl))
	require.NoError(t, err)
	return NewStore(db), db
}

func TestRecordAndHistory(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	require.NoError(t, s.Record(ctx, Result{PlayerID: "p", Level: 1, LevelScore: 40, RemainingTurns: 3, TotalScore: 40}))
	require.NoError(t, s.Record(ctx, Result{PlayerID: "p", Level: 2, LevelScore: 35, RemainingTurns: 2, TotalScore: 75}))
	require.NoError(t, s.Record(ctx, Result{PlayerID: "q", Level: 1, LevelScore: 10, RemainingTurns: 0, TotalScore: 10}))

	hist, err := s.History(ctx, "p", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, 2, hist[0].Level, "newest first")
	assert.Equal(t, 75, hist[0].TotalScore)
	assert.NotEmpty(t, hist[0].CreatedAt)

	assert.Error(t, s.Record(ctx, Result{Level: 1}))
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	s, db := newStore(t)

	_, err := db.Exec(`INSERT INTO users(id, username, password_hash, created_at) VALUES ('u1', 'ada', 'x', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	require.NoError(t, s.Record(ctx, Result{PlayerID: "u1", Level: 1, LevelScore: 45, TotalScore: 45}))
	require.NoError(t, s.Record(ctx, Result{PlayerID: "u1", Level: 2, LevelScore: 50, TotalScore: 95}))
	require.NoError(t, s.Record(ctx, Result{PlayerID: "guest", Level: 1, LevelScore: 120, TotalScore: 120}))
	require.NoError(t, s.Record(ctx, Result{PlayerID: "low", Level: 1, LevelScore: 5, TotalScore: 5}))

	rows, err := s.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "guest", rows[0].PlayerID)
	assert.Equal(t, "", rows[0].Username)
	assert.Equal(t, 120, rows[0].BestTotal)

	assert.Equal(t, "u1", rows[1].PlayerID)
	assert.Equal(t, "ada", rows[1].Username)
	assert.Equal(t, 95, rows[1].BestTotal)
	assert.Equal(t, 2, rows[1].BestLevel)
	assert.Equal(t, 2, rows[1].LevelsDone)
}
