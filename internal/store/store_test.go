package store

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cardmatch/assets"
	"github.com/robalobadob/cardmatch/internal/game"
)

func sampleSnapshot() *game.Snapshot {
	return &game.Snapshot{
		CurrentLevel:      2,
		TotalCells:        6,
		MatchedCells:      2,
		RemainingTurns:    5,
		CurrentScore:      5,
		TotalScore:        45,
		SymbolArrangement: []string{"A", "B", "C", "A", "C", "B"},
		CellStates: []game.CellState{
			{CellIndex: 0, CellID: "A", IsMatched: true, IsFlipped: true},
			{CellIndex: 3, CellID: "A", IsMatched: true, IsFlipped: true},
		},
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ddl, err := fs.ReadFile(assets.Migrations(), "001_init.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(ddl))
	require.NoError(t, err)
	return db
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(t.TempDir()),
		"sqlite": NewSQLStore(openTestDB(t)),
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		out["redis"] = NewRedisStore(addr, "cardmatch:test:"+uuid.NewString()+":")
	}
	return out
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			defer st.Close()

			got, err := st.Load(ctx, "p1")
			require.NoError(t, err)
			assert.Nil(t, got, "missing save loads as nil")

			want := sampleSnapshot()
			require.NoError(t, st.Save(ctx, "p1", want))

			got, err = st.Load(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			// Overwrite replaces, other players are untouched.
			next := sampleSnapshot()
			next.MatchedCells = 0
			next.CellStates = []game.CellState{}
			next.CurrentScore = 0
			require.NoError(t, st.Save(ctx, "p1", next))
			require.NoError(t, st.Save(ctx, "p2", want))

			got, err = st.Load(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, 0, got.MatchedCells)
			assert.Empty(t, got.CellStates)

			got, err = st.Load(ctx, "p2")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			require.NoError(t, st.Delete(ctx, "p1"))
			require.NoError(t, st.Delete(ctx, "p1"), "deleting twice is fine")
			got, err = st.Load(ctx, "p1")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	snap := sampleSnapshot()
	require.NoError(t, st.Save(ctx, "p", snap))

	snap.SymbolArrangement[0] = "Z"
	got, err := st.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "A", got.SymbolArrangement[0])

	got.CellStates[0].CellIndex = 99
	again, _ := st.Load(ctx, "p")
	assert.Equal(t, 0, again.CellStates[0].CellIndex)
}

func TestFileStoreRejectsPathIDs(t *testing.T) {
	ctx := context.Background()
	st := NewFileStore(t.TempDir())
	for _, id := range []string{"", "../x", "a/b", ".."} {
		err := st.Save(ctx, id, sampleSnapshot())
		assert.Error(t, err, "id %q", id)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.json"), []byte("{not json"), 0o644))
	_, err := NewFileStore(dir).Load(context.Background(), "p")
	assert.Error(t, err)
}

func TestSQLStoreDenormalizedColumns(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	st := NewSQLStore(db)
	require.NoError(t, st.Save(ctx, "p", sampleSnapshot()))

	var level, total int
	require.NoError(t, db.QueryRow(`SELECT current_level, total_score FROM saves WHERE player_id = 'p'`).Scan(&level, &total))
	assert.Equal(t, 2, level)
	assert.Equal(t, 45, total)
}

func TestSlotBindsPlayer(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	a, b := Slot(st, "a"), Slot(st, "b")

	require.NoError(t, a.Save(ctx, sampleSnapshot()))
	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentLevel)

	require.NoError(t, a.Delete(ctx))
	got, _ = st.Load(ctx, "a")
	assert.Nil(t, got)
}

func TestOpen(t *testing.T) {
	st, err := Open("memory", Options{})
	require.NoError(t, err)
	assert.NotNil(t, st)

	_, err = Open("sqlite", Options{})
	assert.Error(t, err)

	_, err = Open("etcd", Options{})
	assert.Error(t, err)
}
