package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cardmatch/internal/game"
	"github.com/robalobadob/cardmatch/internal/store"
	"github.com/robalobadob/cardmatch/internal/symbols"
)

// countingStore records how many backend writes happened.
type countingStore struct {
	store.Store
	mu     sync.Mutex
	writes int
}

func (c *countingStore) Save(ctx context.Context, id string, s *game.Snapshot) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.Store.Save(ctx, id, s)
}

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func snapAt(level int) *game.Snapshot {
	return &game.Snapshot{CurrentLevel: level, TotalCells: 4, RemainingTurns: 4, CellStates: []game.CellState{}}
}

func TestSaveWorkerCoalesces(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: store.NewMemoryStore()}
	w := NewSaveWorker(NewSaveWorkerOptions{Store: backend})

	for lvl := 1; lvl <= 5; lvl++ {
		require.NoError(t, w.Save(ctx, "p", snapAt(lvl)))
	}
	assert.Equal(t, 0, backend.count(), "nothing written before a flush")

	got, err := w.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentLevel, "reads see the queued snapshot")

	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, 1, backend.count())

	got, err = backend.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentLevel)
}

func TestSaveWorkerDeleteDropsPending(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	w := NewSaveWorker(NewSaveWorkerOptions{Store: backend})

	require.NoError(t, w.Save(ctx, "p", snapAt(3)))
	require.NoError(t, w.Delete(ctx, "p"))
	require.NoError(t, w.Flush(ctx))

	got, err := backend.Load(ctx, "p")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveWorkerBackgroundLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := store.NewMemoryStore()
	w := NewSaveWorker(NewSaveWorkerOptions{Store: backend, Interval: 10 * time.Millisecond})

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.NoError(t, w.Save(ctx, "p", snapAt(2)))
	require.Eventually(t, func() bool {
		got, _ := backend.Load(context.Background(), "p")
		return got != nil && got.CurrentLevel == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestSaveWorkerFinalFlushOnStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := store.NewMemoryStore()
	w := NewSaveWorker(NewSaveWorkerOptions{Store: backend})
	cancel()

	require.NoError(t, w.Save(context.Background(), "p", snapAt(4)))
	w.Start(ctx)

	got, err := backend.Load(context.Background(), "p")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.CurrentLevel)
}

func TestSaveWorkerAsEngineStore(t *testing.T) {
	ctx := context.Background()
	w := NewSaveWorker(NewSaveWorkerOptions{Store: store.NewMemoryStore()})
	cat, err := symbols.Default()
	require.NoError(t, err)
	e := game.New(store.Slot(w, "p"), cat, game.DefaultConfig())
	require.NoError(t, e.StartOrResume(ctx))
	require.NoError(t, w.Flush(ctx))

	got, err := w.Load(ctx, "p")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.CurrentLevel)
	assert.Len(t, got.SymbolArrangement, 4)
}

func TestSaveWorkerRejectsEmptyPlayer(t *testing.T) {
	w := NewSaveWorker(NewSaveWorkerOptions{Store: store.NewMemoryStore()})
	assert.ErrorIs(t, w.Save(context.Background(), "", snapAt(1)), store.ErrInvalidPlayer)
}
