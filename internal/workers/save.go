// internal/workers/save.go
//
// SaveWorker moves snapshot writes off the request path.
//
// It wraps a keyed store.Store and is itself a store.Store:
//   - Save records the latest snapshot per player and returns immediately.
//   - The background loop (Start) writes pending snapshots; only the most
//     recent snapshot per player is written, earlier ones are dropped.
//   - Load and Delete flush first, so callers always read their own writes
//     and a delete is never overtaken by an older queued save.
//
// Write failures on the background path are logged, not returned.

package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cardmatch/internal/game"
	"github.com/robalobadob/cardmatch/internal/store"
)

type SaveWorker struct {
	store    store.Store
	interval time.Duration
	signal   chan struct{}

	// writeMu serializes backend writes and deletes.
	writeMu sync.Mutex
	mu      sync.Mutex
	pending map[string]*game.Snapshot
}

type NewSaveWorkerOptions struct {
	Store store.Store
	// Interval is an upper bound on how long a save may stay queued. Zero
	// means writes happen only when signalled.
	Interval time.Duration
}

func NewSaveWorker(opts NewSaveWorkerOptions) *SaveWorker {
	return &SaveWorker{
		store:    opts.Store,
		interval: opts.Interval,
		signal:   make(chan struct{}, 1),
		pending:  make(map[string]*game.Snapshot),
	}
}

// Start runs the write loop until ctx is cancelled, then flushes once more.
func (w *SaveWorker) Start(ctx context.Context) {
	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			if err := w.Flush(context.Background()); err != nil {
				log.Error().Err(err).Msg("final save flush failed")
			}
			return
		case <-w.signal:
			w.flushLogged(ctx)
		case <-tick:
			w.flushLogged(ctx)
		}
	}
}

func (w *SaveWorker) flushLogged(ctx context.Context) {
	if err := w.Flush(ctx); err != nil {
		log.Error().Err(err).Msg("failed to save snapshot")
	}
}

// Flush writes every pending snapshot now.
func (w *SaveWorker) Flush(ctx context.Context) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.flushLocked(ctx)
}

func (w *SaveWorker) flushLocked(ctx context.Context) error {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]*game.Snapshot)
	w.mu.Unlock()

	var errs []error
	for id, snap := range batch {
		if err := w.store.Save(ctx, id, snap); err != nil {
			log.Error().Err(err).Str("player", id).Msg("save snapshot")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Save queues snap as playerID's latest snapshot.
func (w *SaveWorker) Save(ctx context.Context, playerID string, snap *game.Snapshot) error {
	if playerID == "" {
		return store.ErrInvalidPlayer
	}
	w.mu.Lock()
	w.pending[playerID] = snap.Clone()
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
	return nil
}

func (w *SaveWorker) Load(ctx context.Context, playerID string) (*game.Snapshot, error) {
	w.mu.Lock()
	snap, ok := w.pending[playerID]
	w.mu.Unlock()
	if ok {
		return snap.Clone(), nil
	}
	// A batch may be mid-write; wait for it before reading the backend.
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.store.Load(ctx, playerID)
}

func (w *SaveWorker) Delete(ctx context.Context, playerID string) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.Lock()
	delete(w.pending, playerID)
	w.mu.Unlock()
	return w.store.Delete(ctx, playerID)
}

// Close flushes pending saves and closes the wrapped store.
func (w *SaveWorker) Close() error {
	ferr := w.Flush(context.Background())
	return errors.Join(ferr, w.store.Close())
}

var _ store.Store = (*SaveWorker)(nil)
