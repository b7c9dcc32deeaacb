// internal/game/engine.go
//
// Match session engine for a single player.
// Responsibilities:
//   - Start, resume, restart, advance and reset levels.
//   - Accept picks, hold the one-slot selection, resolve matches/mismatches.
//   - Keep score, turn budget and cumulative totals.
//   - Persist a snapshot after every mutating transition.
//   - Emit TurnsChanged / ScoreChanged / GameEnded events.
//
// State machine:
//   AwaitingFirstPick → AwaitingSecondPick → (resolve) → AwaitingFirstPick
//   with absorbing LevelCompleted (from a match) and GameOver (from a
//   mismatch), left only via RestartCurrentLevel, AdvanceToNextLevel,
//   StartNew or ResetEntireGame.
//
// Notes:
//   - An Engine is not safe for concurrent use; the adapter serializes calls.
//   - Persistence is best-effort: a failed save is returned as a
//     *PersistenceError but the in-memory state has already advanced.
//   - Re-picking the pending cell is a no-op.
package game

import (
	"context"
	"errors"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robalobadob/cardmatch/internal/board"
	"github.com/robalobadob/cardmatch/internal/symbols"
)

// Engine runs one match session.
type Engine struct {
	id    string
	cfg   Config
	cat   *symbols.Catalog
	rng   *rand.Rand
	store SaveStore
	log   zerolog.Logger

	progress   LevelProgress
	totalScore int
	board      *board.Board
	sel        selection
	phase      Phase
	dirty      bool // last save failed

	listeners []Listener
	queue     []Event
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithID fixes the session id (defaults to a random UUID).
func WithID(id string) Option {
	return func(e *Engine) { e.id = id }
}

// WithListener subscribes l before the first command runs.
func WithListener(l Listener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

// New constructs an idle engine. Call StartOrResume or StartNew to begin.
func New(store SaveStore, cat *symbols.Catalog, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		id:       uuid.NewString(),
		cfg:      cfg,
		cat:      cat,
		rng:      board.NewRand(cfg.Seed),
		store:    store,
		log:      zerolog.Nop(),
		progress: NewLevelProgress(),
		phase:    PhaseNotStarted,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("session", e.id).Logger()
	return e
}

// ID returns the session id.
func (e *Engine) ID() string { return e.id }

// Phase returns the current phase.
func (e *Engine) Phase() Phase { return e.phase }

// Reseed replaces the shuffle source; the next generated board uses it.
func (e *Engine) Reseed(seed int64) { e.rng = board.NewRand(seed) }

// Subscribe registers l for all future events.
func (e *Engine) Subscribe(l Listener) { e.listeners = append(e.listeners, l) }

// DrainEvents returns and clears the outbound event queue.
func (e *Engine) DrainEvents() []Event {
	out := e.queue
	e.queue = nil
	return out
}

func (e *Engine) emit(ev Event) {
	e.queue = append(e.queue, ev)
	for _, l := range e.listeners {
		l(ev)
	}
}

// ---------------------------------------------------------------------------
// Commands

// StartOrResume loads the saved snapshot and continues from it:
//   - no snapshot      → level-1 defaults
//   - game over        → restart the saved level
//   - level completed  → advance to the next level
//   - otherwise        → resume with the saved board layout and matches
func (e *Engine) StartOrResume(ctx context.Context) error {
	snap, err := e.store.Load(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("load snapshot")
		return &PersistenceError{Op: "load", Err: err}
	}
	if snap == nil {
		e.log.Info().Msg("no snapshot, starting level 1")
		e.progress = NewLevelProgress()
		e.totalScore = 0
		return e.beginLevel(ctx)
	}

	if snap.IsGameOver || snap.IsCompleted {
		p := progressFromSnapshot(snap)
		if bad := normalizeStructure(&p); bad != nil {
			e.log.Warn().Err(bad).Msg("repaired snapshot structure")
		}
		e.progress = p
		e.totalScore = max(snap.TotalScore, 0)
		switch {
		case p.IsGameOver:
			return e.restartLevel(ctx)
		case p.IsCompleted:
			return e.advanceLevel(ctx)
		}
		// normalizeStructure cleared both flags; resume the repaired level.
		return e.beginLevel(ctx)
	}
	return e.resume(ctx, snap)
}

// StartNew discards all progress and starts level 1.
func (e *Engine) StartNew(ctx context.Context) error {
	e.progress = NewLevelProgress()
	e.totalScore = 0
	return e.beginLevel(ctx)
}

// RestartCurrentLevel replays the current level on a fresh board with the
// full turn budget. An engine that has not started yet replays the saved
// level.
func (e *Engine) RestartCurrentLevel(ctx context.Context) error {
	if err := e.loadIfIdle(ctx); err != nil {
		return err
	}
	return e.restartLevel(ctx)
}

// AdvanceToNextLevel starts the level prepared by the last completion,
// which may come from the saved snapshot when the engine has not started.
func (e *Engine) AdvanceToNextLevel(ctx context.Context) error {
	if err := e.loadIfIdle(ctx); err != nil {
		return err
	}
	return e.advanceLevel(ctx)
}

func (e *Engine) restartLevel(ctx context.Context) error {
	e.progress.ResetLevelData()
	return e.beginLevel(ctx)
}

func (e *Engine) advanceLevel(ctx context.Context) error {
	if !e.progress.IsCompleted {
		return ErrLevelNotCompleted
	}
	e.progress.ResetLevelData()
	return e.beginLevel(ctx)
}

// loadIfIdle adopts the saved level and totals while no level is in play,
// so level commands on a fresh engine never persist level-1 defaults over
// the player's save.
func (e *Engine) loadIfIdle(ctx context.Context) error {
	if e.phase != PhaseNotStarted {
		return nil
	}
	snap, err := e.store.Load(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("load snapshot")
		return &PersistenceError{Op: "load", Err: err}
	}
	if snap == nil {
		return nil
	}
	p := progressFromSnapshot(snap)
	if bad := normalizeStructure(&p); bad != nil {
		e.log.Warn().Err(bad).Msg("repaired snapshot structure")
	}
	e.progress = p
	e.totalScore = max(snap.TotalScore, 0)
	return nil
}

// ResetEntireGame deletes the saved snapshot and reinitializes level 1.
func (e *Engine) ResetEntireGame(ctx context.Context) error {
	var delErr error
	if err := e.store.Delete(ctx); err != nil {
		e.log.Warn().Err(err).Msg("delete snapshot")
		delErr = &PersistenceError{Op: "delete", Err: err}
	}
	if err := e.StartNew(ctx); err != nil {
		return err
	}
	return delErr
}

// Pick applies one player pick to cell index.
//
// The returned error is informational: *InvalidPickError for ignored picks,
// *PersistenceError when the resulting state could not be saved.
func (e *Engine) Pick(ctx context.Context, index int) (Outcome, error) {
	if !e.phase.Active() {
		return OutcomeInactive, nil
	}
	if !e.board.InRange(index) {
		return OutcomeIgnored, &InvalidPickError{Index: index, Reason: ReasonOutOfRange}
	}
	if e.board.Cell(index).Status == board.Matched {
		return OutcomeIgnored, &InvalidPickError{Index: index, Reason: ReasonAlreadyMatched}
	}

	first, pending := e.sel.get()
	if !pending {
		e.sel = selection{pending: true, index: index}
		e.board.SetStatus(index, board.FaceUp)
		e.phase = PhaseAwaitingSecondPick
		e.log.Debug().Int("cell", index).Msg("first pick")
		return OutcomeSelected, nil
	}
	if first == index {
		return OutcomeIgnored, nil
	}

	e.sel = selection{}
	if e.board.Cell(first).Symbol == e.board.Cell(index).Symbol {
		return e.resolveMatch(ctx, first, index)
	}
	return e.resolveMismatch(ctx, first, index)
}

// ---------------------------------------------------------------------------
// Resolution

func (e *Engine) resolveMatch(ctx context.Context, a, b int) (Outcome, error) {
	e.board.SetStatus(a, board.Matched)
	e.board.SetStatus(b, board.Matched)
	e.progress.MatchedCells += 2
	e.progress.CurrentScore += e.cfg.PointsPerMatch
	e.progress.CellStates = matchedCellStates(e.board)
	e.log.Debug().Int("a", a).Int("b", b).Int("matched", e.progress.MatchedCells).Msg("match")
	e.emit(Event{Kind: EventScoreChanged, Value: e.progress.CurrentScore})

	if e.progress.MatchedCells >= e.progress.TotalCells {
		return OutcomeLevelCompleted, e.completeLevel(ctx)
	}
	e.phase = PhaseAwaitingFirstPick
	return OutcomeMatch, e.persist(ctx)
}

func (e *Engine) resolveMismatch(ctx context.Context, a, b int) (Outcome, error) {
	e.board.SetStatus(a, board.FaceDown)
	e.board.SetStatus(b, board.FaceDown)
	if e.progress.RemainingTurns > 0 {
		e.progress.RemainingTurns--
	}
	e.log.Debug().Int("a", a).Int("b", b).Int("turns", e.progress.RemainingTurns).Msg("mismatch")
	e.emit(Event{Kind: EventTurnsChanged, Value: e.progress.RemainingTurns})

	if e.progress.RemainingTurns <= 0 {
		e.progress.IsGameOver = true
		e.phase = PhaseGameOver
		err := e.persist(ctx)
		e.log.Info().Int("level", e.progress.CurrentLevel).Msg("game over")
		e.emit(Event{Kind: EventGameEnded, Won: false, Value: e.progress.CurrentScore, Level: e.progress.CurrentLevel})
		return OutcomeGameOver, err
	}
	e.phase = PhaseAwaitingFirstPick
	return OutcomeMismatch, e.persist(ctx)
}

// completeLevel awards the turn bonus, banks the level score and prepares
// the next level's parameters.
func (e *Engine) completeLevel(ctx context.Context) error {
	level := e.progress.CurrentLevel
	bonus := e.progress.RemainingTurns * e.cfg.BonusPerRemainingTurn
	levelScore := e.progress.CurrentScore + bonus

	e.progress.IsCompleted = true
	e.totalScore += levelScore
	e.progress.advance()
	e.phase = PhaseLevelCompleted

	err := e.persist(ctx)
	e.log.Info().Int("level", level).Int("score", levelScore).Int("bonus", bonus).Int("total", e.totalScore).Msg("level completed")
	e.emit(Event{Kind: EventScoreChanged, Value: levelScore})
	e.emit(Event{Kind: EventGameEnded, Won: true, Value: levelScore, Level: level})
	return err
}

// ---------------------------------------------------------------------------
// Level setup

// beginLevel builds a board for the current progress and enters
// AwaitingFirstPick. A capacity error leaves the session not started.
func (e *Engine) beginLevel(ctx context.Context) error {
	b, arrangement, _, err := board.Setup(e.progress.TotalCells, e.cfg.Slots, e.progress.SymbolArrangement, e.cat, e.rng)
	if err != nil {
		e.phase = PhaseNotStarted
		e.board = nil
		e.log.Error().Err(err).Int("level", e.progress.CurrentLevel).Msg("level setup")
		return err
	}
	e.board = b
	e.progress.SymbolArrangement = arrangement
	e.sel = selection{}
	e.phase = PhaseAwaitingFirstPick
	e.log.Info().Int("level", e.progress.CurrentLevel).Int("cells", e.progress.TotalCells).Msg("level started")

	err = e.persist(ctx)
	e.emitCounters()
	return err
}

// resume restores a mid-level snapshot.
func (e *Engine) resume(ctx context.Context, snap *Snapshot) error {
	r, err := Restore(snap, e.cat, e.rng, e.cfg.Slots)
	var corrupt *CorruptSnapshotError
	switch {
	case errors.As(err, &corrupt):
		e.log.Warn().Err(err).Msg("discarded corrupt snapshot board")
	case err != nil:
		e.phase = PhaseNotStarted
		e.board = nil
		e.log.Error().Err(err).Msg("resume")
		return err
	}

	e.progress = r.Progress
	e.totalScore = r.TotalScore
	e.board = r.Board
	e.sel = selection{}
	e.phase = PhaseAwaitingFirstPick
	e.log.Info().Int("level", e.progress.CurrentLevel).Int("matched", e.progress.MatchedCells).Bool("regenerated", r.Regenerated).Msg("session resumed")

	if e.progress.MatchedCells >= e.progress.TotalCells {
		// Saved after the last match but before completion was recorded.
		return e.completeLevel(ctx)
	}
	if e.progress.RemainingTurns <= 0 {
		e.progress.IsGameOver = true
		e.phase = PhaseGameOver
		err := e.persist(ctx)
		e.emit(Event{Kind: EventGameEnded, Won: false, Value: e.progress.CurrentScore, Level: e.progress.CurrentLevel})
		return err
	}

	var perr error
	if r.Regenerated || corrupt != nil {
		perr = e.persist(ctx)
	}
	e.emitCounters()
	return perr
}

func (e *Engine) emitCounters() {
	e.emit(Event{Kind: EventTurnsChanged, Value: e.progress.RemainingTurns})
	e.emit(Event{Kind: EventScoreChanged, Value: e.progress.CurrentScore})
}

// ---------------------------------------------------------------------------
// Persistence

// Serialize captures the current session as a snapshot.
func (e *Engine) Serialize() *Snapshot {
	return e.progress.snapshot(e.totalScore)
}

func (e *Engine) persist(ctx context.Context) error {
	if err := e.store.Save(ctx, e.Serialize()); err != nil {
		e.dirty = true
		e.log.Warn().Err(err).Msg("save snapshot")
		return &PersistenceError{Op: "save", Err: err}
	}
	if e.dirty {
		e.dirty = false
		e.log.Info().Msg("save recovered")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read access

// View returns a copy of the session state.
func (e *Engine) View() View {
	v := View{
		ID:             e.id,
		Phase:          e.phase,
		Level:          e.progress.CurrentLevel,
		TotalCells:     e.progress.TotalCells,
		MatchedCells:   e.progress.MatchedCells,
		TotalTurns:     e.progress.TotalTurns,
		RemainingTurns: e.progress.RemainingTurns,
		CurrentScore:   e.progress.CurrentScore,
		TotalScore:     e.totalScore,
	}
	if i, ok := e.sel.get(); ok {
		v.Pending = &i
	}
	if e.board != nil {
		v.Cells = e.board.Cells()
	}
	return v
}

// Progress returns a copy of the level progress.
func (e *Engine) Progress() LevelProgress {
	p := e.progress
	p.SymbolArrangement = append([]symbols.Symbol(nil), e.progress.SymbolArrangement...)
	p.CellStates = append([]CellState(nil), e.progress.CellStates...)
	return p
}

// TotalScore returns the cumulative score of completed levels.
func (e *Engine) TotalScore() int { return e.totalScore }
