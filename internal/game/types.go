// internal/game/types.go
//
// Core type definitions for the match session engine.
// Defines:
//   - Outcome: the result of a single Pick.
//   - Phase: the externally visible state of a session.
//   - Event / Listener: typed outbound notifications for the adapter layer.
//   - Config: scoring and capacity tunables.
//   - SaveStore: the persistence collaborator contract.

package game

import (
	"context"

	"github.com/robalobadob/cardmatch/internal/board"
)

// Outcome reports what a Pick did.
type Outcome string

const (
	OutcomeInactive       Outcome = "inactive"        // session not accepting picks
	OutcomeIgnored        Outcome = "ignored"         // matched, re-picked or out-of-range cell
	OutcomeSelected       Outcome = "selected"        // first cell of a pair turned face up
	OutcomeMatch          Outcome = "match"           // pair matched, level continues
	OutcomeMismatch       Outcome = "mismatch"        // pair mismatched, turn consumed
	OutcomeLevelCompleted Outcome = "level_completed" // last pair matched
	OutcomeGameOver       Outcome = "game_over"       // last turn consumed
)

// Phase is the stable state a session rests in between picks.
type Phase string

const (
	PhaseNotStarted         Phase = "not_started"
	PhaseAwaitingFirstPick  Phase = "awaiting_first_pick"
	PhaseAwaitingSecondPick Phase = "awaiting_second_pick"
	PhaseLevelCompleted     Phase = "level_completed"
	PhaseGameOver           Phase = "game_over"
)

// Active reports whether picks are accepted in this phase.
func (p Phase) Active() bool {
	return p == PhaseAwaitingFirstPick || p == PhaseAwaitingSecondPick
}

// EventKind names an outbound notification.
type EventKind string

const (
	EventTurnsChanged EventKind = "turns_changed"
	EventScoreChanged EventKind = "score_changed"
	EventGameEnded    EventKind = "game_ended"
)

// Event is emitted on every observable counter change.
//
//   - TurnsChanged: Value = remaining turns.
//   - ScoreChanged: Value = current level score.
//   - GameEnded:    Won reports the result; Value = final level score and
//     Level = the level that just ended.
type Event struct {
	Kind  EventKind `json:"kind"`
	Value int       `json:"value"`
	Won   bool      `json:"won,omitempty"`
	Level int       `json:"level,omitempty"`
}

// Listener receives events synchronously, in emission order.
type Listener func(Event)

// selection is the one-slot pick buffer: empty, or pending on one index.
type selection struct {
	pending bool
	index   int
}

func (s selection) get() (int, bool) { return s.index, s.pending }

// Config carries the engine tunables.
type Config struct {
	PointsPerMatch        int
	BonusPerRemainingTurn int
	Slots                 int   // board capacity in cells
	Seed                  int64 // 0 selects an entropy-seeded shuffle
}

// DefaultConfig returns the stock scoring and a 64-slot board.
func DefaultConfig() Config {
	return Config{
		PointsPerMatch:        5,
		BonusPerRemainingTurn: 10,
		Slots:                 64,
	}
}

// SaveStore persists one session's snapshot.
//
// Load returns (nil, nil) when nothing has been saved yet.
type SaveStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
	Delete(ctx context.Context) error
}

// View is a read-only copy of the session for adapters.
type View struct {
	ID             string       `json:"id"`
	Phase          Phase        `json:"phase"`
	Level          int          `json:"level"`
	TotalCells     int          `json:"totalCells"`
	MatchedCells   int          `json:"matchedCells"`
	TotalTurns     int          `json:"totalTurns"`
	RemainingTurns int          `json:"remainingTurns"`
	CurrentScore   int          `json:"currentScore"`
	TotalScore     int          `json:"totalScore"`
	Pending        *int         `json:"pending,omitempty"`
	Cells          []board.Cell `json:"-"`
}
