package game

import (
	"errors"
	"fmt"

	"github.com/robalobadob/cardmatch/internal/board"
)

var (
	// ErrCapacity marks a level whose cell count the board cannot host.
	ErrCapacity = board.ErrCapacity
	// ErrCorruptSnapshot marks a snapshot that failed validation on restore.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
	// ErrPersistence marks a failed Save Store call.
	ErrPersistence = errors.New("persistence")
	// ErrInvalidPick marks a pick that was ignored.
	ErrInvalidPick = errors.New("invalid pick")
	// ErrLevelNotCompleted is returned by AdvanceToNextLevel mid-level.
	ErrLevelNotCompleted = errors.New("level not completed")
)

// CapacityError is the board's capacity error.
type CapacityError = board.CapacityError

// CorruptSnapshotError describes why a saved snapshot was rejected.
type CorruptSnapshotError struct {
	Reason string
}

func (e *CorruptSnapshotError) Error() string { return "corrupt snapshot: " + e.Reason }

func (e *CorruptSnapshotError) Is(target error) bool { return target == ErrCorruptSnapshot }

// PersistenceError wraps a Save Store failure. The engine state is still
// authoritative; the next mutating transition writes it again.
type PersistenceError struct {
	Op  string // load | save | delete
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Pick rejection reasons.
const (
	ReasonOutOfRange     = "out_of_range"
	ReasonAlreadyMatched = "already_matched"
)

// InvalidPickError reports a pick that changed nothing.
type InvalidPickError struct {
	Index  int
	Reason string
}

func (e *InvalidPickError) Error() string {
	return fmt.Sprintf("invalid pick %d: %s", e.Index, e.Reason)
}

func (e *InvalidPickError) Is(target error) bool { return target == ErrInvalidPick }
