// internal/board/board.go
//
// Board state for one level of the card-match game.
//
// A Board is a fixed-size ordered sequence of cells. Each cell holds the
// symbol assigned at level setup and a tri-state status:
//   FaceDown → FaceUp (pending pick) → FaceDown (mismatch) | Matched.
//
// Setup either reuses a saved arrangement verbatim (resume) or draws a fresh
// pair multiset from the symbol catalog and shuffles it.
package board

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/robalobadob/cardmatch/internal/symbols"
)

// Status is the flip/match state of a single cell.
type Status int

const (
	FaceDown Status = iota
	FaceUp
	Matched
)

func (s Status) String() string {
	switch s {
	case FaceDown:
		return "face_down"
	case FaceUp:
		return "face_up"
	case Matched:
		return "matched"
	default:
		return "unknown"
	}
}

// Cell is one board slot. Index is fixed for the lifetime of the level.
type Cell struct {
	Index  int
	Symbol symbols.Symbol
	Status Status
}

// Board owns the cells of the current level.
type Board struct {
	cells []Cell
}

// ErrCapacity is the sentinel behind every *CapacityError.
var ErrCapacity = errors.New("board capacity")

// CapacityError reports a cell count the board cannot host: odd, non-positive,
// or larger than the available slots.
type CapacityError struct {
	TotalCells int
	Slots      int
}

func (e *CapacityError) Error() string {
	if e.TotalCells%2 != 0 {
		return fmt.Sprintf("board capacity: odd cell count %d", e.TotalCells)
	}
	if e.TotalCells <= 0 {
		return fmt.Sprintf("board capacity: invalid cell count %d", e.TotalCells)
	}
	return fmt.Sprintf("board capacity: %d cells requested, %d slots available", e.TotalCells, e.Slots)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

// CheckCapacity validates totalCells against the available slots.
func CheckCapacity(totalCells, slots int) error {
	if totalCells <= 0 || totalCells%2 != 0 || totalCells > slots {
		return &CapacityError{TotalCells: totalCells, Slots: slots}
	}
	return nil
}

// Setup builds the board for a level.
//
// When saved has exactly totalCells entries it is reused in order and reused
// reports true. Otherwise a new arrangement is generated from cat and
// shuffled with rng. The arrangement in use is always returned so the caller
// can persist it. All cells start FaceDown.
func Setup(totalCells, slots int, saved []symbols.Symbol, cat *symbols.Catalog, rng *rand.Rand) (b *Board, arrangement []symbols.Symbol, reused bool, err error) {
	if err := CheckCapacity(totalCells, slots); err != nil {
		return nil, nil, false, err
	}
	if saved != nil && len(saved) == totalCells {
		arrangement = append([]symbols.Symbol(nil), saved...)
		reused = true
	} else {
		arrangement = cat.GeneratePairSymbols(totalCells / 2)
		Shuffle(arrangement, rng)
	}
	return FromArrangement(arrangement), arrangement, reused, nil
}

// FromArrangement builds a FaceDown board over the given symbols.
func FromArrangement(arrangement []symbols.Symbol) *Board {
	cells := make([]Cell, len(arrangement))
	for i, s := range arrangement {
		cells[i] = Cell{Index: i, Symbol: s, Status: FaceDown}
	}
	return &Board{cells: cells}
}

// Len returns the number of cells.
func (b *Board) Len() int { return len(b.cells) }

// InRange reports whether i addresses a cell.
func (b *Board) InRange(i int) bool { return i >= 0 && i < len(b.cells) }

// Cell returns a copy of cell i. The caller must check InRange first.
func (b *Board) Cell(i int) Cell { return b.cells[i] }

// Cells returns a copy of all cells in index order.
func (b *Board) Cells() []Cell { return append([]Cell(nil), b.cells...) }

// Arrangement returns the symbols in index order.
func (b *Board) Arrangement() []symbols.Symbol {
	out := make([]symbols.Symbol, len(b.cells))
	for i, c := range b.cells {
		out[i] = c.Symbol
	}
	return out
}

// SetStatus changes the status of cell i.
func (b *Board) SetStatus(i int, s Status) { b.cells[i].Status = s }

// MatchedCells returns matched cells in index order.
func (b *Board) MatchedCells() []Cell {
	var out []Cell
	for _, c := range b.cells {
		if c.Status == Matched {
			out = append(out, c)
		}
	}
	return out
}

// CountMatched returns the number of matched cells.
func (b *Board) CountMatched() int {
	n := 0
	for _, c := range b.cells {
		if c.Status == Matched {
			n++
		}
	}
	return n
}
