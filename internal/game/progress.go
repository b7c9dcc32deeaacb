// internal/game/progress.go
//
// Level progress, the persisted snapshot, and the resume policy.
//
// Snapshot is the stable wire/storage schema. LevelProgress is the engine's
// in-memory counterpart; it adds TotalTurns, which is always derived from
// TotalCells.
//
// Restore policy:
//   1. Validate the snapshot (level/cell structure, turn range, matched-cell
//      bookkeeping, arrangement/cellStates agreement).
//   2. On corruption, discard arrangement, cellStates and level score, keeping
//      level, turns and totals.
//   3. Rebuild the board, reusing the saved arrangement when its length
//      matches totalCells, else generating a new one.
//   4. Mark every saved cellState index Matched.

package game

import (
	"fmt"
	"math/rand"

	"github.com/robalobadob/cardmatch/internal/board"
	"github.com/robalobadob/cardmatch/internal/symbols"
)

// CellState is the persisted record of a matched cell.
type CellState struct {
	CellIndex int    `json:"cellIndex"`
	CellID    string `json:"cellID"`
	IsMatched bool   `json:"isMatched"`
	IsFlipped bool   `json:"isFlipped"`
}

// Snapshot is the persisted session state.
type Snapshot struct {
	CurrentLevel      int         `json:"currentLevel"`
	TotalCells        int         `json:"totalCells"`
	MatchedCells      int         `json:"matchedCells"`
	IsCompleted       bool        `json:"isCompleted"`
	IsGameOver        bool        `json:"isGameOver"`
	RemainingTurns    int         `json:"remainingTurns"`
	CurrentScore      int         `json:"currentScore"`
	TotalScore        int         `json:"totalScore"`
	SymbolArrangement []string    `json:"symbolArrangement"`
	CellStates        []CellState `json:"cellStates"`
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	if s.SymbolArrangement != nil {
		c.SymbolArrangement = append([]string(nil), s.SymbolArrangement...)
	}
	if s.CellStates != nil {
		c.CellStates = append([]CellState(nil), s.CellStates...)
	}
	return &c
}

// CellsForLevel is the board size of a level: 4, 6, 8, ...
func CellsForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return 4 + 2*(level-1)
}

// LevelProgress is the engine's mutable per-level state.
type LevelProgress struct {
	CurrentLevel      int
	TotalCells        int
	MatchedCells      int
	TotalTurns        int
	RemainingTurns    int
	CurrentScore      int
	IsCompleted       bool
	IsGameOver        bool
	SymbolArrangement []symbols.Symbol
	CellStates        []CellState
}

// NewLevelProgress returns level-1 defaults.
func NewLevelProgress() LevelProgress {
	p := LevelProgress{CurrentLevel: 1, TotalCells: CellsForLevel(1)}
	p.ResetLevelData()
	return p
}

// ResetLevelData restarts the current level: full turn budget, no matches,
// no score, and no arrangement so a fresh board is drawn.
func (p *LevelProgress) ResetLevelData() {
	p.MatchedCells = 0
	p.TotalTurns = p.TotalCells
	p.RemainingTurns = p.TotalCells
	p.CurrentScore = 0
	p.IsCompleted = false
	p.IsGameOver = false
	p.SymbolArrangement = nil
	p.CellStates = nil
}

// advance moves to the next level's parameters after a completion.
func (p *LevelProgress) advance() {
	p.CurrentLevel++
	p.TotalCells += 2
	p.MatchedCells = 0
	p.CurrentScore = 0
	p.SymbolArrangement = nil
	p.CellStates = nil
}

func (p *LevelProgress) snapshot(totalScore int) *Snapshot {
	s := &Snapshot{
		CurrentLevel:   p.CurrentLevel,
		TotalCells:     p.TotalCells,
		MatchedCells:   p.MatchedCells,
		IsCompleted:    p.IsCompleted,
		IsGameOver:     p.IsGameOver,
		RemainingTurns: p.RemainingTurns,
		CurrentScore:   p.CurrentScore,
		TotalScore:     totalScore,
		CellStates:     []CellState{},
	}
	if p.SymbolArrangement != nil {
		s.SymbolArrangement = append([]string(nil), p.SymbolArrangement...)
	}
	s.CellStates = append(s.CellStates, p.CellStates...)
	return s
}

func progressFromSnapshot(s *Snapshot) LevelProgress {
	p := LevelProgress{
		CurrentLevel:   s.CurrentLevel,
		TotalCells:     s.TotalCells,
		MatchedCells:   s.MatchedCells,
		TotalTurns:     s.TotalCells,
		RemainingTurns: s.RemainingTurns,
		CurrentScore:   s.CurrentScore,
		IsCompleted:    s.IsCompleted,
		IsGameOver:     s.IsGameOver,
	}
	if s.SymbolArrangement != nil {
		p.SymbolArrangement = append([]symbols.Symbol(nil), s.SymbolArrangement...)
	}
	if len(s.CellStates) > 0 {
		p.CellStates = append([]CellState(nil), s.CellStates...)
	}
	return p
}

// matchedCellStates records the matched cells of b, in index order.
func matchedCellStates(b *board.Board) []CellState {
	matched := b.MatchedCells()
	out := make([]CellState, 0, len(matched))
	for _, c := range matched {
		out = append(out, CellState{CellIndex: c.Index, CellID: c.Symbol, IsMatched: true, IsFlipped: true})
	}
	return out
}

// normalizeStructure repairs level/cell/turn fields that cannot be played as
// saved. It reports the first problem found, or nil.
func normalizeStructure(p *LevelProgress) *CorruptSnapshotError {
	var bad *CorruptSnapshotError
	if p.CurrentLevel < 1 {
		bad = &CorruptSnapshotError{Reason: fmt.Sprintf("level %d below 1", p.CurrentLevel)}
		p.CurrentLevel = 1
	}
	if p.TotalCells < 2 || p.TotalCells%2 != 0 {
		if bad == nil {
			bad = &CorruptSnapshotError{Reason: fmt.Sprintf("invalid cell count %d", p.TotalCells)}
		}
		p.TotalCells = CellsForLevel(p.CurrentLevel)
		p.ResetLevelData()
	}
	p.TotalTurns = p.TotalCells
	if p.RemainingTurns < 0 || p.RemainingTurns > p.TotalTurns {
		if bad == nil {
			bad = &CorruptSnapshotError{Reason: fmt.Sprintf("remaining turns %d outside [0,%d]", p.RemainingTurns, p.TotalTurns)}
		}
		p.RemainingTurns = clamp(p.RemainingTurns, 0, p.TotalTurns)
	}
	if p.IsCompleted && p.IsGameOver {
		if bad == nil {
			bad = &CorruptSnapshotError{Reason: "both completed and game over"}
		}
		p.ResetLevelData()
	}
	return bad
}

// checkBoardState validates matched-cell bookkeeping against the arrangement.
func checkBoardState(p *LevelProgress) *CorruptSnapshotError {
	if p.MatchedCells%2 != 0 {
		return &CorruptSnapshotError{Reason: fmt.Sprintf("odd matchedCells %d", p.MatchedCells)}
	}
	// One cell state per matched cell, so two per matched pair.
	if p.MatchedCells != len(p.CellStates) {
		return &CorruptSnapshotError{Reason: fmt.Sprintf("matchedCells %d != %d cell states", p.MatchedCells, len(p.CellStates))}
	}
	if p.MatchedCells > p.TotalCells {
		return &CorruptSnapshotError{Reason: fmt.Sprintf("matchedCells %d exceeds totalCells %d", p.MatchedCells, p.TotalCells)}
	}
	if len(p.CellStates) == 0 {
		return nil
	}
	if len(p.SymbolArrangement) != p.TotalCells {
		return &CorruptSnapshotError{Reason: "cell states without a matching arrangement"}
	}
	seen := make(map[int]struct{}, len(p.CellStates))
	perSymbol := make(map[string]int)
	for _, cs := range p.CellStates {
		if cs.CellIndex < 0 || cs.CellIndex >= p.TotalCells {
			return &CorruptSnapshotError{Reason: fmt.Sprintf("cell index %d out of range", cs.CellIndex)}
		}
		if !cs.IsMatched {
			return &CorruptSnapshotError{Reason: fmt.Sprintf("cell %d saved unmatched", cs.CellIndex)}
		}
		if _, dup := seen[cs.CellIndex]; dup {
			return &CorruptSnapshotError{Reason: fmt.Sprintf("cell %d saved twice", cs.CellIndex)}
		}
		seen[cs.CellIndex] = struct{}{}
		if p.SymbolArrangement[cs.CellIndex] != cs.CellID {
			return &CorruptSnapshotError{Reason: fmt.Sprintf("cell %d symbol %q != arrangement %q", cs.CellIndex, cs.CellID, p.SymbolArrangement[cs.CellIndex])}
		}
		perSymbol[cs.CellID]++
	}
	for s, n := range perSymbol {
		if n%2 != 0 {
			return &CorruptSnapshotError{Reason: fmt.Sprintf("symbol %q matched an odd number of times", s)}
		}
	}
	return nil
}

// discardBoardState drops everything tied to the saved board.
func discardBoardState(p *LevelProgress) {
	p.MatchedCells = 0
	p.CurrentScore = 0
	p.SymbolArrangement = nil
	p.CellStates = nil
}

// Restored is the engine state rebuilt from a snapshot.
type Restored struct {
	Progress   LevelProgress
	TotalScore int
	Board      *board.Board
	// Regenerated is true when the saved arrangement was not reused.
	Regenerated bool
}

// Restore rebuilds progress and board from snap.
//
// A *CorruptSnapshotError is returned alongside a usable, freshly regenerated
// state. A capacity error returns no state.
func Restore(snap *Snapshot, cat *symbols.Catalog, rng *rand.Rand, slots int) (*Restored, error) {
	p := progressFromSnapshot(snap)
	total := snap.TotalScore
	if total < 0 {
		total = 0
	}

	corrupt := normalizeStructure(&p)
	if bad := checkBoardState(&p); bad != nil {
		discardBoardState(&p)
		if corrupt == nil {
			corrupt = bad
		}
	}

	b, arrangement, reused, err := board.Setup(p.TotalCells, slots, p.SymbolArrangement, cat, rng)
	if err != nil {
		return nil, err
	}
	p.SymbolArrangement = arrangement
	for _, cs := range p.CellStates {
		b.SetStatus(cs.CellIndex, board.Matched)
	}

	r := &Restored{Progress: p, TotalScore: total, Board: b, Regenerated: !reused}
	if corrupt != nil {
		return r, corrupt
	}
	return r, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
