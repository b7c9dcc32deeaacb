// internal/symbols/symbols.go
//
// Symbol catalog for the card-match engine.
//
// Responsibilities:
//   - Hold the two source alphabets (Basic, Extra) and the derived Combined tier.
//   - Select a tier from the number of pairs a level needs.
//   - Produce the ordered pair multiset {s1,s1,s2,s2,...} for a level.
//
// Tier rule for a pair count p:
//   p <= |Basic|          → Basic
//   p <= |Basic|+|Extra|  → Extra
//   otherwise             → Combined (Basic ++ Extra)
//
// Symbols wrap (modulo) inside the chosen tier once p exceeds its length, so
// more than two cells can share a symbol. Callers that need the "exactly two
// per symbol" guarantee must keep p <= len(tier); see MaxDistinctPairs.
//
// Alphabet sources (Load):
//   1. SYMBOLS_BASIC_FILE / SYMBOLS_EXTRA_FILE, one symbol per line, when set.
//   2. Otherwise the embedded defaults in assets/alphabets.
package symbols

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/cardmatch/assets"
)

// Symbol is an opaque, case-sensitive card face identifier.
type Symbol = string

// Tier identifies which alphabet a pair set was drawn from.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierExtra    Tier = "extra"
	TierCombined Tier = "combined"
)

// Catalog holds the source alphabets. It is immutable after construction and
// safe for concurrent use.
type Catalog struct {
	basic    []Symbol
	extra    []Symbol
	combined []Symbol
}

// New builds a catalog from two alphabets. The alphabets must be non-empty and
// disjoint, with no duplicates inside either one.
func New(basic, extra []Symbol) (*Catalog, error) {
	if len(basic) == 0 || len(extra) == 0 {
		return nil, errors.New("symbols: basic and extra alphabets must be non-empty")
	}
	seen := make(map[Symbol]struct{}, len(basic)+len(extra))
	for _, list := range [][]Symbol{basic, extra} {
		for _, s := range list {
			if s == "" {
				return nil, errors.New("symbols: empty symbol")
			}
			if _, dup := seen[s]; dup {
				return nil, fmt.Errorf("symbols: duplicate symbol %q", s)
			}
			seen[s] = struct{}{}
		}
	}
	c := &Catalog{
		basic: append([]Symbol(nil), basic...),
		extra: append([]Symbol(nil), extra...),
	}
	c.combined = append(append([]Symbol(nil), c.basic...), c.extra...)
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the catalog built from the embedded alphabets.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		basic, err := assets.BasicAlphabet()
		if err != nil {
			defaultErr = err
			return
		}
		extra, err := assets.ExtraAlphabet()
		if err != nil {
			defaultErr = err
			return
		}
		defaultCat, defaultErr = New(basic, extra)
	})
	return defaultCat, defaultErr
}

// Load builds a catalog honoring SYMBOLS_BASIC_FILE and SYMBOLS_EXTRA_FILE.
// A missing variable falls back to the embedded alphabet for that tier.
func Load() (*Catalog, error) {
	def, err := Default()
	if err != nil {
		return nil, err
	}
	basicPath := os.Getenv("SYMBOLS_BASIC_FILE")
	extraPath := os.Getenv("SYMBOLS_EXTRA_FILE")
	if basicPath == "" && extraPath == "" {
		return def, nil
	}

	basic, extra := def.basic, def.extra
	if basicPath != "" {
		if basic, err = readSymbolFile(basicPath); err != nil {
			return nil, err
		}
	}
	if extraPath != "" {
		if extra, err = readSymbolFile(extraPath); err != nil {
			return nil, err
		}
	}
	return New(basic, extra)
}

// readSymbolFile loads one symbol per line, skipping blanks and # comments.
func readSymbolFile(path string) ([]Symbol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []Symbol
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// TierFor reports which tier serves pairCount pairs.
func (c *Catalog) TierFor(pairCount int) Tier {
	switch {
	case pairCount <= len(c.basic):
		return TierBasic
	case pairCount <= len(c.basic)+len(c.extra):
		return TierExtra
	default:
		return TierCombined
	}
}

// Alphabet returns a copy of the symbols in tier t.
func (c *Catalog) Alphabet(t Tier) []Symbol {
	return append([]Symbol(nil), c.alphabet(t)...)
}

func (c *Catalog) alphabet(t Tier) []Symbol {
	switch t {
	case TierBasic:
		return c.basic
	case TierExtra:
		return c.extra
	default:
		return c.combined
	}
}

// MaxDistinctPairs is the largest pair count n such that every pair count
// from 1 to n gets distinct symbols.
func (c *Catalog) MaxDistinctPairs() int {
	// Counts just above |Basic| switch to Extra, so Extra decides past that point.
	if len(c.extra) > len(c.basic) {
		return len(c.extra)
	}
	return len(c.basic)
}

// GeneratePairSymbols returns 2*pairCount symbols in sequential order: each
// drawn symbol is immediately followed by its twin. No randomness is involved.
func (c *Catalog) GeneratePairSymbols(pairCount int) []Symbol {
	if pairCount <= 0 {
		return []Symbol{}
	}
	alpha := c.alphabet(c.TierFor(pairCount))
	out := make([]Symbol, 0, 2*pairCount)
	for i := 0; i < pairCount; i++ {
		s := alpha[i%len(alpha)]
		out = append(out, s, s)
	}
	return out
}
