package symbols

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDefault(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	return c
}

func TestDefaultAlphabets(t *testing.T) {
	c := mustDefault(t)
	assert.Len(t, c.Alphabet(TierBasic), 26)
	assert.Len(t, c.Alphabet(TierExtra), 32)
	assert.Len(t, c.Alphabet(TierCombined), 58)
	assert.Equal(t, 32, c.MaxDistinctPairs())
}

func TestTierFor(t *testing.T) {
	c := mustDefault(t)
	tests := []struct {
		pairs int
		want  Tier
	}{
		{1, TierBasic},
		{26, TierBasic},
		{27, TierExtra},
		{58, TierExtra},
		{59, TierCombined},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.TierFor(tt.pairs), "pairs=%d", tt.pairs)
	}
}

func TestGeneratePairSymbols_BasicTier(t *testing.T) {
	c := mustDefault(t)
	got := c.GeneratePairSymbols(26)
	require.Len(t, got, 52)

	basic := toSet(c.Alphabet(TierBasic))
	counts := map[Symbol]int{}
	for _, s := range got {
		_, ok := basic[s]
		assert.True(t, ok, "symbol %q outside basic tier", s)
		counts[s]++
	}
	assert.Len(t, counts, 26)
	for s, n := range counts {
		assert.Equal(t, 2, n, "symbol %q", s)
	}
}

func TestGeneratePairSymbols_ExtraTierExclusively(t *testing.T) {
	c := mustDefault(t)
	got := c.GeneratePairSymbols(27)
	require.Len(t, got, 54)

	extra := toSet(c.Alphabet(TierExtra))
	for _, s := range got {
		_, ok := extra[s]
		assert.True(t, ok, "symbol %q outside extra tier", s)
	}
}

func TestGeneratePairSymbols_SequentialTwins(t *testing.T) {
	c := mustDefault(t)
	assert.Equal(t, []Symbol{"A", "A", "B", "B", "C", "C"}, c.GeneratePairSymbols(3))
	assert.Empty(t, c.GeneratePairSymbols(0))
}

func TestGeneratePairSymbols_WrapsPastTierLength(t *testing.T) {
	c := mustDefault(t)
	got := c.GeneratePairSymbols(33)
	counts := map[Symbol]int{}
	for _, s := range got {
		counts[s]++
	}
	// Pair 33 reuses the first extra symbol.
	assert.Equal(t, 4, counts["0"])
}

func TestNewRejectsOverlap(t *testing.T) {
	_, err := New([]Symbol{"A", "B"}, []Symbol{"B", "1"})
	assert.Error(t, err)

	_, err = New(nil, []Symbol{"1"})
	assert.Error(t, err)
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	basic := filepath.Join(dir, "basic.txt")
	require.NoError(t, os.WriteFile(basic, []byte("# comment\nα\nβ\n\nγ\n"), 0o644))
	t.Setenv("SYMBOLS_BASIC_FILE", basic)
	t.Setenv("SYMBOLS_EXTRA_FILE", "")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []Symbol{"α", "β", "γ"}, c.Alphabet(TierBasic))
	assert.Len(t, c.Alphabet(TierExtra), 32)
	assert.Equal(t, TierExtra, c.TierFor(4))
}

func toSet(list []Symbol) map[Symbol]struct{} {
	m := make(map[Symbol]struct{}, len(list))
	for _, s := range list {
		m[s] = struct{}{}
	}
	return m
}
