package board

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cardmatch/internal/symbols"
)

func catalog(t *testing.T) *symbols.Catalog {
	t.Helper()
	c, err := symbols.Default()
	require.NoError(t, err)
	return c
}

func TestShuffle_SameSeedSamePermutation(t *testing.T) {
	a := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	b := append([]int(nil), a...)

	Shuffle(a, NewRand(42))
	Shuffle(b, NewRand(42))
	assert.Equal(t, a, b)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, a)
}

func TestShuffle_ShortSlices(t *testing.T) {
	rng := NewRand(7)
	var empty []string
	Shuffle(empty, rng)
	one := []string{"A"}
	Shuffle(one, rng)
	assert.Equal(t, []string{"A"}, one)
}

func TestNewRand_ZeroSeedIsUsable(t *testing.T) {
	rng := NewRand(0)
	n := rng.Intn(10)
	assert.True(t, n >= 0 && n < 10)
}

func TestSetup_FreshBoard(t *testing.T) {
	b, arr, reused, err := Setup(8, 64, nil, catalog(t), NewRand(1))
	require.NoError(t, err)
	assert.False(t, reused)
	require.Equal(t, 8, b.Len())
	assert.Equal(t, arr, b.Arrangement())

	counts := map[string]int{}
	for i, c := range b.Cells() {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, FaceDown, c.Status)
		counts[c.Symbol]++
	}
	assert.Len(t, counts, 4)
	for s, n := range counts {
		assert.Equal(t, 2, n, "symbol %q", s)
	}
}

func TestSetup_ReusesMatchingArrangement(t *testing.T) {
	saved := []string{"B", "A", "A", "B"}
	b, arr, reused, err := Setup(4, 64, saved, catalog(t), NewRand(99))
	require.NoError(t, err)
	assert.True(t, reused)
	assert.Equal(t, saved, arr)
	assert.Equal(t, saved, b.Arrangement())

	// The returned arrangement must not alias the caller's slice.
	arr[0] = "Z"
	assert.Equal(t, "B", saved[0])
}

func TestSetup_RegeneratesOnLengthMismatch(t *testing.T) {
	_, arr, reused, err := Setup(6, 64, []string{"A", "A", "B", "B"}, catalog(t), NewRand(3))
	require.NoError(t, err)
	assert.False(t, reused)
	assert.Len(t, arr, 6)
}

func TestSetup_Capacity(t *testing.T) {
	tests := []struct {
		name  string
		cells int
		slots int
	}{
		{"odd", 5, 64},
		{"zero", 0, 64},
		{"too many", 66, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Setup(tt.cells, tt.slots, nil, catalog(t), NewRand(1))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCapacity))
			var ce *CapacityError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.cells, ce.TotalCells)
		})
	}
}

func TestBoard_StatusTracking(t *testing.T) {
	b := FromArrangement([]string{"A", "A", "B", "B"})
	b.SetStatus(0, Matched)
	b.SetStatus(1, Matched)
	b.SetStatus(2, FaceUp)
	assert.Equal(t, 2, b.CountMatched())
	assert.Len(t, b.MatchedCells(), 2)
	assert.True(t, b.InRange(3))
	assert.False(t, b.InRange(4))
	assert.False(t, b.InRange(-1))
	assert.Equal(t, "face_up", b.Cell(2).Status.String())
	assert.Equal(t, "face_down", b.Cell(3).Status.String())
}
