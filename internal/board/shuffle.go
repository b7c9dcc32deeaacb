package board

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// NewRand returns the pseudo-random source used for board shuffles.
// A nonzero seed is fully deterministic; seed 0 draws one from crypto/rand
// (falling back to the clock).
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = entropySeed()
	}
	return rand.New(rand.NewSource(seed))
}

func entropySeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// Shuffle permutes s in place with Fisher–Yates: walking from the last index
// down to 1, each element swaps with a uniformly chosen index in [0, i].
func Shuffle[T any](s []T, rng *rand.Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
