// Package daily derives the shared "board of the day".
//
// Every player who starts a daily game on the same UTC date gets the same
// shuffle seed, so the same sequence of boards.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic, nonzero shuffle seed for a date using
// HMAC(salt, YYYY-MM-DD). Zero is reserved for "seed from entropy".
func Seed(date time.Time, salt string) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes, top bit cleared to stay positive
	n := int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
	if n == 0 {
		n = 1
	}
	return n
}
