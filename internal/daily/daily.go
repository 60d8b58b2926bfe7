// Package daily implements the Daily Challenge: every player gets the same
// word for a given UTC day, and wins are recorded for a leaderboard.
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

// WordIndex returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD) % n.
func WordIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Picker selects the day's word. It satisfies game.Picker.
type Picker struct {
	Salt string
	Now  func() time.Time // defaults to time.Now
}

// Pick returns words[WordIndex(today)], or "" for an empty list.
func (p Picker) Pick(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[WordIndex(p.now(), p.Salt, len(words))]
}

// Today returns the date key and word index Pick would use for words.
func (p Picker) Today(words []string) (date string, idx int) {
	now := p.now()
	return DateKey(now), WordIndex(now, p.Salt, len(words))
}

func (p Picker) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
