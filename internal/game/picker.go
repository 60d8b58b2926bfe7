// internal/game/picker.go
//
// Target word selection.
//   - Picker: the strategy interface the engine calls on every new session.
//   - RandomPicker: uniform choice from a math/rand/v2 source.
//   - FixedPicker: always the same word (tests, demos).
// The daily picker lives in internal/daily.

package game

import (
	"math/rand/v2"
	"sync"
)

// Picker chooses the target word of a new session from a non-empty list.
type Picker interface {
	Pick(words []string) string
}

// RandomPicker selects uniformly at random from its source.
type RandomPicker struct {
	mu  sync.Mutex // rand.Rand is not safe for concurrent use
	rng *rand.Rand
}

// NewRandomPicker returns a picker drawing from src. A nil src uses a
// randomly seeded PCG source.
func NewRandomPicker(src rand.Source) *RandomPicker {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &RandomPicker{rng: rand.New(src)}
}

// Pick returns one element of words, or "" when words is empty.
func (p *RandomPicker) Pick(words []string) string {
	if len(words) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return words[p.rng.IntN(len(words))]
}

// FixedPicker always returns the same word, regardless of the list.
type FixedPicker string

// Pick implements Picker.
func (f FixedPicker) Pick([]string) string { return string(f) }
