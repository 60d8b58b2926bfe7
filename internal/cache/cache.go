// internal/cache/cache.go
//
// Persistence port for the word list.
// The cached value is an opaque string set stored under a single key
// ("words_list") in a "preferences" table or bucket. Implementations:
//   - SQLite (sqlite.go): shares the server database file by default.
//   - bbolt (bolt.go): standalone embedded key/value file.
//   - memory (memory.go): tests and throwaway runs.
//
// A missing key loads as an empty list; callers treat empty as "no data yet".

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
)

// WordsKey is the key the word list is stored under.
const WordsKey = "words_list"

// Cache stores and returns the word list.
type Cache interface {
	// Load returns the cached words, or an empty list when nothing is cached.
	Load(ctx context.Context) ([]string, error)
	// Save replaces the cached words.
	Save(ctx context.Context, words []string) error
	// Close releases the underlying resources.
	Close() error
}

// encodeSet serialises words as a sorted, de-duplicated JSON array.
func encodeSet(words []string) ([]byte, error) {
	set := slices.Clone(words)
	slices.Sort(set)
	set = slices.Compact(set)
	if set == nil {
		set = []string{}
	}
	return json.Marshal(set)
}

func decodeSet(b []byte) ([]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", WordsKey, err)
	}
	return out, nil
}
