// internal/words/words.go
//
// Word list normalisation shared by every word source.
//
// Responsibilities:
//   - Split a delimiter-separated blob into candidate words (Parse).
//   - Normalise: trim, lowercase, drop blanks and "#" comment lines, keep only
//     alphabetic words of the configured length, de-duplicate in order.
//   - Report simple statistics for diagnostics (Stats).
//
// Sources (source.go) and the cache-first repository (repository.go) build on
// these helpers.

package words

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentinel errors callers branch on.
var (
	// ErrEmptyList means a source answered but yielded no usable word.
	ErrEmptyList = errors.New("words: list is empty")
	// ErrFetchFailed means the remote endpoint could not be read.
	ErrFetchFailed = errors.New("words: fetching data failed")
)

// Parse splits body on delim and normalises every entry.
func Parse(body, delim string, letterCount int) []string {
	if delim == "" {
		delim = "\n"
	}
	return normalize(strings.Split(body, delim), letterCount)
}

// normalize lowercases and filters raw entries, keeping the first
// occurrence of each word.
func normalize(raw []string, letterCount int) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		w := strings.ToLower(strings.TrimSpace(s))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		if utf8.RuneCountInString(w) != letterCount || !isAlpha(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// isAlpha reports whether s is made of letters only.
func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Stats summarises a word list.
type Stats struct {
	Count        int `json:"count"`
	FirstLetters int `json:"firstLetters"` // distinct first letters
}

// Summarize returns Stats for list.
func Summarize(list []string) Stats {
	firsts := make(map[rune]struct{})
	for _, w := range list {
		r, _ := utf8.DecodeRuneInString(w)
		firsts[r] = struct{}{}
	}
	return Stats{Count: len(list), FirstLetters: len(firsts)}
}
