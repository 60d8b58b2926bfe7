// internal/game/engine.go
//
// Core game engine for a single Motus session.
// Responsibilities:
//   - Start sessions from a delivered word list (first letter pre-filled).
//   - Edit the current row: add a letter, delete the last letter.
//   - Validate a full row: win, loss (unknown word or last attempt), or colour
//     the row letter by letter and advance to the next attempt.
//   - Publish an immutable snapshot after every mutation.
//
// Notes:
//   - The engine is synchronous and holds no lock. Callers that receive
//     events from several goroutines must serialise calls (see store.Game).
//   - Invalid calls (wrong state, full row, seeded cell) are silent no-ops.
//   - Colouring is a plain membership test per letter: a letter present once
//     in the word but guessed twice is marked wrong_position both times.
package game

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// Option configures an Engine.
type Option func(*Engine)

// WithPicker sets the target word picker.
func WithPicker(p Picker) Option { return func(e *Engine) { e.picker = p } }

// WithLetterCount sets the number of letters per word (>= 2).
func WithLetterCount(n int) Option {
	return func(e *Engine) {
		if n >= 2 {
			e.letterCount = n
		}
	}
}

// WithMaxAttempts sets the number of rows (>= 1).
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxAttempts = n
		}
	}
}

// Engine owns the session lifecycle and all state transitions.
type Engine struct {
	letterCount int
	maxAttempts int
	picker      Picker

	words []string            // last non-empty list handed to StartNewGame
	dict  map[string]struct{} // membership set for words

	target  []rune
	session Session
	feed    *Feed
}

// New constructs an engine in the loading state.
func New(opts ...Option) *Engine {
	e := &Engine{
		letterCount: DefaultLetterCount,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, o := range opts {
		o(e)
	}
	if e.picker == nil {
		e.picker = NewRandomPicker(nil)
	}
	e.session = Session{
		LetterCount:   e.letterCount,
		MaxAttempts:   e.maxAttempts,
		CurrentColumn: -1,
		State:         StateLoading,
	}
	e.feed = NewFeed(e.session)
	return e
}

// Snapshot returns a copy of the current session.
func (e *Engine) Snapshot() Session { return e.session.clone() }

// Subscribe returns a channel holding the latest snapshot, then every
// subsequent one, and a cancel func.
func (e *Engine) Subscribe() (<-chan Session, func()) { return e.feed.Subscribe() }

// Subscribers returns the number of live subscriptions.
func (e *Engine) Subscribers() int { return e.feed.Subscribers() }

// Words returns the word list the current session was started from.
func (e *Engine) Words() []string { return slices.Clone(e.words) }

// Deliver hands a freshly fetched word list to the engine. A session is
// started only while still loading; later deliveries never reset a game.
func (e *Engine) Deliver(words []string) {
	if e.session.State != StateLoading {
		return
	}
	e.StartNewGame(words)
}

// ResetGame starts a new session from the last delivered list.
func (e *Engine) ResetGame() {
	if len(e.words) == 0 {
		return
	}
	e.StartNewGame(e.words)
}

// StartNewGame picks a word from words and replaces the session.
// Empty lists, and picked words that are empty or of the wrong length, leave
// the engine untouched.
func (e *Engine) StartNewGame(words []string) {
	if len(words) == 0 {
		return
	}
	word := e.picker.Pick(words)
	if word == "" || utf8.RuneCountInString(word) != e.letterCount {
		return
	}
	if !slices.Equal(e.words, words) {
		e.words = slices.Clone(words)
		e.dict = make(map[string]struct{}, len(words))
		for _, w := range words {
			e.dict[w] = struct{}{}
		}
	}
	e.target = []rune(word)

	grid := make([]Cell, e.letterCount*e.maxAttempts)
	for i := range grid {
		grid[i] = emptyCell
	}
	grid[0] = Cell{Letter: e.target[0], Status: StatusCorrect}

	e.session = Session{
		SelectedWord:   word,
		Grid:           grid,
		LetterCount:    e.letterCount,
		MaxAttempts:    e.maxAttempts,
		CurrentAttempt: 0,
		CurrentColumn:  0, // column 0 holds the seeded letter
		State:          StatePlaying,
	}
	e.publish()
}

// SubmitLetter writes r into the next free cell of the current row.
func (e *Engine) SubmitLetter(r rune) {
	s := &e.session
	if s.State != StatePlaying {
		return
	}
	idx := s.CurrentAttempt*e.letterCount + s.CurrentColumn
	if s.CurrentColumn >= e.letterCount-1 || idx >= len(s.Grid)-1 {
		return
	}
	s.Grid[idx+1] = Cell{Letter: r, Status: StatusEmpty}
	s.CurrentColumn++
	s.ReadyToSubmit = s.CurrentColumn == e.letterCount-1
	e.publish()
}

// DeleteLastLetter clears the most recently written cell of the current
// row. The seeded first cell of the grid is never cleared.
func (e *Engine) DeleteLastLetter() {
	s := &e.session
	if s.State != StatePlaying || s.CurrentColumn < 0 {
		return
	}
	idx := s.CurrentAttempt*e.letterCount + s.CurrentColumn
	if idx <= 0 {
		return
	}
	s.Grid[idx] = emptyCell
	s.CurrentColumn--
	s.ReadyToSubmit = s.CurrentColumn == e.letterCount-1
	e.publish()
}

// SubmitWord validates the current row once it is full.
//
// Order of checks:
//  1. exact match → won (dictionary and attempt count are not consulted);
//  2. unknown word, or last attempt → lost;
//  3. otherwise colour the row, disable absent letters, move to next row.
func (e *Engine) SubmitWord() {
	s := &e.session
	if s.State != StatePlaying || s.CurrentColumn < e.letterCount-1 {
		return
	}

	start := s.CurrentAttempt * e.letterCount
	end := start + s.CurrentColumn
	row := s.Grid[start : end+1]
	guess := make([]rune, len(row))
	for i, c := range row {
		guess[i] = c.Letter
	}
	playerWord := string(guess)

	if playerWord == s.SelectedWord {
		e.finish(StateWon)
		return
	}
	if _, known := e.dict[playerWord]; !known || s.CurrentAttempt >= e.maxAttempts-1 {
		e.finish(StateLost)
		return
	}

	for i, want := range e.target {
		got := s.Grid[start+i].Letter
		switch {
		case got == want:
			s.Grid[start+i].Status = StatusCorrect
		case slices.Contains(e.target, got):
			s.Grid[start+i].Status = StatusWrongPosition
		default:
			s.Grid[start+i].Status = StatusWrong
			if !slices.Contains(s.DisabledLetters, got) {
				s.DisabledLetters = append(s.DisabledLetters, got)
			}
		}
	}
	s.CurrentAttempt++
	s.CurrentColumn = -1
	s.ReadyToSubmit = false
	e.publish()
}

func (e *Engine) finish(st State) {
	e.session.State = st
	e.session.Message = fmt.Sprintf("used word: %s", e.session.SelectedWord)
	e.publish()
}

func (e *Engine) publish() { e.feed.Publish(e.session) }
