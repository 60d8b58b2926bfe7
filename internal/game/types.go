// internal/game/types.go
//
// Core type definitions for the Motus game engine.
// Defines:
//   - CellStatus: per-cell colouring (empty/correct/wrong position/wrong).
//   - State: session lifecycle (loading → playing → won/lost).
//   - Cell: one grid position.
//   - Session: an immutable snapshot of the game published to observers.

package game

import (
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf8"
)

// Board dimensions used when no option overrides them.
const (
	DefaultLetterCount = 6
	DefaultMaxAttempts = 7
)

// CellStatus represents the evaluation of a single grid cell.
//   - "empty":          not yet scored (or blank).
//   - "correct":        letter at the right position.
//   - "wrong_position": letter present elsewhere in the word.
//   - "wrong":          letter absent from the word.
type CellStatus string

const (
	StatusEmpty         CellStatus = "empty"
	StatusCorrect       CellStatus = "correct"
	StatusWrongPosition CellStatus = "wrong_position"
	StatusWrong         CellStatus = "wrong"
)

// State is the coarse lifecycle of a session.
type State string

const (
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StateWon     State = "won"
	StateLost    State = "lost"
)

// Finished reports whether no more letters or words are accepted.
func (s State) Finished() bool { return s == StateWon || s == StateLost }

// Cell is one grid position. A space letter means the cell is empty.
type Cell struct {
	Letter rune
	Status CellStatus
}

// emptyCell is the value every non-seeded cell starts with.
var emptyCell = Cell{Letter: ' ', Status: StatusEmpty}

// MarshalJSON encodes the letter as a one-character string.
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Letter string     `json:"letter"`
		Status CellStatus `json:"status"`
	}{string(c.Letter), c.Status})
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (c *Cell) UnmarshalJSON(b []byte) error {
	var v struct {
		Letter string     `json:"letter"`
		Status CellStatus `json:"status"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	r, n := utf8.DecodeRuneInString(v.Letter)
	if n == 0 || n != len(v.Letter) {
		return fmt.Errorf("cell letter %q: want one character", v.Letter)
	}
	c.Letter, c.Status = r, v.Status
	return nil
}

// Session is a snapshot of one game. Values handed out by the engine are
// deep copies and are never mutated afterwards.
type Session struct {
	SelectedWord    string `json:"-"`
	Grid            []Cell `json:"grid"`
	LetterCount     int    `json:"letterCount"`
	MaxAttempts     int    `json:"maxAttempts"`
	CurrentAttempt  int    `json:"currentAttempt"`
	CurrentColumn   int    `json:"currentColumn"`
	DisabledLetters []rune `json:"-"`
	ReadyToSubmit   bool   `json:"readyToSubmit"`
	State           State  `json:"state"`
	Message         string `json:"message"`
}

// clone returns a deep copy of s.
func (s Session) clone() Session {
	s.Grid = slices.Clone(s.Grid)
	s.DisabledLetters = slices.Clone(s.DisabledLetters)
	return s
}

// IsDisabled reports whether r has been proven absent from the word.
func (s Session) IsDisabled(r rune) bool {
	return slices.Contains(s.DisabledLetters, r)
}

// Row returns the cells of attempt i, or nil when i is out of range.
func (s Session) Row(i int) []Cell {
	if s.LetterCount <= 0 || i < 0 || (i+1)*s.LetterCount > len(s.Grid) {
		return nil
	}
	return s.Grid[i*s.LetterCount : (i+1)*s.LetterCount]
}
