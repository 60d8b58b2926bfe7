// internal/game/format.go
//
// Plain-text rendering of a session, used by the MCP tools, plus the
// AZERTY keyboard layout shared by the clients.

package game

import (
	"fmt"
	"strings"
	"unicode"
)

// KeyboardRows is the AZERTY layout the clients render.
var KeyboardRows = [][]rune{
	[]rune("AZERTYUIOP"),
	[]rune("QSDFGHJKLM"),
	[]rune("WXCVBN"),
}

// statusMarks maps a cell status to the bracket pair used by Format.
var statusMarks = map[CellStatus][2]string{
	StatusCorrect:       {"[", "]"},
	StatusWrongPosition: {"(", ")"},
	StatusWrong:         {" ", " "},
	StatusEmpty:         {" ", " "},
}

// Format renders s as plain text: one line per attempt, with [X] for a
// correct letter, (X) for a misplaced one and a dot for an empty cell.
func Format(s Session) string {
	var b strings.Builder
	switch s.State {
	case StateLoading:
		return "waiting for the word list\n"
	case StateWon:
		fmt.Fprintf(&b, "won: %s\n", s.Message)
	case StateLost:
		fmt.Fprintf(&b, "lost: %s\n", s.Message)
	default:
		fmt.Fprintf(&b, "attempt %d/%d\n", s.CurrentAttempt+1, s.MaxAttempts)
	}

	for i := 0; i < s.MaxAttempts; i++ {
		row := s.Row(i)
		if row == nil {
			break
		}
		for _, c := range row {
			l := "."
			if c.Letter != ' ' {
				l = string(unicode.ToUpper(c.Letter))
			}
			m := statusMarks[c.Status]
			b.WriteString(m[0] + l + m[1])
		}
		b.WriteByte('\n')
	}

	if len(s.DisabledLetters) > 0 {
		b.WriteString("absent: ")
		for _, r := range s.DisabledLetters {
			b.WriteRune(unicode.ToUpper(r))
		}
		b.WriteByte('\n')
	}
	if s.ReadyToSubmit {
		b.WriteString("row complete, submit the word\n")
	}
	return b.String()
}
