// Package tui is the terminal front-end: a bubbletea program that owns one
// engine, turns key presses into intents and draws each new snapshot.
package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robalobadob/motus/internal/game"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#0B3D91")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Bold(true).
			Width(3).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#1E5AA8"))

	correctStyle  = cellStyle.Background(lipgloss.Color("#D7263D"))
	misplaceStyle = cellStyle.Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#F4D35E"))
	emptyStyle    = cellStyle.Foreground(lipgloss.Color("#8FA8C8"))

	keyStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#FAFAFA"))
	disabledStyle = keyStyle.Foreground(lipgloss.Color("#555555")).Strikethrough(true)

	wonStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#90EE90"))
	lostStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// WordsFunc supplies the word list, typically words.Repository.Words.
type WordsFunc func(ctx context.Context) ([]string, error)

// Model is the bubbletea model. All engine calls happen in Update, which
// bubbletea runs on a single goroutine.
type Model struct {
	eng     *game.Engine
	words   WordsFunc
	session game.Session
	spinner spinner.Model
	err     error
}

type wordsMsg struct {
	list []string
	err  error
}

// New returns a model driving eng with words loaded from load.
func New(eng *game.Engine, load WordsFunc) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &Model{eng: eng, words: load, session: eng.Snapshot(), spinner: sp}
}

// Run starts the program full-screen and blocks until the player quits.
func Run(ctx context.Context, eng *game.Engine, load WordsFunc) error {
	_, err := tea.NewProgram(New(eng, load), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// Session returns the last snapshot drawn.
func (m *Model) Session() game.Session { return m.session }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchWords)
}

func (m *Model) fetchWords() tea.Msg {
	list, err := m.words(context.Background())
	return wordsMsg{list: list, err: err}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case wordsMsg:
		m.err = msg.err
		if msg.err == nil {
			m.eng.Deliver(msg.list)
		}

	case spinner.TickMsg:
		if m.session.State != game.StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyBackspace:
			m.eng.DeleteLastLetter()
		case tea.KeyEnter:
			if m.session.ReadyToSubmit {
				m.eng.SubmitWord()
			}
		case tea.KeyCtrlN:
			m.eng.ResetGame()
		case tea.KeyCtrlR:
			if m.session.State == game.StateLoading && m.err != nil {
				m.err = nil
				return m, tea.Batch(m.spinner.Tick, m.fetchWords)
			}
		case tea.KeyRunes:
			for _, r := range msg.Runes {
				m.typeLetter(r)
			}
		}
	}

	m.session = m.eng.Snapshot()
	return m, nil
}

// typeLetter forwards r unless it is not a letter or already ruled out.
func (m *Model) typeLetter(r rune) {
	if !unicode.IsLetter(r) {
		return
	}
	r = unicode.ToLower(r)
	if m.eng.Snapshot().IsDisabled(r) {
		return
	}
	m.eng.SubmitLetter(r)
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("MOTUS"))
	b.WriteString("\n\n")

	s := m.session
	if s.State == game.StateLoading {
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Could not load the word list: %v", m.err)))
			b.WriteString("\n\n")
			b.WriteString(helpStyle.Render("ctrl+r retry • esc quit"))
			return b.String()
		}
		b.WriteString(m.spinner.View() + " loading words...\n")
		return b.String()
	}

	for i := 0; i < s.MaxAttempts; i++ {
		var cells []string
		for _, c := range s.Row(i) {
			cells = append(cells, renderCell(c))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, row := range game.KeyboardRows {
		var keys []string
		for _, k := range row {
			st := keyStyle
			if s.IsDisabled(unicode.ToLower(k)) {
				st = disabledStyle
			}
			keys = append(keys, st.Render(string(k)))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, keys...))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch s.State {
	case game.StateWon:
		b.WriteString(wonStyle.Render("Bravo! " + s.Message))
		b.WriteString("\n")
	case game.StateLost:
		b.WriteString(lostStyle.Render("Perdu. " + s.Message))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("letters type • backspace delete • enter submit • ctrl+n new word • esc quit"))
	return b.String()
}

func renderCell(c game.Cell) string {
	l := strings.ToUpper(string(c.Letter))
	switch c.Status {
	case game.StatusCorrect:
		return correctStyle.Render(l)
	case game.StatusWrongPosition:
		return misplaceStyle.Render(l)
	case game.StatusWrong:
		return cellStyle.Render(l)
	}
	if c.Letter == ' ' {
		return emptyStyle.Render(".")
	}
	return emptyStyle.Render(l)
}
