// internal/store/game.go
//
// Game: one registered session (engine + owner + mode metadata).
// Every engine call goes through the game's mutex; the engine itself is
// not safe for concurrent use.

package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/robalobadob/motus/internal/game"
)

// Mode tells how a game's target word was chosen.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeDaily  Mode = "daily"
)

// Game is one registered session. The engine is not safe for concurrent
// use, so every call goes through Apply or Snapshot, which serialise on mu.
type Game struct {
	ID        string
	Mode      Mode
	UserID    string // empty for guests
	AnonID    string // set for guests
	DailyDate string // set for daily games
	DailyIdx  int
	StartedAt time.Time

	mu      sync.Mutex
	eng     *game.Engine
	round   int
	touched time.Time
}

// NewGame registers eng under id.
func NewGame(id string, mode Mode, eng *game.Engine) *Game {
	now := time.Now().UTC()
	return &Game{ID: id, Mode: mode, StartedAt: now, eng: eng, touched: now}
}

// Apply runs fn against the engine under the game lock and returns the
// snapshots taken just before and just after it.
func (g *Game) Apply(fn func(*game.Engine)) (before, after game.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	before = g.eng.Snapshot()
	fn(g.eng)
	g.touched = time.Now().UTC()
	return before, g.eng.Snapshot()
}

// Snapshot returns the current session.
func (g *Game) Snapshot() game.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng.Snapshot()
}

// Subscribe follows the engine's snapshot feed. The feed has its own lock.
func (g *Game) Subscribe() (<-chan game.Session, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng.Subscribe()
}

// Restart resets the start time and opens a new round, used when the
// player asks for a new word.
func (g *Game) Restart() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.StartedAt = time.Now().UTC()
	g.round++
}

// RowID identifies the current round in the games history table. The
// first round uses the game ID itself.
func (g *Game) RowID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.round == 0 {
		return g.ID
	}
	return fmt.Sprintf("%s.%d", g.ID, g.round)
}

// activity reports the current state, the last Apply and whether a stream
// is following the game.
func (g *Game) activity() (game.State, time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng.Snapshot().State, g.touched, g.eng.Subscribers() > 0
}

// Elapsed returns the time since the game (re)started.
func (g *Game) Elapsed() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return time.Since(g.StartedAt)
}
