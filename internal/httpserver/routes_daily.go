// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes two endpoints under /daily:
//   - POST /daily/new         → start a daily game (creates or reuses session)
//   - GET  /daily/leaderboard → fetch top results for today (or a given date)
//
// A daily game is an ordinary registered game whose word comes from
// daily.Picker, so it is played through the /game/{id}/* intents.
// Each player can win once per day (enforced by DB + in-memory session map).

package httpserver

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motus/internal/daily"
	"github.com/robalobadob/motus/internal/game"
	"github.com/robalobadob/motus/internal/store"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store // nil without a database
	picker   daily.Picker
	sessions map[string]string // game IDs keyed by userID|date
	mu       sync.Mutex        // guards sessions
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	d := &dailyServer{
		srv:      s,
		picker:   daily.Picker{Salt: s.cfg.DailySalt, Now: s.now},
		sessions: make(map[string]string),
	}
	if s.db != nil {
		d.store = daily.NewStore(s.db)
	}
	s.daily = d

	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", d.handleNew)
		r.Get("/leaderboard", d.handleLeaderboard)
	})
}

// dailyRes is returned by /daily/new.
type dailyRes struct {
	GameID  string       `json:"gameId"`
	Date    string       `json:"date"`
	Played  bool         `json:"played"`
	Session *sessionView `json:"session,omitempty"`
}

// handleNew creates or reuses a daily game for the current date.
//   - If the player already has a result for today → Played=true.
//   - Otherwise reuse the in-memory game or start a new one. A lost game is
//     replaced, so the day's word can be tried again.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	s := d.srv
	var uid string
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	if me != nil {
		uid = me.ID
	} else {
		uid = s.ensureAnonID(w, r)
	}

	list := s.wordList()
	if len(list) == 0 {
		jsonError(w, http.StatusServiceUnavailable, "words_unavailable")
		return
	}
	date, idx := d.picker.Today(list)

	if d.store != nil {
		if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
			writeJSON(w, http.StatusOK, dailyRes{Date: date, Played: true})
			return
		}
	}

	key := uid + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.sessions[key]; ok {
		g, err := s.store.Get(r.Context(), id)
		if err == nil {
			snap := g.Snapshot()
			if snap.State != game.StateLost {
				v := viewOf(g, snap)
				writeJSON(w, http.StatusOK, dailyRes{GameID: id, Date: date, Session: &v})
				return
			}
			// only wins are recorded, so a lost daily starts over
			_ = s.store.Delete(r.Context(), id)
		}
		delete(d.sessions, key)
	}

	g := store.NewGame(genID(), store.ModeDaily, s.newEngine(d.picker))
	g.DailyDate, g.DailyIdx = date, idx
	if me != nil {
		g.UserID = me.ID
	} else {
		g.AnonID = uid
	}
	_, after := g.Apply(func(e *game.Engine) { e.StartNewGame(list) })
	if err := s.store.Save(r.Context(), g); err != nil {
		jsonError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	d.sessions[key] = g.ID
	s.insertGameRow(r.Context(), g)
	log.Debug().Str("gameId", g.ID).Str("date", date).Int("index", idx).Msg("daily game created")

	v := viewOf(g, after)
	writeJSON(w, http.StatusOK, dailyRes{GameID: g.ID, Date: date, Session: &v})
}

// forget drops session entries pointing at evicted games.
func (d *dailyServer) forget(ids []string) {
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, id := range d.sessions {
		if gone[id] {
			delete(d.sessions, k)
		}
	}
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for ?date= (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if d.store == nil {
		writeJSON(w, http.StatusOK, lbRes{Date: date, Top: []daily.LBRow{}})
		return
	}
	rows, err := d.store.Leaderboard(r.Context(), date, limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
