// internal/httpserver/server.go
//
// HTTP server wiring for the Motus backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Game endpoints (optional auth): POST /game/new, GET /game/{id} and the
//     four player intents under /game/{id}/ (letter, delete, submit, reset).
//   - Snapshot streaming over a websocket: GET /game/{id}/ws (ws.go).
//   - Daily Challenge endpoints: mounted under /daily (routes_daily.go).
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine (auth.go).
//
// Notes:
//   - Each registered game wraps one engine; store.Game serialises calls.
//   - Games created before the word list arrives stay "loading" and are
//     started by SetWords.
//   - Finished and idle games are evicted from memory by a background sweep.
//   - History rows and user stats are written best-effort: a database error
//     is logged and never fails the player's intent.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motus/internal/config"
	"github.com/robalobadob/motus/internal/daily"
	"github.com/robalobadob/motus/internal/game"
	"github.com/robalobadob/motus/internal/store"
	"github.com/robalobadob/motus/internal/words"
)

// Server bundles router, game registry, DB handle and the current word list.
type Server struct {
	r      *chi.Mux
	store  store.Store
	db     *sql.DB
	cfg    config.Config
	daily  *dailyServer
	words  atomic.Pointer[[]string]
	picker func() game.Picker
	now    func() time.Time
}

// Option customises a Server.
type Option func(*Server)

// WithPicker sets the factory for normal-mode word pickers.
func WithPicker(f func() game.Picker) Option { return func(s *Server) { s.picker = f } }

// WithClock sets the clock used for daily word selection.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB, cfg config.Config, opts ...Option) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		store:  st,
		db:     db,
		cfg:    cfg,
		picker: func() game.Picker { return game.NewRandomPicker(nil) },
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(s.corsFromConfig)

	// websocket stream stays outside the handler timeout
	s.r.With(s.withOptionalAuth()).Get("/game/{id}/ws", s.handleStream)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"motus","endpoints":["/health","POST /game/new","/game/{id}","/daily/*","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, words.Summarize(s.wordList()))
		})

		// Game endpoints: optional auth (guests can play)
		r.Group(func(r chi.Router) {
			r.Use(s.withOptionalAuth())
			r.Post("/game/new", s.handleNewGame)
			r.Get("/game/{id}", s.handleGet)
			r.Post("/game/{id}/letter", s.handleLetter)
			r.Post("/game/{id}/delete", s.intent(func(e *game.Engine) { e.DeleteLastLetter() }))
			r.Post("/game/{id}/submit", s.intent(func(e *game.Engine) { e.SubmitWord() }))
			r.Post("/game/{id}/reset", s.handleReset)
		})

		// Daily Challenge: optional auth
		s.mountDaily(r.With(s.withOptionalAuth()))

		// Auth + profile/stats
		s.mountAuthRoutes(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
		})
	})

	return s
}

// Start serves HTTP on addr until ctx is cancelled, then shuts down.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	go s.sweep(ctx, time.Minute)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}

// sweep evicts stale games every interval until ctx ends.
func (s *Server) sweep(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.pruneGames(ctx, time.Now())
		}
	}
}

// pruneGames drops games idle past the configured TTLs from the registry
// and the daily session map. Their history rows are already written.
func (s *Server) pruneGames(ctx context.Context, now time.Time) int {
	ids := store.Prune(ctx, s.store, now, s.cfg.GameIdleTTL, s.cfg.FinishedGameTTL)
	if len(ids) == 0 {
		return 0
	}
	s.daily.forget(ids)
	log.Debug().Int("games", len(ids)).Msg("stale games evicted")
	return len(ids)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// SetWords publishes a freshly fetched word list. Registered games that are
// still loading receive it and start; running games are left alone.
func (s *Server) SetWords(list []string) {
	if len(list) == 0 {
		return
	}
	cp := append([]string(nil), list...)
	s.words.Store(&cp)

	ctx := context.Background()
	s.store.Each(ctx, func(g *store.Game) {
		before, after := g.Apply(func(e *game.Engine) { e.Deliver(cp) })
		if before.State == game.StateLoading && after.State == game.StatePlaying {
			s.insertGameRow(ctx, g)
		}
	})
	log.Info().Int("words", len(cp)).Msg("word list delivered")
}

func (s *Server) wordList() []string {
	if p := s.words.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *Server) newEngine(p game.Picker) *game.Engine {
	return game.New(
		game.WithPicker(p),
		game.WithLetterCount(s.cfg.LetterCount),
		game.WithMaxAttempts(s.cfg.MaxAttempts),
	)
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromConfig enables credentialed CORS for the configured client origin.
func (s *Server) corsFromConfig(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ GAME ---------------------------------------

// sessionView is the JSON shape of a session. The target word is only
// revealed once the game is over.
type sessionView struct {
	GameID string     `json:"gameId"`
	Mode   store.Mode `json:"mode"`
	game.Session
	DisabledLetters []string `json:"disabledLetters"`
	Word            string   `json:"word,omitempty"`
}

func viewOf(g *store.Game, s game.Session) sessionView {
	v := sessionView{GameID: g.ID, Mode: g.Mode, Session: s, DisabledLetters: []string{}}
	if v.Grid == nil {
		v.Grid = []game.Cell{}
	}
	for _, r := range s.DisabledLetters {
		v.DisabledLetters = append(v.DisabledLetters, string(r))
	}
	if s.State.Finished() {
		v.Word = s.SelectedWord
	}
	return v
}

// handleNewGame registers a new game. It starts immediately when the word
// list is available and stays loading otherwise.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	g := store.NewGame(genID(), store.ModeNormal, s.newEngine(s.picker()))
	s.assignOwner(w, r, g)

	_, after := g.Apply(func(e *game.Engine) { e.StartNewGame(s.wordList()) })
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		jsonError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	if after.State == game.StatePlaying {
		s.insertGameRow(r.Context(), g)
	}
	log.Debug().Str("gameId", g.ID).Str("state", string(after.State)).Msg("game created")
	writeJSON(w, http.StatusOK, viewOf(g, after))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g, g.Snapshot()))
}

// letterReq is the payload for POST /game/{id}/letter.
type letterReq struct {
	Letter string `json:"letter"`
}

func (s *Server) handleLetter(w http.ResponseWriter, r *http.Request) {
	var req letterReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "bad_json")
		return
	}
	l, ok := parseLetter(req.Letter)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid_letter")
		return
	}
	s.intent(func(e *game.Engine) { e.SubmitLetter(l) })(w, r)
}

// parseLetter accepts exactly one letter and lowercases it.
func parseLetter(s string) (rune, bool) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	if !unicode.IsLetter(r) {
		return 0, false
	}
	return unicode.ToLower(r), true
}

// intent returns a handler that applies fn to the addressed game, records
// progress, and answers with the resulting session.
func (s *Server) intent(fn func(*game.Engine)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ok := s.lookup(w, r)
		if !ok {
			return
		}
		before, after := g.Apply(fn)
		s.recordProgress(r.Context(), g, before, after)
		writeJSON(w, http.StatusOK, viewOf(g, after))
	}
}

// handleReset starts a new word for the game. Daily games are locked to
// the day's word and cannot be reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if g.Mode == store.ModeDaily {
		jsonError(w, http.StatusConflict, "daily_locked")
		return
	}
	before, after := g.Apply(func(e *game.Engine) {
		if e.Snapshot().State == game.StateLoading {
			e.Deliver(s.wordList())
			return
		}
		e.ResetGame()
	})
	if after.State == game.StatePlaying && !sameSession(before, after) {
		g.Restart()
		s.insertGameRow(r.Context(), g)
	}
	writeJSON(w, http.StatusOK, viewOf(g, after))
}

// sameSession reports whether no new session was started between a and b.
func sameSession(a, b game.Session) bool {
	return a.State == b.State && a.SelectedWord == b.SelectedWord &&
		a.CurrentAttempt == b.CurrentAttempt && a.CurrentColumn == b.CurrentColumn
}

// lookup resolves {id} or writes a 404. Another player's game is reported
// as missing.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*store.Game, bool) {
	g, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Msg("get game")
		}
		jsonError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	if !ownedBy(r, g) {
		log.Debug().Str("gameId", g.ID).Msg("game requested by another player")
		jsonError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return g, true
}

// ownedBy reports whether the caller is the game's user, or holds the
// anonymous cookie it was created under. A guest who signs in keeps the
// cookie, so their earlier games stay reachable.
func ownedBy(r *http.Request, g *store.Game) bool {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil && g.UserID != "" && me.ID == g.UserID {
		return true
	}
	if g.AnonID == "" {
		return false
	}
	c, err := r.Cookie(anonCookieName)
	return err == nil && c.Value == g.AnonID
}

// assignOwner ties the game to the signed-in user or the anonymous cookie.
func (s *Server) assignOwner(w http.ResponseWriter, r *http.Request, g *store.Game) {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		g.UserID = me.ID
		return
	}
	g.AnonID = s.ensureAnonID(w, r)
}

// ownerID returns the identifier results are recorded under.
func ownerID(g *store.Game) string {
	if g.UserID != "" {
		return g.UserID
	}
	return g.AnonID
}

// --------------------------- persistence -----------------------------------

// insertGameRow records the start of a round. The answer is not stored.
func (s *Server) insertGameRow(ctx context.Context, g *store.Game) {
	if s.db == nil {
		return
	}
	var user, anon any
	if g.UserID != "" {
		user = g.UserID
	} else {
		anon = g.AnonID
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO games
		(id, user_id, anonymous_id, mode, answer, started_at, status, attempts)
		VALUES (?,?,?,?,'',?,?,0)`,
		g.RowID(), user, anon, string(g.Mode), time.Now().UTC().Format(time.RFC3339), string(game.StatePlaying))
	if err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("insert game row")
	}
}

// recordProgress persists the end of a round: game row, user stats and,
// for a daily win, the leaderboard result.
func (s *Server) recordProgress(ctx context.Context, g *store.Game, before, after game.Session) {
	if s.db == nil || before.State != game.StatePlaying || !after.State.Finished() {
		return
	}
	won := after.State == game.StateWon
	attempts := after.CurrentAttempt + 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin finish tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE games SET status=?, finished_at=?, attempts=? WHERE id=?`,
		string(after.State), time.Now().UTC().Format(time.RFC3339), attempts, g.RowID()); err != nil {
		log.Warn().Err(err).Msg("finish game")
	}
	if g.UserID != "" {
		if err := bumpStats(ctx, tx, g.UserID, won); err != nil {
			log.Warn().Err(err).Str("user", g.UserID).Msg("bump stats")
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit finish tx")
	}

	if g.Mode == store.ModeDaily && won {
		err := s.daily.store.InsertResult(ctx, daily.Result{
			UserID:    ownerID(g),
			Date:      g.DailyDate,
			WordIndex: g.DailyIdx,
			Attempts:  attempts,
			ElapsedMs: int(g.Elapsed().Milliseconds()),
		})
		if err != nil {
			log.Warn().Err(err).Msg("insert daily result")
		}
	}
	log.Info().Str("gameId", g.ID).Str("state", string(after.State)).Int("attempts", attempts).Msg("game finished")
}

// bumpStats increments games played; updates wins and streak based on result (within tx).
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
