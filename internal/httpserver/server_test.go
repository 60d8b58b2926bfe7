package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/robalobadob/motus/internal/config"
	"github.com/robalobadob/motus/internal/daily"
	"github.com/robalobadob/motus/internal/db"
	"github.com/robalobadob/motus/internal/game"
	"github.com/robalobadob/motus/internal/store"
)

var testWords = []string{"maison", "bateau", "cheval", "jardin", "marche"}

var fixedNow = func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }

func newTestServer(t *testing.T) (*Server, *sql.DB) {
	t.Helper()
	conn, err := db.OpenMigrated(filepath.Join(t.TempDir(), "motus.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	srv := New(store.NewMemoryStore(), conn, config.Default(),
		WithPicker(func() game.Picker { return game.FixedPicker("maison") }),
		WithClock(fixedNow),
	)
	return srv, conn
}

type call struct {
	method, path string
	body         any
	cookies      []*http.Cookie
}

func do(t *testing.T, srv *Server, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		if err := json.NewEncoder(&body).Encode(c.body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// view mirrors the JSON produced for a session.
type view struct {
	GameID          string   `json:"gameId"`
	Mode            string   `json:"mode"`
	State           string   `json:"state"`
	CurrentAttempt  int      `json:"currentAttempt"`
	CurrentColumn   int      `json:"currentColumn"`
	ReadyToSubmit   bool     `json:"readyToSubmit"`
	Message         string   `json:"message"`
	DisabledLetters []string `json:"disabledLetters"`
	Word            string   `json:"word"`
	Grid            []struct {
		Letter string `json:"letter"`
		Status string `json:"status"`
	} `json:"grid"`
}

func typeWord(t *testing.T, srv *Server, id, letters string, cookies ...*http.Cookie) view {
	t.Helper()
	var v view
	for _, r := range letters {
		rec := do(t, srv, call{method: "POST", path: "/game/" + id + "/letter", body: letterReq{Letter: string(r)}, cookies: cookies})
		if rec.Code != http.StatusOK {
			t.Fatalf("letter %q: %d %s", r, rec.Code, rec.Body)
		}
		v = decode[view](t, rec)
	}
	return v
}

// newGame starts a game and returns it with the cookies needed to reach it.
func newGame(t *testing.T, srv *Server, cookies ...*http.Cookie) (view, []*http.Cookie) {
	t.Helper()
	rec := do(t, srv, call{method: "POST", path: "/game/new", cookies: cookies})
	if rec.Code != http.StatusOK {
		t.Fatalf("new game: %d %s", rec.Code, rec.Body)
	}
	return decode[view](t, rec), append(cookies, rec.Result().Cookies()...)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, call{method: "GET", path: "/health"})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestNewGameWaitsForWords(t *testing.T) {
	srv, _ := newTestServer(t)

	v, anon := newGame(t, srv)
	if v.State != "loading" || len(v.Grid) != 0 {
		t.Fatalf("new game before words = %+v", v)
	}

	srv.SetWords(testWords)
	v = decode[view](t, do(t, srv, call{method: "GET", path: "/game/" + v.GameID, cookies: anon}))
	if v.State != "playing" || v.Grid[0].Letter != "m" || v.Grid[0].Status != "correct" {
		t.Fatalf("after SetWords = %+v", v)
	}
	if v.Word != "" {
		t.Fatalf("word leaked while playing: %q", v.Word)
	}
}

func TestPlayToWin(t *testing.T) {
	srv, conn := newTestServer(t)
	srv.SetWords(testWords)

	v, anon := newGame(t, srv)
	if v.State != "playing" || v.CurrentColumn != 0 {
		t.Fatalf("new game = %+v", v)
	}
	id := v.GameID

	v = typeWord(t, srv, id, "AISON", anon...)
	if !v.ReadyToSubmit || v.CurrentColumn != 5 {
		t.Fatalf("after typing = %+v", v)
	}
	var row []string
	for _, c := range v.Grid[:6] {
		row = append(row, c.Letter)
	}
	if diff := cmp.Diff([]string{"m", "a", "i", "s", "o", "n"}, row); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}

	v = decode[view](t, do(t, srv, call{method: "POST", path: "/game/" + id + "/submit", cookies: anon}))
	if v.State != "won" || v.Message != "used word: maison" || v.Word != "maison" {
		t.Fatalf("after submit = %+v", v)
	}

	var status string
	var attempts int
	if err := conn.QueryRow(`SELECT status, attempts FROM games WHERE id=?`, id).Scan(&status, &attempts); err != nil {
		t.Fatal(err)
	}
	if status != "won" || attempts != 1 {
		t.Fatalf("games row = %s/%d", status, attempts)
	}

	// finished games ignore further intents
	v = decode[view](t, do(t, srv, call{method: "POST", path: "/game/" + id + "/delete", cookies: anon}))
	if v.State != "won" || v.CurrentColumn != 5 {
		t.Fatalf("delete after win = %+v", v)
	}
}

func TestWrongGuessDisablesLetters(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.SetWords(testWords)
	g, anon := newGame(t, srv)
	id := g.GameID

	typeWord(t, srv, id, "arche", anon...)
	v := decode[view](t, do(t, srv, call{method: "POST", path: "/game/" + id + "/submit", cookies: anon}))
	if v.State != "playing" || v.CurrentAttempt != 1 || v.CurrentColumn != -1 {
		t.Fatalf("after submit = %+v", v)
	}
	if diff := cmp.Diff([]string{"r", "c", "h", "e"}, v.DisabledLetters); diff != "" {
		t.Fatalf("disabled letters (-want +got):\n%s", diff)
	}
}

func TestUnknownWordLoses(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.SetWords(testWords)
	g, anon := newGame(t, srv)
	id := g.GameID

	typeWord(t, srv, id, "zzzzz", anon...)
	v := decode[view](t, do(t, srv, call{method: "POST", path: "/game/" + id + "/submit", cookies: anon}))
	if v.State != "lost" || v.Word != "maison" {
		t.Fatalf("after unknown word = %+v", v)
	}

	v = decode[view](t, do(t, srv, call{method: "POST", path: "/game/" + id + "/reset", cookies: anon}))
	if v.State != "playing" || v.CurrentAttempt != 0 || v.Grid[0].Letter != "m" {
		t.Fatalf("after reset = %+v", v)
	}
}

func TestLetterValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.SetWords(testWords)
	g, anon := newGame(t, srv)
	id := g.GameID

	for _, l := range []string{"", "ab", "1", "-"} {
		rec := do(t, srv, call{method: "POST", path: "/game/" + id + "/letter", body: letterReq{Letter: l}, cookies: anon})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("letter %q: status %d", l, rec.Code)
		}
	}
	v := typeWord(t, srv, id, "É", anon...)
	if v.Grid[1].Letter != "é" {
		t.Fatalf("letter not lowercased: %+v", v.Grid[1])
	}
}

func TestUnknownGame(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, call{method: "POST", path: "/game/nope/submit"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthFlowAndStats(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.SetWords(testWords)

	creds := credentials{Username: "camille", Password: "motdepasse"}
	rec := do(t, srv, call{method: "POST", path: "/auth/signup", body: creds})
	if rec.Code != http.StatusOK {
		t.Fatalf("signup = %d %s", rec.Code, rec.Body)
	}
	if rec := do(t, srv, call{method: "POST", path: "/auth/signup", body: creds}); rec.Code != http.StatusConflict {
		t.Fatalf("second signup = %d", rec.Code)
	}
	if rec := do(t, srv, call{method: "GET", path: "/auth/me"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me without token = %d", rec.Code)
	}

	rec = do(t, srv, call{method: "POST", path: "/auth/login", body: creds})
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d %s", rec.Code, rec.Body)
	}
	var token *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "motus_token" {
			token = c
		}
	}
	if token == nil {
		t.Fatal("no auth cookie")
	}

	me := decode[authUser](t, do(t, srv, call{method: "GET", path: "/auth/me", cookies: []*http.Cookie{token}}))
	if me.Username != "camille" {
		t.Fatalf("me = %+v", me)
	}

	id := decode[view](t, do(t, srv, call{method: "POST", path: "/game/new", cookies: []*http.Cookie{token}})).GameID
	typeWord(t, srv, id, "aison", token)
	do(t, srv, call{method: "POST", path: "/game/" + id + "/submit", cookies: []*http.Cookie{token}})

	stats := decode[map[string]any](t, do(t, srv, call{method: "GET", path: "/stats/me", cookies: []*http.Cookie{token}}))
	if stats["gamesPlayed"] != 1.0 || stats["wins"] != 1.0 || stats["streak"] != 1.0 {
		t.Fatalf("stats = %v", stats)
	}

	games := decode[[]gameRow](t, do(t, srv, call{method: "GET", path: "/games/mine", cookies: []*http.Cookie{token}}))
	if len(games) != 1 || games[0].Status != "won" || games[0].Attempts != 1 {
		t.Fatalf("games = %+v", games)
	}

	if rec := do(t, srv, call{method: "POST", path: "/auth/login", body: credentials{Username: "camille", Password: "wrongpass"}}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", rec.Code)
	}
}

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		user, pass string
		want       error
	}{
		{"ok_user", "longenough", nil},
		{"ab", "longenough", errBadUsername},
		{"bad name", "longenough", errBadUsername},
		{"ok_user", "short", errBadPassword},
	}
	for _, tt := range tests {
		if got := validateSignup(tt.user, tt.pass); got != tt.want {
			t.Errorf("validateSignup(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.want)
		}
	}
}

func TestDailyFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	if rec := do(t, srv, call{method: "POST", path: "/daily/new"}); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("daily before words = %d", rec.Code)
	}
	srv.SetWords(testWords)

	rec := do(t, srv, call{method: "POST", path: "/daily/new"})
	first := decode[dailyRes](t, rec)
	if first.Played || first.GameID == "" || first.Date != "2025-03-14" {
		t.Fatalf("daily = %+v", first)
	}
	anon := rec.Result().Cookies()

	again := decode[dailyRes](t, do(t, srv, call{method: "POST", path: "/daily/new", cookies: anon}))
	if again.GameID != first.GameID {
		t.Fatalf("daily not reused: %s vs %s", again.GameID, first.GameID)
	}

	if rec := do(t, srv, call{method: "POST", path: "/game/" + first.GameID + "/reset", cookies: anon}); rec.Code != http.StatusConflict {
		t.Fatalf("daily reset = %d", rec.Code)
	}

	word := daily.Picker{Salt: config.Default().DailySalt, Now: fixedNow}.Pick(testWords)
	typeWord(t, srv, first.GameID, word[1:], anon...)
	v := decode[view](t, do(t, srv, call{method: "POST", path: "/game/" + first.GameID + "/submit", cookies: anon}))
	if v.State != "won" || v.Mode != "daily" {
		t.Fatalf("daily submit = %+v", v)
	}

	played := decode[dailyRes](t, do(t, srv, call{method: "POST", path: "/daily/new", cookies: anon}))
	if !played.Played {
		t.Fatalf("daily after win = %+v", played)
	}

	lb := decode[lbRes](t, do(t, srv, call{method: "GET", path: "/daily/leaderboard"}))
	if lb.Date != "2025-03-14" || len(lb.Top) != 1 || lb.Top[0].Attempts != 1 {
		t.Fatalf("leaderboard = %+v", lb)
	}
}

func TestStreamSendsSnapshots(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.SetWords(testWords)
	g, anon := newGame(t, srv)
	id := g.GameID

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/" + id + "/ws"
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, cookieHeader(anon))
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	var v view
	if err := ws.ReadJSON(&v); err != nil {
		t.Fatal(err)
	}
	if v.State != "playing" || v.GameID != id {
		t.Fatalf("first snapshot = %+v", v)
	}

	typeWord(t, srv, id, "a", anon...)
	for v.CurrentColumn != 1 {
		if err := ws.ReadJSON(&v); err != nil {
			t.Fatalf("waiting for column 1: %v", err)
		}
	}
	if v.Grid[1].Letter != "a" {
		t.Fatalf("streamed grid = %+v", v.Grid[:2])
	}
}

func cookieHeader(cookies []*http.Cookie) http.Header {
	h := http.Header{}
	for _, c := range cookies {
		h.Add("Cookie", (&http.Cookie{Name: c.Name, Value: c.Value}).String())
	}
	return h
}

func TestGamesArePrivateToTheirOwner(t *testing.T) {
	srv, conn := newTestServer(t)
	srv.SetWords(testWords)
	g, owner := newGame(t, srv)
	_, stranger := newGame(t, srv)

	paths := []struct{ method, path string }{
		{"GET", "/game/" + g.GameID},
		{"POST", "/game/" + g.GameID + "/delete"},
		{"POST", "/game/" + g.GameID + "/submit"},
		{"POST", "/game/" + g.GameID + "/reset"},
	}
	for _, p := range paths {
		for name, cookies := range map[string][]*http.Cookie{"no cookie": nil, "stranger": stranger} {
			if rec := do(t, srv, call{method: p.method, path: p.path, cookies: cookies}); rec.Code != http.StatusNotFound {
				t.Errorf("%s %s as %s: status %d, want 404", p.method, p.path, name, rec.Code)
			}
		}
	}
	rec := do(t, srv, call{method: "POST", path: "/game/" + g.GameID + "/letter", body: letterReq{Letter: "a"}, cookies: stranger})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("stranger letter: status %d", rec.Code)
	}

	// a signed-in stranger cannot finish the guest's game either
	rec = do(t, srv, call{method: "POST", path: "/auth/signup", body: credentials{Username: "intrus", Password: "motdepasse"}})
	token := rec.Result().Cookies()
	sendLetter := func(cookies []*http.Cookie) int {
		return do(t, srv, call{method: "POST", path: "/game/" + g.GameID + "/letter", body: letterReq{Letter: "a"}, cookies: cookies}).Code
	}
	if code := sendLetter(token); code != http.StatusNotFound {
		t.Fatalf("signed-in stranger letter: status %d", code)
	}

	v := decode[view](t, do(t, srv, call{method: "GET", path: "/game/" + g.GameID, cookies: owner}))
	if v.CurrentColumn != 0 {
		t.Fatalf("owner's game was driven by someone else: %+v", v)
	}
	var played int
	if err := conn.QueryRow(`SELECT games_played FROM users WHERE username='intrus'`).Scan(&played); err != nil {
		t.Fatal(err)
	}
	if played != 0 {
		t.Fatalf("stranger stats touched: %d", played)
	}
}

func TestStreamRequiresOwner(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.SetWords(testWords)
	g, _ := newGame(t, srv)
	_, stranger := newGame(t, srv)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/" + g.GameID + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, cookieHeader(stranger))
	if err == nil {
		t.Fatal("stranger stream accepted")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stranger stream response = %v", resp)
	}
}

func TestLostDailyStartsOver(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.SetWords(testWords)

	rec := do(t, srv, call{method: "POST", path: "/daily/new"})
	first := decode[dailyRes](t, rec)
	anon := rec.Result().Cookies()

	typeWord(t, srv, first.GameID, "zzzzz", anon...)
	v := decode[view](t, do(t, srv, call{method: "POST", path: "/game/" + first.GameID + "/submit", cookies: anon}))
	if v.State != "lost" {
		t.Fatalf("daily submit = %+v", v)
	}

	again := decode[dailyRes](t, do(t, srv, call{method: "POST", path: "/daily/new", cookies: anon}))
	if again.Played || again.GameID == "" || again.GameID == first.GameID {
		t.Fatalf("daily after loss = %+v", again)
	}
	if again.Session == nil || again.Session.State != game.StatePlaying {
		t.Fatalf("daily after loss session = %+v", again.Session)
	}
	if rec := do(t, srv, call{method: "GET", path: "/game/" + first.GameID, cookies: anon}); rec.Code != http.StatusNotFound {
		t.Fatalf("lost daily still registered: %d", rec.Code)
	}
}

func TestPruneGamesEvictsStaleGames(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.SetWords(testWords)
	ctx := context.Background()

	g, anon := newGame(t, srv)
	rec := do(t, srv, call{method: "POST", path: "/daily/new", cookies: anon})
	d := decode[dailyRes](t, rec)

	if n := srv.pruneGames(ctx, time.Now()); n != 0 {
		t.Fatalf("fresh games evicted: %d", n)
	}
	if n := srv.pruneGames(ctx, time.Now().Add(srv.cfg.GameIdleTTL+time.Minute)); n != 2 {
		t.Fatalf("evicted %d games, want 2", n)
	}
	if rec := do(t, srv, call{method: "GET", path: "/game/" + g.GameID, cookies: anon}); rec.Code != http.StatusNotFound {
		t.Fatalf("evicted game still served: %d", rec.Code)
	}
	srv.daily.mu.Lock()
	left := len(srv.daily.sessions)
	srv.daily.mu.Unlock()
	if left != 0 {
		t.Fatalf("daily sessions left: %d", left)
	}

	again := decode[dailyRes](t, do(t, srv, call{method: "POST", path: "/daily/new", cookies: anon}))
	if again.GameID == "" || again.GameID == d.GameID {
		t.Fatalf("daily after eviction = %+v", again)
	}
}
