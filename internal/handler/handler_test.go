package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/auth"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/handler"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/repository/sqlstore"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/service"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/testutil"
)

// newServer wires the full HTTP stack over an in-memory store, mirroring
// the wiring in cmd/server.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := testutil.NewStore(t)
	users := sqlstore.NewUserRepo(store)
	sessions := sqlstore.NewSessionRepo(store)
	games := sqlstore.NewGameRepo(store)
	players := sqlstore.NewPlayerRepo(store)
	actions := sqlstore.NewActionRepo(store)

	phaseSvc := service.NewPhaseService(games, players, users, actions, nil)
	gameSvc := service.NewGameService(games, players, users, actions, phaseSvc)
	actionSvc := service.NewActionService(games, players, actions, phaseSvc)
	authSvc := service.NewAuthService(users, sessions, games)

	authH := handler.NewAuthHandler(authSvc, false)
	gameH := handler.NewGameHandler(gameSvc, store)
	actionH := handler.NewActionHandler(actionSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", authH.Register)
	mux.HandleFunc("POST /login", authH.Login)
	mux.HandleFunc("POST /logout", authH.Logout)
	mux.HandleFunc("POST /reset", gameH.Reset)

	authed := http.NewServeMux()
	authed.HandleFunc("GET /me", authH.Me)
	authed.HandleFunc("POST /create_game", gameH.Create)
	authed.HandleFunc("POST /join_game/{code}", gameH.Join)
	authed.HandleFunc("GET /games", gameH.List)
	authed.HandleFunc("GET /game_state/{code}", gameH.State)
	authed.HandleFunc("POST /action/{code}", actionH.Action)
	authed.HandleFunc("POST /vote/{code}", actionH.Vote)
	authed.HandleFunc("POST /guess/{code}", actionH.Guess)
	authed.HandleFunc("GET /history", gameH.History)
	authed.HandleFunc("GET /history/{code}", gameH.HistoryDetail)
	mux.Handle("/", auth.Middleware(sessions, users)(authed))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newClient returns an HTTP client with its own cookie jar, one logged-in
// user each.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// call sends a request and decodes the JSON object response.
func call(t *testing.T, c *http.Client, method, url string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode %s %s response: %v", method, url, err)
	}
	return resp.StatusCode, decoded
}

// callList is call for endpoints that answer with a JSON array.
func callList(t *testing.T, c *http.Client, url string) (int, []map[string]any) {
	t.Helper()

	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	var decoded []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode GET %s response: %v", url, err)
	}
	return resp.StatusCode, decoded
}

// register signs up a fresh user; the session cookie lands in the jar.
func register(t *testing.T, srv *httptest.Server, username string) *http.Client {
	t.Helper()
	c := newClient(t)
	status, body := call(t, c, "POST", srv.URL+"/register", map[string]any{
		"username": username, "password": "segreto",
	})
	if status != http.StatusOK {
		t.Fatalf("register %s: status %d, body %v", username, status, body)
	}
	return c
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	srv := newServer(t)
	c := newClient(t)

	req, _ := http.NewRequest("POST", srv.URL+"/register",
		bytes.NewBufferString(`{"username":"renata","password":"segreto"}`))
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status = %d", resp.StatusCode)
	}

	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == auth.SessionCookie {
			cookie = ck
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie on register response")
	}
	if len(cookie.Value) != 32 {
		t.Errorf("session id %q, want 32 hex chars", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie not HttpOnly")
	}

	status, body := call(t, c, "GET", srv.URL+"/me", nil)
	if status != http.StatusOK {
		t.Fatalf("me status = %d", status)
	}
	if body["username"] != "renata" {
		t.Errorf("me username = %v", body["username"])
	}
	if body["current_game"] != nil {
		t.Errorf("current_game = %v, want null", body["current_game"])
	}
}

func TestUnauthenticatedRequests(t *testing.T) {
	srv := newServer(t)
	c := newClient(t)

	status, body := call(t, c, "GET", srv.URL+"/me", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("me without cookie: status %d", status)
	}
	if body["error"] != "Non autenticato" {
		t.Errorf("error = %v", body["error"])
	}

	// A cookie pointing at no session is rejected too.
	req, _ := http.NewRequest("GET", srv.URL+"/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "deadbeef"})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("me with stale cookie: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("stale cookie: status %d", resp.StatusCode)
	}
}

func TestLoginAndLogout(t *testing.T) {
	srv := newServer(t)
	register(t, srv, "bruno")

	c := newClient(t)
	status, body := call(t, c, "POST", srv.URL+"/login", map[string]any{
		"username": "bruno", "password": "sbagliata",
	})
	if status != http.StatusUnauthorized || body["error"] != "Credenziali errate" {
		t.Fatalf("bad login: status %d, body %v", status, body)
	}

	status, body = call(t, c, "POST", srv.URL+"/login", map[string]any{
		"username": "bruno", "password": "segreto",
	})
	if status != http.StatusOK || body["username"] != "bruno" {
		t.Fatalf("login: status %d, body %v", status, body)
	}

	if status, _ = call(t, c, "GET", srv.URL+"/me", nil); status != http.StatusOK {
		t.Fatalf("me after login: status %d", status)
	}

	if status, _ = call(t, c, "POST", srv.URL+"/logout", nil); status != http.StatusOK {
		t.Fatalf("logout: status %d", status)
	}
	if status, _ = call(t, c, "GET", srv.URL+"/me", nil); status != http.StatusUnauthorized {
		t.Errorf("me after logout: status %d, want 401", status)
	}
}

func TestLobbyRoundTrip(t *testing.T) {
	srv := newServer(t)
	creator := register(t, srv, "anna")
	joiner := register(t, srv, "bruno")

	status, body := call(t, creator, "POST", srv.URL+"/create_game", map[string]any{
		"target_players": 8,
	})
	if status != http.StatusOK {
		t.Fatalf("create_game: status %d, body %v", status, body)
	}
	code, _ := body["game_id"].(string)
	if len(code) != 5 {
		t.Fatalf("game_id = %q, want 5 letters", code)
	}

	status, body = call(t, joiner, "POST", srv.URL+"/join_game/"+code, nil)
	if status != http.StatusOK || body["game_id"] != code {
		t.Fatalf("join_game: status %d, body %v", status, body)
	}
	if body["already_joined"] != nil {
		t.Errorf("first join flagged already_joined")
	}

	status, body = call(t, joiner, "POST", srv.URL+"/join_game/"+code, nil)
	if status != http.StatusOK || body["already_joined"] != true {
		t.Fatalf("rejoin: status %d, body %v", status, body)
	}

	status, lobbies := callList(t, creator, srv.URL+"/games")
	if status != http.StatusOK || len(lobbies) != 1 {
		t.Fatalf("games: status %d, lobbies %v", status, lobbies)
	}
	if lobbies[0]["id"] != code || lobbies[0]["current_players"] != float64(2) || lobbies[0]["creator"] != "anna" {
		t.Errorf("lobby = %v", lobbies[0])
	}

	status, state := call(t, joiner, "GET", srv.URL+"/game_state/"+code, nil)
	if status != http.StatusOK {
		t.Fatalf("game_state: status %d", status)
	}
	if state["state"] != "LOBBY" {
		t.Errorf("state = %v", state["state"])
	}
	if players, _ := state["players"].([]any); len(players) != 2 {
		t.Errorf("players = %v", state["players"])
	}
	me, _ := state["me"].(map[string]any)
	if me == nil || me["nickname"] != "bruno" || me["role"] != "?" {
		t.Errorf("me = %v", me)
	}

	// Anyone can watch a lobby.
	watcher := register(t, srv, "carla")
	status, state = call(t, watcher, "GET", srv.URL+"/game_state/"+code, nil)
	if status != http.StatusOK || state["me"] != nil {
		t.Errorf("spectator view: status %d, me %v", status, state["me"])
	}
}

func TestAutoStartAtTargetSize(t *testing.T) {
	srv := newServer(t)

	creator := register(t, srv, "user0")
	status, body := call(t, creator, "POST", srv.URL+"/create_game", map[string]any{
		"target_players": 6,
	})
	if status != http.StatusOK {
		t.Fatalf("create_game: status %d, body %v", status, body)
	}
	code := body["game_id"].(string)

	clients := []*http.Client{creator}
	for i := 1; i < 6; i++ {
		c := register(t, srv, fmt.Sprintf("user%d", i))
		if status, body = call(t, c, "POST", srv.URL+"/join_game/"+code, nil); status != http.StatusOK {
			t.Fatalf("join %d: status %d, body %v", i, status, body)
		}
		clients = append(clients, c)
	}

	status, state := call(t, creator, "GET", srv.URL+"/game_state/"+code, nil)
	if status != http.StatusOK {
		t.Fatalf("game_state: status %d", status)
	}
	if state["state"] != "ROLE_REVEAL" || state["turn_number"] != float64(1) {
		t.Fatalf("state = %v turn = %v", state["state"], state["turn_number"])
	}

	roles, _ := state["roles_in_game"].(map[string]any)
	total := 0.0
	for _, n := range roles {
		total += n.(float64)
	}
	if total != 6 {
		t.Errorf("roles_in_game sums to %v: %v", total, roles)
	}
	me, _ := state["me"].(map[string]any)
	if me == nil || me["role"] == "?" || me["role"] == "" {
		t.Errorf("me after start = %v", me)
	}

	// A started game rejects late joins and non-members.
	late := register(t, srv, "tardone")
	status, body = call(t, late, "POST", srv.URL+"/join_game/"+code, nil)
	if status != http.StatusBadRequest || body["error"] != "La partita è già iniziata" {
		t.Errorf("late join: status %d, body %v", status, body)
	}
	status, body = call(t, late, "GET", srv.URL+"/game_state/"+code, nil)
	if status != http.StatusForbidden || body["error"] != "Non sei in questa partita" {
		t.Errorf("spectator on started game: status %d, body %v", status, body)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newServer(t)
	c := register(t, srv, "anna")

	status, body := call(t, c, "POST", srv.URL+"/create_game", map[string]any{
		"target_players": 3,
	})
	if status != http.StatusBadRequest || body["error"] != "Dati non validi" {
		t.Errorf("undersized lobby: status %d, body %v", status, body)
	}

	status, body = call(t, c, "POST", srv.URL+"/join_game/XXXXX", nil)
	if status != http.StatusNotFound || body["error"] != "Partita non trovata" {
		t.Errorf("join unknown: status %d, body %v", status, body)
	}

	status, body = call(t, c, "GET", srv.URL+"/game_state/XXXXX", nil)
	if status != http.StatusNotFound || body["error"] != "Partita non trovata" {
		t.Errorf("state unknown: status %d, body %v", status, body)
	}

	status, body = call(t, c, "GET", srv.URL+"/history/XXXXX", nil)
	if status != http.StatusNotFound {
		t.Errorf("history unknown: status %d, body %v", status, body)
	}

	// Phase-gated submissions in a lobby.
	_, created := call(t, c, "POST", srv.URL+"/create_game", map[string]any{"target_players": 6})
	code := created["game_id"].(string)

	status, body = call(t, c, "POST", srv.URL+"/action/"+code,
		map[string]any{"action_type": "KILL", "target_id": "nobody"})
	if status != http.StatusBadRequest || body["error"] != "Non è notte" {
		t.Errorf("action in lobby: status %d, body %v", status, body)
	}
	status, body = call(t, c, "POST", srv.URL+"/vote/"+code, map[string]any{"target_id": "nobody"})
	if status != http.StatusBadRequest || body["error"] != "Non è giorno" {
		t.Errorf("vote in lobby: status %d, body %v", status, body)
	}
	status, body = call(t, c, "POST", srv.URL+"/guess/"+code,
		map[string]any{"target_id": "nobody", "guessed_role": "Lupo"})
	if status != http.StatusBadRequest || body["error"] != "Non puoi indovinare ora" {
		t.Errorf("guess in lobby: status %d, body %v", status, body)
	}

	status, body = call(t, c, "POST", srv.URL+"/action/"+code, nil)
	if status != http.StatusBadRequest || body["error"] != "Dati non validi" {
		t.Errorf("empty action body: status %d, body %v", status, body)
	}
}

func TestResetWipesEverything(t *testing.T) {
	srv := newServer(t)
	c := register(t, srv, "anna")
	if status, body := call(t, c, "POST", srv.URL+"/create_game", map[string]any{"target_players": 6}); status != http.StatusOK {
		t.Fatalf("create_game: status %d, body %v", status, body)
	}

	status, body := call(t, c, "POST", srv.URL+"/reset", nil)
	if status != http.StatusOK || body["ok"] != true {
		t.Fatalf("reset: status %d, body %v", status, body)
	}

	// Sessions are gone along with everything else.
	if status, _ = call(t, c, "GET", srv.URL+"/me", nil); status != http.StatusUnauthorized {
		t.Errorf("me after reset: status %d, want 401", status)
	}

	fresh := register(t, srv, "anna") // username free again
	if status, lobbies := callList(t, fresh, srv.URL+"/games"); status != http.StatusOK || len(lobbies) != 0 {
		t.Errorf("games after reset: status %d, lobbies %v", status, lobbies)
	}
}
