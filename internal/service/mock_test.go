package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/model"
	"github.com/itisgrassi/lupus-in-tabula/api/pkg/lupus"
)

// In-memory repositories backing the service tests.

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *model.User) error {
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) AddStats(_ context.Context, userID string, delta model.Stats) error {
	if u, ok := m.users[userID]; ok {
		u.Stats.Games += delta.Games
		u.Stats.Wins += delta.Wins
		u.Stats.WolfWins += delta.WolfWins
		u.Stats.VillageWins += delta.VillageWins
	}
	return nil
}

type mockSessionRepo struct {
	sessions map[string]*model.Session
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.Session)}
}

func (m *mockSessionRepo) Create(_ context.Context, s *model.Session) error {
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockSessionRepo) Find(_ context.Context, id string) (*model.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

type mockGameRepo struct {
	games   map[string]*model.Game
	players *mockPlayerRepo // membership queries
	events  map[string][]model.Event
}

func newMockGameRepo(players *mockPlayerRepo) *mockGameRepo {
	return &mockGameRepo{
		games:   make(map[string]*model.Game),
		players: players,
		events:  make(map[string][]model.Event),
	}
}

func (m *mockGameRepo) Create(_ context.Context, g *model.Game) error {
	cp := *g
	m.games[g.ID] = &cp
	return nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *mockGameRepo) Update(_ context.Context, g *model.Game) error {
	cp := *g
	m.games[g.ID] = &cp
	return nil
}

func (m *mockGameRepo) ListOpen(_ context.Context) ([]model.Game, error) {
	var out []model.Game
	for _, g := range m.games {
		if g.State == lupus.PhaseLobby {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (m *mockGameRepo) ListFinishedByUser(_ context.Context, userID string) ([]model.Game, error) {
	var out []model.Game
	for _, g := range m.games {
		if g.State == lupus.PhaseGameOver && m.players.isMember(g.ID, userID) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (m *mockGameRepo) FindActiveByUser(_ context.Context, userID string) (*model.Game, error) {
	for _, g := range m.games {
		if g.State != lupus.PhaseGameOver && m.players.isMember(g.ID, userID) {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockGameRepo) ListExpired(_ context.Context, now float64) ([]model.Game, error) {
	var out []model.Game
	for _, g := range m.games {
		switch g.State {
		case lupus.PhaseRoleReveal, lupus.PhaseNight, lupus.PhaseDay:
			if g.PhaseEndTime > 0 && g.PhaseEndTime <= now {
				out = append(out, *g)
			}
		}
	}
	return out, nil
}

func (m *mockGameRepo) ListRunning(_ context.Context) ([]model.Game, error) {
	var out []model.Game
	for _, g := range m.games {
		switch g.State {
		case lupus.PhaseRoleReveal, lupus.PhaseNight, lupus.PhaseDay:
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *mockGameRepo) AppendEvent(_ context.Context, e *model.Event) error {
	m.events[e.GameID] = append(m.events[e.GameID], *e)
	return nil
}

func (m *mockGameRepo) Events(_ context.Context, gameID string) ([]model.Event, error) {
	return append([]model.Event(nil), m.events[gameID]...), nil
}

type mockPlayerRepo struct {
	players map[string]*model.Player
	order   []string // creation order, like the store's seq column
}

func newMockPlayerRepo() *mockPlayerRepo {
	return &mockPlayerRepo{players: make(map[string]*model.Player)}
}

func (m *mockPlayerRepo) isMember(gameID, userID string) bool {
	for _, p := range m.players {
		if p.GameID == gameID && p.UserID == userID {
			return true
		}
	}
	return false
}

func (m *mockPlayerRepo) Create(_ context.Context, p *model.Player) error {
	cp := *p
	m.players[p.ID] = &cp
	m.order = append(m.order, p.ID)
	return nil
}

func (m *mockPlayerRepo) FindByID(_ context.Context, id string) (*model.Player, error) {
	p, ok := m.players[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockPlayerRepo) FindByGameAndUser(_ context.Context, gameID, userID string) (*model.Player, error) {
	for _, id := range m.order {
		p := m.players[id]
		if p.GameID == gameID && p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockPlayerRepo) ListByGame(_ context.Context, gameID string) ([]model.Player, error) {
	var out []model.Player
	for _, id := range m.order {
		if p := m.players[id]; p.GameID == gameID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPlayerRepo) ListAlive(_ context.Context, gameID string) ([]model.Player, error) {
	var out []model.Player
	for _, id := range m.order {
		if p := m.players[id]; p.GameID == gameID && p.IsAlive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPlayerRepo) Update(_ context.Context, p *model.Player) error {
	cp := *p
	m.players[p.ID] = &cp
	return nil
}

type actionKey struct {
	playerID   string
	actionType lupus.ActionType
}

type guessKey struct {
	playerID string
	targetID string
}

type mockActionRepo struct {
	actions map[string]map[actionKey]model.Action
	votes   map[string]map[string]model.Vote
	guesses map[string]map[guessKey]model.Guess
}

func newMockActionRepo() *mockActionRepo {
	return &mockActionRepo{
		actions: make(map[string]map[actionKey]model.Action),
		votes:   make(map[string]map[string]model.Vote),
		guesses: make(map[string]map[guessKey]model.Guess),
	}
}

func (m *mockActionRepo) UpsertAction(_ context.Context, a *model.Action) error {
	if m.actions[a.GameID] == nil {
		m.actions[a.GameID] = make(map[actionKey]model.Action)
	}
	m.actions[a.GameID][actionKey{a.PlayerID, a.ActionType}] = *a
	return nil
}

func (m *mockActionRepo) DeleteAction(_ context.Context, gameID, playerID string, actionType lupus.ActionType) error {
	delete(m.actions[gameID], actionKey{playerID, actionType})
	return nil
}

func (m *mockActionRepo) ActionsByGame(_ context.Context, gameID string) ([]model.Action, error) {
	return m.actionList(gameID, ""), nil
}

func (m *mockActionRepo) ActionsByType(_ context.Context, gameID string, actionType lupus.ActionType) ([]model.Action, error) {
	return m.actionList(gameID, actionType), nil
}

func (m *mockActionRepo) actionList(gameID string, actionType lupus.ActionType) []model.Action {
	var out []model.Action
	for _, a := range m.actions[gameID] {
		if actionType == "" || a.ActionType == actionType {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlayerID != out[j].PlayerID {
			return out[i].PlayerID < out[j].PlayerID
		}
		return strings.Compare(string(out[i].ActionType), string(out[j].ActionType)) < 0
	})
	return out
}

func (m *mockActionRepo) ClearActions(_ context.Context, gameID string) error {
	delete(m.actions, gameID)
	return nil
}

func (m *mockActionRepo) UpsertVote(_ context.Context, v *model.Vote) error {
	if m.votes[v.GameID] == nil {
		m.votes[v.GameID] = make(map[string]model.Vote)
	}
	m.votes[v.GameID][v.PlayerID] = *v
	return nil
}

func (m *mockActionRepo) VotesByGame(_ context.Context, gameID string) ([]model.Vote, error) {
	var out []model.Vote
	for _, v := range m.votes[gameID] {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (m *mockActionRepo) ClearVotes(_ context.Context, gameID string) error {
	delete(m.votes, gameID)
	return nil
}

func (m *mockActionRepo) UpsertGuess(_ context.Context, g *model.Guess) error {
	if m.guesses[g.GameID] == nil {
		m.guesses[g.GameID] = make(map[guessKey]model.Guess)
	}
	m.guesses[g.GameID][guessKey{g.PlayerID, g.TargetID}] = *g
	return nil
}

func (m *mockActionRepo) GuessesByGame(_ context.Context, gameID string) ([]model.Guess, error) {
	var out []model.Guess
	for _, g := range m.guesses[gameID] {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlayerID != out[j].PlayerID {
			return out[i].PlayerID < out[j].PlayerID
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out, nil
}

// mockTimerCache records timer calls for assertions.
type mockTimerCache struct {
	set     map[string]int
	cleared map[string]bool
}

func newMockTimerCache() *mockTimerCache {
	return &mockTimerCache{set: make(map[string]int), cleared: make(map[string]bool)}
}

func (m *mockTimerCache) SetTimer(_ context.Context, gameID string, seconds int) error {
	m.set[gameID] = seconds
	return nil
}

func (m *mockTimerCache) ClearTimer(_ context.Context, gameID string) error {
	m.cleared[gameID] = true
	return nil
}

// fixture bundles the mocks and services for a test.
type fixture struct {
	users    *mockUserRepo
	sessions *mockSessionRepo
	games    *mockGameRepo
	players  *mockPlayerRepo
	actions  *mockActionRepo
	timers   *mockTimerCache

	phaseSvc  *PhaseService
	gameSvc   *GameService
	actionSvc *ActionService
	authSvc   *AuthService
}

func newFixture() *fixture {
	f := &fixture{
		users:    newMockUserRepo(),
		sessions: newMockSessionRepo(),
		players:  newMockPlayerRepo(),
		actions:  newMockActionRepo(),
		timers:   newMockTimerCache(),
	}
	f.games = newMockGameRepo(f.players)
	f.phaseSvc = NewPhaseService(f.games, f.players, f.users, f.actions, f.timers)
	f.gameSvc = NewGameService(f.games, f.players, f.users, f.actions, f.phaseSvc)
	f.actionSvc = NewActionService(f.games, f.players, f.actions, f.phaseSvc)
	f.authSvc = NewAuthService(f.users, f.sessions, f.games)
	return f
}

// addUser seeds a user without going through registration.
func (f *fixture) addUser(id, username string) {
	f.users.users[id] = &model.User{ID: id, Username: username}
}

// driveClock pins the services' clock to a controllable instant and returns
// a function that advances it.
func (f *fixture) driveClock(start time.Time) func(d time.Duration) {
	current := start
	clock := func() time.Time { return current }
	f.phaseSvc.now = clock
	f.authSvc.now = clock
	return func(d time.Duration) { current = current.Add(d) }
}
