package service

import (
	"sort"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/model"
	"github.com/itisgrassi/lupus-in-tabula/api/pkg/lupus"
)

// GameStateView is the full state payload a player polls. Role information
// is redacted: other players' roles never leave the server before GAME_OVER,
// and wolf-only fields fill in only for wolves at night.
type GameStateView struct {
	GameID           string             `json:"game_id"`
	State            lupus.Phase        `json:"state"`
	TurnNumber       int                `json:"turn_number"`
	TimerSecondsLeft int                `json:"timer_seconds_left"`
	TargetPlayers    int                `json:"target_players"`
	Players          []PlayerView       `json:"players"`
	Me               *MeView            `json:"me"`
	RolesInGame      map[string]int     `json:"roles_in_game"`
	NightDeaths      []string           `json:"night_deaths"`
	DayDeaths        []string           `json:"day_deaths"`
	WolfVotes        map[string]string  `json:"wolf_votes"`
	WolfTeammates    []string           `json:"wolf_teammates"`
	NightMessage     *string            `json:"night_message"`
	DayVotes         map[string]string  `json:"day_votes"`
	Winners          *string            `json:"winners"`
	WinnerDetail     *string            `json:"winner_detail"`
	Events           []model.Event      `json:"events"`
	AllRoles         []AllRoleView      `json:"all_roles"`
	GuessLeaderboard []LeaderboardEntry `json:"guess_leaderboard,omitempty"`
}

// PlayerView is the public face of a seated player.
type PlayerView struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	IsAlive  bool   `json:"is_alive"`
}

// MeView is the requester's own seat, role included.
type MeView struct {
	ID         string                 `json:"id"`
	Nickname   string                 `json:"nickname"`
	Role       string                 `json:"role"`
	IsAlive    bool                   `json:"is_alive"`
	Attributes model.PlayerAttributes `json:"attributes"`
}

// AllRoleView reveals a player's dealt and final role after the game ends.
type AllRoleView struct {
	Nickname  string `json:"nickname"`
	Role      string `json:"role"`
	FinalRole string `json:"final_role"`
	IsAlive   bool   `json:"is_alive"`
}

// LeaderboardEntry scores one guesser in the side-game.
type LeaderboardEntry struct {
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
	Correct  int    `json:"correct"`
	Total    int    `json:"total"`
}

// buildGameState projects the state a single player may see. me is nil for
// lobby spectators. actions carry the night's KILL votes, votes the day's
// lynch votes; events and guesses only matter at game over.
func buildGameState(
	game *model.Game,
	players []model.Player,
	me *model.Player,
	actions []model.Action,
	votes []model.Vote,
	events []model.Event,
	guesses []model.Guess,
	now float64,
) *GameStateView {
	timerLeft := 0
	if game.PhaseEndTime > now {
		timerLeft = int(game.PhaseEndTime - now)
	}

	view := &GameStateView{
		GameID:           game.ID,
		State:            game.State,
		TurnNumber:       game.TurnNumber,
		TimerSecondsLeft: timerLeft,
		TargetPlayers:    game.TargetPlayers,
		Players:          make([]PlayerView, 0, len(players)),
		RolesInGame:      game.RolesInGame,
		NightDeaths:      []string{},
		DayDeaths:        []string{},
		WolfTeammates:    []string{},
		DayVotes:         map[string]string{},
		Events:           []model.Event{},
	}
	if view.RolesInGame == nil {
		view.RolesInGame = map[string]int{}
	}

	byID := make(map[string]*model.Player, len(players))
	for i := range players {
		p := &players[i]
		byID[p.ID] = p
		view.Players = append(view.Players, PlayerView{
			ID:       p.ID,
			Nickname: p.Nickname,
			IsAlive:  p.IsAlive,
		})
	}

	if me != nil {
		role := string(me.Role)
		if role == "" {
			role = "?"
		}
		view.Me = &MeView{
			ID:         me.ID,
			Nickname:   me.Nickname,
			Role:       role,
			IsAlive:    me.IsAlive,
			Attributes: me.Attributes,
		}
	}

	switch game.State {
	case lupus.PhaseNight:
		if me != nil && lupus.IsWolf(me.Role) {
			view.WolfVotes = map[string]string{}
			for _, p := range players {
				if lupus.IsWolf(p.Role) && p.ID != me.ID {
					view.WolfTeammates = append(view.WolfTeammates, p.Nickname)
				}
			}
			for _, a := range actions {
				voter, target := byID[a.PlayerID], byID[a.TargetID]
				if voter != nil && target != nil {
					view.WolfVotes[voter.Nickname] = target.Nickname
				}
			}
		}
		if me != nil {
			msg := lupus.NightMessage(enginePlayer(me), game.TurnNumber,
				game.LastDayBurnedNick, game.LastDayBurnedRole, enginePlayers(players))
			if msg != "" {
				view.NightMessage = &msg
			}
		}

	case lupus.PhaseDay:
		if game.NightDeaths != nil {
			view.NightDeaths = game.NightDeaths
		}
		for _, v := range votes {
			voter, target := byID[v.PlayerID], byID[v.TargetID]
			if voter != nil && target != nil {
				view.DayVotes[voter.Nickname] = target.Nickname
			}
		}

	case lupus.PhaseGameOver:
		winners, detail := game.Winners, game.WinnerDetail
		view.Winners = &winners
		view.WinnerDetail = &detail
		if events != nil {
			view.Events = events
		}
		view.AllRoles = make([]AllRoleView, 0, len(players))
		for _, p := range players {
			view.AllRoles = append(view.AllRoles, AllRoleView{
				Nickname:  p.Nickname,
				Role:      string(p.OriginalRole),
				FinalRole: string(p.Role),
				IsAlive:   p.IsAlive,
			})
		}
		view.GuessLeaderboard = buildLeaderboard(players, guesses)
	}

	return view
}

func enginePlayer(p *model.Player) lupus.Player {
	return lupus.Player{
		ID:           p.ID,
		Nickname:     p.Nickname,
		Role:         p.Role,
		OriginalRole: p.OriginalRole,
		Alive:        p.IsAlive,
		KamikazeUsed: p.Attributes.KamikazeUsed,
	}
}

// buildLeaderboard scores the guess side-game: a guess is correct when it
// names the target's dealt role. Best guessers first.
func buildLeaderboard(players []model.Player, guesses []model.Guess) []LeaderboardEntry {
	byID := make(map[string]*model.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}

	type score struct{ correct, total int }
	scores := make(map[string]*score)
	var order []string
	for _, g := range guesses {
		guesser, target := byID[g.PlayerID], byID[g.TargetID]
		if guesser == nil || target == nil {
			continue
		}
		sc := scores[g.PlayerID]
		if sc == nil {
			sc = &score{}
			scores[g.PlayerID] = sc
			order = append(order, g.PlayerID)
		}
		sc.total++
		if g.GuessedRole == target.OriginalRole {
			sc.correct++
		}
	}

	board := make([]LeaderboardEntry, 0, len(order))
	for _, id := range order {
		p := byID[id]
		board = append(board, LeaderboardEntry{
			Nickname: p.Nickname,
			Role:     string(p.OriginalRole),
			Correct:  scores[id].correct,
			Total:    scores[id].total,
		})
	}
	sort.SliceStable(board, func(i, j int) bool { return board[i].Correct > board[j].Correct })
	return board
}
