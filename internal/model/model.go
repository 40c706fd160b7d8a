package model

import (
	"github.com/itisgrassi/lupus-in-tabula/api/pkg/lupus"
)

// User represents a registered user. Timestamps across the model are Unix
// seconds, matching the wire contract (0 means unset).
type User struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	PasswordHash string  `json:"-"`
	Salt         string  `json:"-"`
	Stats        Stats   `json:"stats"`
	CreatedAt    float64 `json:"created_at"`
}

// Stats counts a user's finished games and victories.
type Stats struct {
	Games       int `json:"games"`
	Wins        int `json:"wins"`
	WolfWins    int `json:"wolf_wins"`
	VillageWins int `json:"village_wins"`
}

// Session is an opaque server-side login session, carried by cookie.
type Session struct {
	ID        string  `json:"id" db:"id"`
	UserID    string  `json:"user_id" db:"user_id"`
	CreatedAt float64 `json:"created_at" db:"created_at"`
}

// Game represents one match. ID doubles as the join code: five uppercase
// letters.
type Game struct {
	ID                string         `json:"id"`
	State             lupus.Phase    `json:"state"`
	CreatorID         string         `json:"creator_id"`
	TargetPlayers     int            `json:"target_players"`
	TurnNumber        int            `json:"turn_number"`
	PhaseEndTime      float64        `json:"phase_end_time"`
	RolesInGame       map[string]int `json:"roles_in_game,omitempty"`
	Winners           string         `json:"winners,omitempty"`
	WinnerDetail      string         `json:"winner_detail,omitempty"`
	LastDayBurnedNick string         `json:"last_day_burned_nick,omitempty"`
	LastDayBurnedRole lupus.Role     `json:"last_day_burned_role,omitempty"`
	NightDeaths       []string       `json:"night_deaths,omitempty"`
	DayDeaths         []string       `json:"day_deaths,omitempty"`
	CreatedAt         float64        `json:"created_at"`
}

// Player is a user's seat in one game. Role may diverge from OriginalRole
// through the Mitomane's copy; OriginalRole never changes after assignment.
type Player struct {
	ID           string           `json:"id"`
	GameID       string           `json:"game_id"`
	UserID       string           `json:"user_id"`
	Nickname     string           `json:"nickname"`
	Role         lupus.Role       `json:"role,omitempty"`
	OriginalRole lupus.Role       `json:"original_role,omitempty"`
	IsAlive      bool             `json:"is_alive"`
	Attributes   PlayerAttributes `json:"attributes"`
}

// PlayerAttributes holds per-player flags that resolvers set and intake
// checks.
type PlayerAttributes struct {
	KamikazeUsed bool `json:"kamikaze_used"`
}

// Action is a player's staged night action. One row per (game, player,
// action type); cleared when a new night begins.
type Action struct {
	GameID     string           `json:"game_id" db:"game_id"`
	PlayerID   string           `json:"player_id" db:"player_id"`
	ActionType lupus.ActionType `json:"action_type" db:"action_type"`
	TargetID   string           `json:"target_id" db:"target_id"`
}

// Vote is a player's staged day lynch vote. One row per (game, player);
// cleared when a new night begins.
type Vote struct {
	GameID   string `json:"game_id" db:"game_id"`
	PlayerID string `json:"player_id" db:"player_id"`
	TargetID string `json:"target_id" db:"target_id"`
}

// Guess is a side-game prediction of another player's role. One row per
// (game, player, target); kept for the whole game.
type Guess struct {
	GameID      string     `json:"game_id" db:"game_id"`
	PlayerID    string     `json:"player_id" db:"player_id"`
	TargetID    string     `json:"target_id" db:"target_id"`
	GuessedRole lupus.Role `json:"guessed_role" db:"guessed_role"`
}

// Event is one line of a game's append-only log.
type Event struct {
	GameID string      `json:"-" db:"game_id"`
	Turn   int         `json:"turn" db:"turn"`
	Phase  lupus.Phase `json:"phase" db:"phase"`
	Type   string      `json:"type" db:"type"`
	Detail string      `json:"detail" db:"detail"`
	TS     float64     `json:"ts" db:"ts"`
}
