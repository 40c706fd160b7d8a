// Package lupus implements the rules of Lupus in Tabula: role catalog and
// distribution, the night resolution pipeline, day vote tallying, and win
// detection. The package is pure — it never touches storage or the clock —
// so every resolution is deterministic given its inputs.
package lupus

// Role identifies a player's role. The string values are part of the wire
// contract and stay in Italian.
type Role string

const (
	RoleLupo        Role = "Lupo"
	RoleVeggente    Role = "Veggente"
	RoleMedium      Role = "Medium"
	RoleIndemoniato Role = "Indemoniato"
	RoleProtettore  Role = "Protettore"
	RoleKamikaze    Role = "Kamikaze"
	RoleMassone     Role = "Massone"
	RoleCriceto     Role = "Criceto Mannaro"
	RoleMitomane    Role = "Mitomane"
	RoleOracolo     Role = "Oracolo"
	RoleVillico     Role = "Villico"
)

// ActionType identifies a night action.
type ActionType string

const (
	ActionKill        ActionType = "KILL"
	ActionInspect     ActionType = "INSPECT"
	ActionInspectRole ActionType = "INSPECT_ROLE"
	ActionProtect     ActionType = "PROTECT"
	ActionExplode     ActionType = "EXPLODE"
	ActionCopy        ActionType = "COPY"
)

// Phase is a stage of the game state machine.
type Phase string

const (
	PhaseLobby      Phase = "LOBBY"
	PhaseRoleReveal Phase = "ROLE_REVEAL"
	PhaseNight      Phase = "NIGHT"
	PhaseDay        Phase = "DAY"
	PhaseGameOver   Phase = "GAME_OVER"
)

// Phase durations in seconds.
const (
	NightDuration  = 180
	DayDuration    = 180
	RevealDuration = 120
)

// Winning side labels, as exposed to clients.
const (
	WinnersLupi      = "Lupi"
	WinnersVillaggio = "Villaggio"
	WinnersCriceto   = "Criceto Mannaro"
)

// wolfFaction holds the roles that see each other at night and that the
// Veggente's inspection reports as wolves. It deliberately contains only
// Lupo: the wider evil faction shares the wolves' victory, not their sight.
var wolfFaction = map[Role]bool{
	RoleLupo: true,
}

// evilFaction holds the roles that win with the wolves.
var evilFaction = map[Role]bool{
	RoleLupo:        true,
	RoleKamikaze:    true,
	RoleOracolo:     true,
	RoleIndemoniato: true,
}

// roleActions whitelists the night actions each role may submit.
// Roles without an entry have no night action.
var roleActions = map[Role][]ActionType{
	RoleLupo:       {ActionKill},
	RoleVeggente:   {ActionInspect},
	RoleOracolo:    {ActionInspectRole},
	RoleProtettore: {ActionProtect},
	RoleKamikaze:   {ActionKill, ActionExplode},
	RoleMitomane:   {ActionCopy},
}

// roleEmoji decorates role names in inspection results.
var roleEmoji = map[Role]string{
	RoleLupo:        "🐺",
	RoleVeggente:    "🔮",
	RoleMedium:      "👻",
	RoleIndemoniato: "😈",
	RoleProtettore:  "🛡️",
	RoleKamikaze:    "💣",
	RoleMassone:     "🤝",
	RoleCriceto:     "🐹",
	RoleMitomane:    "🎭",
	RoleOracolo:     "🔮",
	RoleVillico:     "🏘️",
}

// guessingRoles are the idle roles allowed to play the guess side-game.
var guessingRoles = map[Role]bool{
	RoleVillico:     true,
	RoleIndemoniato: true,
	RoleMassone:     true,
}

// IsWolf reports whether the role belongs to the wolf faction (night sight
// and inspection identity).
func IsWolf(r Role) bool { return wolfFaction[r] }

// IsEvil reports whether the role wins with the wolves.
func IsEvil(r Role) bool { return evilFaction[r] }

// CanGuess reports whether the role may submit guesses.
func CanGuess(r Role) bool { return guessingRoles[r] }

// ActionAllowed reports whether the role may submit the given night action.
func ActionAllowed(r Role, t ActionType) bool {
	for _, a := range roleActions[r] {
		if a == t {
			return true
		}
	}
	return false
}

// Emoji returns the emoji associated with a role, or the empty string.
func Emoji(r Role) string { return roleEmoji[r] }

// ValidRole reports whether s is one of the eleven role names.
func ValidRole(s string) bool {
	_, ok := roleEmoji[Role(s)]
	return ok
}
