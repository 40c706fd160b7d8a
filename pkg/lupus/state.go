package lupus

// Player is the engine's view of a seated player. Role may differ from
// OriginalRole after a Mitomane copy; OriginalRole never changes once
// assigned.
type Player struct {
	ID           string
	Nickname     string
	Role         Role
	OriginalRole Role
	Alive        bool
	KamikazeUsed bool
}

// Action is a submitted night action.
type Action struct {
	PlayerID string
	TargetID string
	Type     ActionType
}

// Vote is a submitted day lynch vote.
type Vote struct {
	PlayerID string
	TargetID string
}

// Event is a resolution event. The caller stamps turn, phase, and timestamp
// when appending it to a game's log.
type Event struct {
	Type   string
	Detail string
}

// Event type labels emitted by the resolvers.
const (
	EventGameStart      = "game_start"
	EventNightStart     = "night_start"
	EventDayStart       = "day_start"
	EventGameEnd        = "game_end"
	EventMitomaneCopy   = "mitomane_copy"
	EventProtect        = "protect"
	EventWolfTie        = "wolf_tie"
	EventCricetoImmune  = "criceto_immune"
	EventProtected      = "protected"
	EventWolfKill       = "wolf_kill"
	EventMasonProtected = "mason_protected"
	EventMasonChain     = "mason_chain"
	EventKamikazeBoom   = "kamikaze_explode"
	EventBurned         = "burned"
)
