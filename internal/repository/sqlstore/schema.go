package sqlstore

// schema uses only syntax shared by PostgreSQL and SQLite: TEXT keys,
// DOUBLE PRECISION for Unix-second timestamps, JSON kept in TEXT columns.
// seq columns record insertion order per game; ON CONFLICT upserts leave
// them untouched so a changed target keeps its original slot.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	salt          TEXT NOT NULL,
	games         INTEGER NOT NULL DEFAULT 0,
	wins          INTEGER NOT NULL DEFAULT 0,
	wolf_wins     INTEGER NOT NULL DEFAULT 0,
	village_wins  INTEGER NOT NULL DEFAULT 0,
	created_at    DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	created_at DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS games (
	id                   TEXT PRIMARY KEY,
	state                TEXT NOT NULL,
	creator_id           TEXT NOT NULL,
	target_players       INTEGER NOT NULL,
	turn_number          INTEGER NOT NULL DEFAULT 0,
	phase_end_time       DOUBLE PRECISION NOT NULL DEFAULT 0,
	roles_in_game        TEXT NOT NULL DEFAULT '{}',
	winners              TEXT NOT NULL DEFAULT '',
	winner_detail        TEXT NOT NULL DEFAULT '',
	last_day_burned_nick TEXT NOT NULL DEFAULT '',
	last_day_burned_role TEXT NOT NULL DEFAULT '',
	night_deaths         TEXT NOT NULL DEFAULT '[]',
	day_deaths           TEXT NOT NULL DEFAULT '[]',
	created_at           DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS players (
	id            TEXT PRIMARY KEY,
	game_id       TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	nickname      TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT '',
	original_role TEXT NOT NULL DEFAULT '',
	is_alive      BOOLEAN NOT NULL DEFAULT TRUE,
	attributes    TEXT NOT NULL DEFAULT '{}',
	seq           INTEGER NOT NULL,
	UNIQUE (game_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_players_game ON players (game_id);
CREATE INDEX IF NOT EXISTS idx_players_user ON players (user_id);

CREATE TABLE IF NOT EXISTS actions (
	game_id     TEXT NOT NULL,
	player_id   TEXT NOT NULL,
	action_type TEXT NOT NULL,
	target_id   TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	PRIMARY KEY (game_id, player_id, action_type)
);

CREATE TABLE IF NOT EXISTS votes (
	game_id   TEXT NOT NULL,
	player_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	seq       INTEGER NOT NULL,
	PRIMARY KEY (game_id, player_id)
);

CREATE TABLE IF NOT EXISTS guesses (
	game_id      TEXT NOT NULL,
	player_id    TEXT NOT NULL,
	target_id    TEXT NOT NULL,
	guessed_role TEXT NOT NULL,
	PRIMARY KEY (game_id, player_id, target_id)
);

CREATE TABLE IF NOT EXISTS events (
	game_id TEXT NOT NULL,
	seq     INTEGER NOT NULL,
	turn    INTEGER NOT NULL,
	phase   TEXT NOT NULL,
	type    TEXT NOT NULL,
	detail  TEXT NOT NULL,
	ts      DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (game_id, seq)
);
`
