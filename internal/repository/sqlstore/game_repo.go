package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/model"
)

// GameRepo implements repository.GameRepository.
type GameRepo struct {
	db *sqlx.DB
}

// NewGameRepo creates a GameRepo backed by the store.
func NewGameRepo(s *Store) *GameRepo {
	return &GameRepo{db: s.db}
}

const gameColumns = `id, state, creator_id, target_players, turn_number, phase_end_time,
	roles_in_game, winners, winner_detail, last_day_burned_nick, last_day_burned_role,
	night_deaths, day_deaths, created_at`

// Create inserts a new game row.
func (r *GameRepo) Create(ctx context.Context, g *model.Game) error {
	roles, night, day, err := marshalGameJSON(g)
	if err != nil {
		return err
	}
	q := r.db.Rebind(`INSERT INTO games (` + gameColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, q,
		g.ID, g.State, g.CreatorID, g.TargetPlayers, g.TurnNumber, g.PhaseEndTime,
		roles, g.Winners, g.WinnerDetail, g.LastDayBurnedNick, g.LastDayBurnedRole,
		night, day, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// FindByID looks up a game by its code.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	q := r.db.Rebind(`SELECT ` + gameColumns + ` FROM games WHERE id = ?`)
	g, err := scanGame(r.db.QueryRowxContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	return g, nil
}

// Update writes back every mutable game field.
func (r *GameRepo) Update(ctx context.Context, g *model.Game) error {
	roles, night, day, err := marshalGameJSON(g)
	if err != nil {
		return err
	}
	q := r.db.Rebind(`UPDATE games
		SET state = ?, turn_number = ?, phase_end_time = ?, roles_in_game = ?,
			winners = ?, winner_detail = ?, last_day_burned_nick = ?, last_day_burned_role = ?,
			night_deaths = ?, day_deaths = ?
		WHERE id = ?`)
	_, err = r.db.ExecContext(ctx, q,
		g.State, g.TurnNumber, g.PhaseEndTime, roles,
		g.Winners, g.WinnerDetail, g.LastDayBurnedNick, g.LastDayBurnedRole,
		night, day, g.ID)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	return nil
}

// ListOpen returns every game still in the lobby, newest first.
func (r *GameRepo) ListOpen(ctx context.Context) ([]model.Game, error) {
	q := r.db.Rebind(`SELECT ` + gameColumns + ` FROM games WHERE state = 'LOBBY' ORDER BY created_at DESC`)
	return r.list(ctx, q)
}

// ListFinishedByUser returns the finished games a user played in, newest
// first.
func (r *GameRepo) ListFinishedByUser(ctx context.Context, userID string) ([]model.Game, error) {
	q := r.db.Rebind(`SELECT ` + gameColumns + ` FROM games
		WHERE state = 'GAME_OVER'
		  AND id IN (SELECT game_id FROM players WHERE user_id = ?)
		ORDER BY created_at DESC`)
	return r.list(ctx, q, userID)
}

// FindActiveByUser returns a game of the user's that has not finished, or
// nil.
func (r *GameRepo) FindActiveByUser(ctx context.Context, userID string) (*model.Game, error) {
	q := r.db.Rebind(`SELECT ` + gameColumns + ` FROM games
		WHERE state <> 'GAME_OVER'
		  AND id IN (SELECT game_id FROM players WHERE user_id = ?)
		ORDER BY created_at DESC`)
	games, err := r.list(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, nil
	}
	return &games[0], nil
}

// ListExpired returns running games whose phase deadline has passed.
func (r *GameRepo) ListExpired(ctx context.Context, now float64) ([]model.Game, error) {
	q := r.db.Rebind(`SELECT ` + gameColumns + ` FROM games
		WHERE state IN ('ROLE_REVEAL', 'NIGHT', 'DAY')
		  AND phase_end_time > 0 AND phase_end_time <= ?`)
	return r.list(ctx, q, now)
}

// ListRunning returns every game past the lobby that has not finished.
// Used to re-arm phase timers after a restart.
func (r *GameRepo) ListRunning(ctx context.Context) ([]model.Game, error) {
	q := r.db.Rebind(`SELECT ` + gameColumns + ` FROM games
		WHERE state IN ('ROLE_REVEAL', 'NIGHT', 'DAY')`)
	return r.list(ctx, q)
}

func (r *GameRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Game, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// AppendEvent adds one line to a game's event log, after the existing ones.
func (r *GameRepo) AppendEvent(ctx context.Context, e *model.Event) error {
	q := r.db.Rebind(`INSERT INTO events (game_id, seq, turn, phase, type, detail, ts)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE game_id = ?), ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q, e.GameID, e.GameID, e.Turn, e.Phase, e.Type, e.Detail, e.TS)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Events returns a game's event log in append order.
func (r *GameRepo) Events(ctx context.Context, gameID string) ([]model.Event, error) {
	var events []model.Event
	q := r.db.Rebind(`SELECT game_id, turn, phase, type, detail, ts FROM events
		WHERE game_id = ? ORDER BY seq`)
	if err := r.db.SelectContext(ctx, &events, q, gameID); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row scanner) (*model.Game, error) {
	var g model.Game
	var roles, night, day []byte
	err := row.Scan(
		&g.ID, &g.State, &g.CreatorID, &g.TargetPlayers, &g.TurnNumber, &g.PhaseEndTime,
		&roles, &g.Winners, &g.WinnerDetail, &g.LastDayBurnedNick, &g.LastDayBurnedRole,
		&night, &day, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(roles, &g.RolesInGame); err != nil {
		return nil, fmt.Errorf("decode roles_in_game: %w", err)
	}
	if err := json.Unmarshal(night, &g.NightDeaths); err != nil {
		return nil, fmt.Errorf("decode night_deaths: %w", err)
	}
	if err := json.Unmarshal(day, &g.DayDeaths); err != nil {
		return nil, fmt.Errorf("decode day_deaths: %w", err)
	}
	return &g, nil
}

func marshalGameJSON(g *model.Game) (roles, night, day []byte, err error) {
	rolesMap := g.RolesInGame
	if rolesMap == nil {
		rolesMap = map[string]int{}
	}
	if roles, err = json.Marshal(rolesMap); err != nil {
		return nil, nil, nil, fmt.Errorf("encode roles_in_game: %w", err)
	}
	if night, err = json.Marshal(stringList(g.NightDeaths)); err != nil {
		return nil, nil, nil, fmt.Errorf("encode night_deaths: %w", err)
	}
	if day, err = json.Marshal(stringList(g.DayDeaths)); err != nil {
		return nil, nil, nil, fmt.Errorf("encode day_deaths: %w", err)
	}
	return roles, night, day, nil
}

func stringList(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
