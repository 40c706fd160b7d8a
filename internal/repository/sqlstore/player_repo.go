package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/model"
)

// PlayerRepo implements repository.PlayerRepository. Listings come back in
// join order, which the resolvers and views rely on.
type PlayerRepo struct {
	db *sqlx.DB
}

// NewPlayerRepo creates a PlayerRepo backed by the store.
func NewPlayerRepo(s *Store) *PlayerRepo {
	return &PlayerRepo{db: s.db}
}

const playerColumns = `id, game_id, user_id, nickname, role, original_role, is_alive, attributes`

// Create inserts a player at the end of the game's seating order.
func (r *PlayerRepo) Create(ctx context.Context, p *model.Player) error {
	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	q := r.db.Rebind(`INSERT INTO players (` + playerColumns + `, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM players WHERE game_id = ?))`)
	_, err = r.db.ExecContext(ctx, q,
		p.ID, p.GameID, p.UserID, p.Nickname, p.Role, p.OriginalRole, p.IsAlive, attrs, p.GameID)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

// FindByID looks up a player by id.
func (r *PlayerRepo) FindByID(ctx context.Context, id string) (*model.Player, error) {
	q := r.db.Rebind(`SELECT ` + playerColumns + ` FROM players WHERE id = ?`)
	p, err := scanPlayer(r.db.QueryRowxContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find player: %w", err)
	}
	return p, nil
}

// FindByGameAndUser looks up a user's seat in a game.
func (r *PlayerRepo) FindByGameAndUser(ctx context.Context, gameID, userID string) (*model.Player, error) {
	q := r.db.Rebind(`SELECT ` + playerColumns + ` FROM players WHERE game_id = ? AND user_id = ?`)
	p, err := scanPlayer(r.db.QueryRowxContext(ctx, q, gameID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find player in game: %w", err)
	}
	return p, nil
}

// ListByGame returns every player in a game, in join order.
func (r *PlayerRepo) ListByGame(ctx context.Context, gameID string) ([]model.Player, error) {
	q := r.db.Rebind(`SELECT ` + playerColumns + ` FROM players WHERE game_id = ? ORDER BY seq`)
	return r.list(ctx, q, gameID)
}

// ListAlive returns the living players of a game, in join order.
func (r *PlayerRepo) ListAlive(ctx context.Context, gameID string) ([]model.Player, error) {
	q := r.db.Rebind(`SELECT ` + playerColumns + ` FROM players WHERE game_id = ? AND is_alive ORDER BY seq`)
	return r.list(ctx, q, gameID)
}

// Update writes back the player's mutable fields.
func (r *PlayerRepo) Update(ctx context.Context, p *model.Player) error {
	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	q := r.db.Rebind(`UPDATE players
		SET role = ?, original_role = ?, is_alive = ?, attributes = ?
		WHERE id = ?`)
	_, err = r.db.ExecContext(ctx, q, p.Role, p.OriginalRole, p.IsAlive, attrs, p.ID)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return nil
}

func (r *PlayerRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Player, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func scanPlayer(row scanner) (*model.Player, error) {
	var p model.Player
	var attrs []byte
	err := row.Scan(&p.ID, &p.GameID, &p.UserID, &p.Nickname, &p.Role, &p.OriginalRole, &p.IsAlive, &attrs)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return &p, nil
}
