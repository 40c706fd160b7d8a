package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/model"
)

// UserRepo implements repository.UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo creates a UserRepo backed by the store.
func NewUserRepo(s *Store) *UserRepo {
	return &UserRepo{db: s.db}
}

const userColumns = `id, username, password_hash, salt, games, wins, wolf_wins, village_wins, created_at`

// Create inserts a new user. The username is unique; a duplicate surfaces as
// a constraint error.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	q := r.db.Rebind(`INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		u.ID, u.Username, u.PasswordHash, u.Salt,
		u.Stats.Games, u.Stats.Wins, u.Stats.WolfWins, u.Stats.VillageWins, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByID looks up a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findBy(ctx, "id", id)
}

// FindByUsername looks up a user by exact username.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findBy(ctx, "username", username)
}

func (r *UserRepo) findBy(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User
	q := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)
	err := r.db.QueryRowxContext(ctx, q, value).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Salt,
		&u.Stats.Games, &u.Stats.Wins, &u.Stats.WolfWins, &u.Stats.VillageWins, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by %s: %w", column, err)
	}
	return &u, nil
}

// AddStats increments the user's counters by the given deltas.
func (r *UserRepo) AddStats(ctx context.Context, userID string, delta model.Stats) error {
	q := r.db.Rebind(`UPDATE users
		SET games = games + ?, wins = wins + ?, wolf_wins = wolf_wins + ?, village_wins = village_wins + ?
		WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, q,
		delta.Games, delta.Wins, delta.WolfWins, delta.VillageWins, userID)
	if err != nil {
		return fmt.Errorf("add user stats: %w", err)
	}
	return nil
}
