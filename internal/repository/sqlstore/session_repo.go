package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/model"
)

// SessionRepo implements repository.SessionRepository.
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo creates a SessionRepo backed by the store.
func NewSessionRepo(s *Store) *SessionRepo {
	return &SessionRepo{db: s.db}
}

// Create inserts a new session.
func (r *SessionRepo) Create(ctx context.Context, sess *model.Session) error {
	q := r.db.Rebind(`INSERT INTO sessions (id, user_id, created_at) VALUES (?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, q, sess.ID, sess.UserID, sess.CreatedAt); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Find looks up a session by id.
func (r *SessionRepo) Find(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	q := r.db.Rebind(`SELECT id, user_id, created_at FROM sessions WHERE id = ?`)
	err := r.db.GetContext(ctx, &sess, q, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session; deleting a missing session is not an error.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	q := r.db.Rebind(`DELETE FROM sessions WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
