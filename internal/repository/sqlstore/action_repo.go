package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/model"
	"github.com/itisgrassi/lupus-in-tabula/api/pkg/lupus"
)

// ActionRepo implements repository.ActionRepository over the three staging
// tables. Upserts keep the row's original seq, so re-targeting an action
// does not move it in submission order.
type ActionRepo struct {
	db *sqlx.DB
}

// NewActionRepo creates an ActionRepo backed by the store.
func NewActionRepo(s *Store) *ActionRepo {
	return &ActionRepo{db: s.db}
}

// UpsertAction stores a night action, replacing the player's previous one of
// the same type.
func (r *ActionRepo) UpsertAction(ctx context.Context, a *model.Action) error {
	q := r.db.Rebind(`INSERT INTO actions (game_id, player_id, action_type, target_id, seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM actions WHERE game_id = ?))
		ON CONFLICT (game_id, player_id, action_type) DO UPDATE SET target_id = excluded.target_id`)
	_, err := r.db.ExecContext(ctx, q, a.GameID, a.PlayerID, a.ActionType, a.TargetID, a.GameID)
	if err != nil {
		return fmt.Errorf("upsert action: %w", err)
	}
	return nil
}

// DeleteAction removes one player's action of the given type, if present.
func (r *ActionRepo) DeleteAction(ctx context.Context, gameID, playerID string, actionType lupus.ActionType) error {
	q := r.db.Rebind(`DELETE FROM actions WHERE game_id = ? AND player_id = ? AND action_type = ?`)
	if _, err := r.db.ExecContext(ctx, q, gameID, playerID, actionType); err != nil {
		return fmt.Errorf("delete action: %w", err)
	}
	return nil
}

// ActionsByGame returns a game's staged actions in submission order.
func (r *ActionRepo) ActionsByGame(ctx context.Context, gameID string) ([]model.Action, error) {
	var actions []model.Action
	q := r.db.Rebind(`SELECT game_id, player_id, action_type, target_id FROM actions
		WHERE game_id = ? ORDER BY seq`)
	if err := r.db.SelectContext(ctx, &actions, q, gameID); err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return actions, nil
}

// ActionsByType returns a game's staged actions of one type, in submission
// order.
func (r *ActionRepo) ActionsByType(ctx context.Context, gameID string, actionType lupus.ActionType) ([]model.Action, error) {
	var actions []model.Action
	q := r.db.Rebind(`SELECT game_id, player_id, action_type, target_id FROM actions
		WHERE game_id = ? AND action_type = ? ORDER BY seq`)
	if err := r.db.SelectContext(ctx, &actions, q, gameID, actionType); err != nil {
		return nil, fmt.Errorf("list actions by type: %w", err)
	}
	return actions, nil
}

// ClearActions drops all staged actions of a game.
func (r *ActionRepo) ClearActions(ctx context.Context, gameID string) error {
	q := r.db.Rebind(`DELETE FROM actions WHERE game_id = ?`)
	if _, err := r.db.ExecContext(ctx, q, gameID); err != nil {
		return fmt.Errorf("clear actions: %w", err)
	}
	return nil
}

// UpsertVote stores a day vote, replacing the player's previous one.
func (r *ActionRepo) UpsertVote(ctx context.Context, v *model.Vote) error {
	q := r.db.Rebind(`INSERT INTO votes (game_id, player_id, target_id, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM votes WHERE game_id = ?))
		ON CONFLICT (game_id, player_id) DO UPDATE SET target_id = excluded.target_id`)
	_, err := r.db.ExecContext(ctx, q, v.GameID, v.PlayerID, v.TargetID, v.GameID)
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	return nil
}

// VotesByGame returns a game's staged votes in submission order.
func (r *ActionRepo) VotesByGame(ctx context.Context, gameID string) ([]model.Vote, error) {
	var votes []model.Vote
	q := r.db.Rebind(`SELECT game_id, player_id, target_id FROM votes
		WHERE game_id = ? ORDER BY seq`)
	if err := r.db.SelectContext(ctx, &votes, q, gameID); err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return votes, nil
}

// ClearVotes drops all staged votes of a game.
func (r *ActionRepo) ClearVotes(ctx context.Context, gameID string) error {
	q := r.db.Rebind(`DELETE FROM votes WHERE game_id = ?`)
	if _, err := r.db.ExecContext(ctx, q, gameID); err != nil {
		return fmt.Errorf("clear votes: %w", err)
	}
	return nil
}

// UpsertGuess stores a side-game guess, one per (player, target).
func (r *ActionRepo) UpsertGuess(ctx context.Context, g *model.Guess) error {
	q := r.db.Rebind(`INSERT INTO guesses (game_id, player_id, target_id, guessed_role)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (game_id, player_id, target_id) DO UPDATE SET guessed_role = excluded.guessed_role`)
	_, err := r.db.ExecContext(ctx, q, g.GameID, g.PlayerID, g.TargetID, g.GuessedRole)
	if err != nil {
		return fmt.Errorf("upsert guess: %w", err)
	}
	return nil
}

// GuessesByGame returns every guess recorded for a game.
func (r *ActionRepo) GuessesByGame(ctx context.Context, gameID string) ([]model.Guess, error) {
	var guesses []model.Guess
	q := r.db.Rebind(`SELECT game_id, player_id, target_id, guessed_role FROM guesses
		WHERE game_id = ? ORDER BY player_id, target_id`)
	if err := r.db.SelectContext(ctx, &guesses, q, gameID); err != nil {
		return nil, fmt.Errorf("list guesses: %w", err)
	}
	return guesses, nil
}
