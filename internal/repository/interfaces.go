package repository

import (
	"context"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/model"
	"github.com/itisgrassi/lupus-in-tabula/api/pkg/lupus"
)

// Lookup methods return (nil, nil) when the entity does not exist; callers
// translate that into their own not-found errors.

// UserRepository defines user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	AddStats(ctx context.Context, userID string, delta model.Stats) error
}

// SessionRepository defines login session operations.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	Find(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

// GameRepository defines game and event-log data operations.
type GameRepository interface {
	Create(ctx context.Context, game *model.Game) error
	FindByID(ctx context.Context, id string) (*model.Game, error)
	Update(ctx context.Context, game *model.Game) error
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListFinishedByUser(ctx context.Context, userID string) ([]model.Game, error)
	FindActiveByUser(ctx context.Context, userID string) (*model.Game, error)
	ListExpired(ctx context.Context, now float64) ([]model.Game, error)
	ListRunning(ctx context.Context) ([]model.Game, error)
	AppendEvent(ctx context.Context, event *model.Event) error
	Events(ctx context.Context, gameID string) ([]model.Event, error)
}

// PlayerRepository defines player data operations.
type PlayerRepository interface {
	Create(ctx context.Context, player *model.Player) error
	FindByID(ctx context.Context, id string) (*model.Player, error)
	FindByGameAndUser(ctx context.Context, gameID, userID string) (*model.Player, error)
	ListByGame(ctx context.Context, gameID string) ([]model.Player, error)
	ListAlive(ctx context.Context, gameID string) ([]model.Player, error)
	Update(ctx context.Context, player *model.Player) error
}

// ActionRepository defines the night action, day vote, and guess staging
// tables. Actions and votes clear at each NIGHT entry; guesses persist for
// the whole game.
type ActionRepository interface {
	UpsertAction(ctx context.Context, action *model.Action) error
	DeleteAction(ctx context.Context, gameID, playerID string, actionType lupus.ActionType) error
	ActionsByGame(ctx context.Context, gameID string) ([]model.Action, error)
	ActionsByType(ctx context.Context, gameID string, actionType lupus.ActionType) ([]model.Action, error)
	ClearActions(ctx context.Context, gameID string) error

	UpsertVote(ctx context.Context, vote *model.Vote) error
	VotesByGame(ctx context.Context, gameID string) ([]model.Vote, error)
	ClearVotes(ctx context.Context, gameID string) error

	UpsertGuess(ctx context.Context, guess *model.Guess) error
	GuessesByGame(ctx context.Context, gameID string) ([]model.Guess, error)
}

// Resetter wipes every table. Debug helper behind POST /reset.
type Resetter interface {
	Reset(ctx context.Context) error
}

// TimerCache schedules phase deadline wakeups (Redis). Optional: the
// services fall back to lazy advancement plus the sweeper when absent.
type TimerCache interface {
	SetTimer(ctx context.Context, gameID string, seconds int) error
	ClearTimer(ctx context.Context, gameID string) error
}
