package service

import (
	"context"
	"fmt"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/model"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/repository"
	"github.com/itisgrassi/lupus-in-tabula/api/pkg/lupus"
)

// ActionService validates and stages night actions, day votes, and guesses.
// Staging is last-write-wins; nothing resolves until the phase deadline.
type ActionService struct {
	gameRepo   repository.GameRepository
	playerRepo repository.PlayerRepository
	actionRepo repository.ActionRepository
	phases     *PhaseService
}

// NewActionService creates an ActionService.
func NewActionService(
	gameRepo repository.GameRepository,
	playerRepo repository.PlayerRepository,
	actionRepo repository.ActionRepository,
	phases *PhaseService,
) *ActionService {
	return &ActionService{
		gameRepo:   gameRepo,
		playerRepo: playerRepo,
		actionRepo: actionRepo,
		phases:     phases,
	}
}

// SubmitAction stages a night action, replacing the player's previous one of
// the same type. Inspections answer immediately; the returned result is
// empty for every other action.
func (s *ActionService) SubmitAction(ctx context.Context, code, userID string, actionType lupus.ActionType, targetID string) (result string, err error) {
	mu := s.phases.gameLock(code)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, code)
	if err != nil {
		return "", fmt.Errorf("find game: %w", err)
	}
	if game == nil {
		return "", ErrGameNotFound
	}
	if game.State != lupus.PhaseNight {
		return "", ErrNotNight
	}

	me, err := s.playerRepo.FindByGameAndUser(ctx, code, userID)
	if err != nil {
		return "", fmt.Errorf("find player: %w", err)
	}
	if me == nil {
		return "", ErrNotInGame
	}
	if !me.IsAlive {
		return "", ErrPlayerDead
	}
	if !lupus.ActionAllowed(me.Role, actionType) {
		return "", &ActionNotAllowedError{Action: actionType, Role: me.Role}
	}
	if actionType == lupus.ActionCopy && game.TurnNumber != 2 {
		return "", ErrCopyWrongNight
	}
	if actionType == lupus.ActionExplode && me.Attributes.KamikazeUsed {
		return "", ErrExplosionSpent
	}

	target, err := s.playerRepo.FindByID(ctx, targetID)
	if err != nil {
		return "", fmt.Errorf("find target: %w", err)
	}
	if target == nil || target.GameID != code {
		return "", ErrInvalidTarget
	}
	if !target.IsAlive {
		return "", ErrTargetDead
	}
	if actionType == lupus.ActionProtect && target.ID == me.ID {
		return "", ErrProtectSelf
	}
	if actionType == lupus.ActionKill && target.ID == me.ID {
		return "", ErrTargetSelf
	}

	// The Kamikaze picks one mode a night: a new KILL drops a staged
	// EXPLODE and vice versa.
	if me.Role == lupus.RoleKamikaze {
		var other lupus.ActionType
		switch actionType {
		case lupus.ActionKill:
			other = lupus.ActionExplode
		case lupus.ActionExplode:
			other = lupus.ActionKill
		}
		if other != "" {
			if err := s.actionRepo.DeleteAction(ctx, code, me.ID, other); err != nil {
				return "", fmt.Errorf("drop staged action: %w", err)
			}
		}
	}

	err = s.actionRepo.UpsertAction(ctx, &model.Action{
		GameID:     code,
		PlayerID:   me.ID,
		ActionType: actionType,
		TargetID:   target.ID,
	})
	if err != nil {
		return "", fmt.Errorf("stage action: %w", err)
	}

	switch actionType {
	case lupus.ActionInspect:
		return lupus.InspectResult(enginePlayer(target)), nil
	case lupus.ActionInspectRole:
		return lupus.InspectRoleResult(enginePlayer(target)), nil
	}
	return "", nil
}

// SubmitVote stages a day lynch vote, replacing the player's previous one.
func (s *ActionService) SubmitVote(ctx context.Context, code, userID, targetID string) error {
	mu := s.phases.gameLock(code)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, code)
	if err != nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.State != lupus.PhaseDay {
		return ErrNotDay
	}

	me, err := s.playerRepo.FindByGameAndUser(ctx, code, userID)
	if err != nil {
		return fmt.Errorf("find player: %w", err)
	}
	if me == nil || !me.IsAlive {
		return ErrCannotVote
	}

	target, err := s.playerRepo.FindByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("find target: %w", err)
	}
	if target == nil || target.GameID != code || !target.IsAlive {
		return ErrInvalidTarget
	}
	if target.ID == me.ID {
		return ErrVoteSelf
	}

	err = s.actionRepo.UpsertVote(ctx, &model.Vote{
		GameID:   code,
		PlayerID: me.ID,
		TargetID: target.ID,
	})
	if err != nil {
		return fmt.Errorf("stage vote: %w", err)
	}
	return nil
}

// SubmitGuess stages a side-game prediction, one per target, replaceable
// until the game ends. Only idle roles play; dead targets are fair game.
func (s *ActionService) SubmitGuess(ctx context.Context, code, userID, targetID string, guessedRole lupus.Role) error {
	mu := s.phases.gameLock(code)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, code)
	if err != nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.State != lupus.PhaseNight && game.State != lupus.PhaseDay {
		return ErrGuessClosed
	}

	me, err := s.playerRepo.FindByGameAndUser(ctx, code, userID)
	if err != nil {
		return fmt.Errorf("find player: %w", err)
	}
	if me == nil || !me.IsAlive {
		return ErrCannotPlay
	}
	if !lupus.CanGuess(me.Role) {
		return ErrGuessingRole
	}

	target, err := s.playerRepo.FindByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("find target: %w", err)
	}
	if target == nil || target.GameID != code {
		return ErrInvalidTarget
	}

	err = s.actionRepo.UpsertGuess(ctx, &model.Guess{
		GameID:      code,
		PlayerID:    me.ID,
		TargetID:    target.ID,
		GuessedRole: guessedRole,
	})
	if err != nil {
		return fmt.Errorf("stage guess: %w", err)
	}
	return nil
}
