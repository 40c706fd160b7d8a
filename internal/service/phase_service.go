package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/model"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/repository"
	"github.com/itisgrassi/lupus-in-tabula/api/pkg/lupus"
)

// setupPhase stamps the game_start event, before the first real phase.
const setupPhase = lupus.Phase("SETUP")

// PhaseService owns the game clock: role assignment at start, the lazy
// advancement that every read triggers, and deadline-driven resolution from
// the timer listener. All game mutation is serialized per game code.
type PhaseService struct {
	gameRepo   repository.GameRepository
	playerRepo repository.PlayerRepository
	userRepo   repository.UserRepository
	actionRepo repository.ActionRepository
	timers     repository.TimerCache // optional; nil without Redis

	// gameLocks prevents concurrent mutation of the same game. A lazy
	// advance from a read and a timer expiry can fire simultaneously;
	// without locking, both resolve the same phase twice.
	gameLocks sync.Map

	// now is the time source, replaceable in tests.
	now func() time.Time
}

// NewPhaseService creates a PhaseService. timers may be nil; lazy
// advancement and the sweeper cover deadline handling without it.
func NewPhaseService(
	gameRepo repository.GameRepository,
	playerRepo repository.PlayerRepository,
	userRepo repository.UserRepository,
	actionRepo repository.ActionRepository,
	timers repository.TimerCache,
) *PhaseService {
	return &PhaseService{
		gameRepo:   gameRepo,
		playerRepo: playerRepo,
		userRepo:   userRepo,
		actionRepo: actionRepo,
		timers:     timers,
		now:        time.Now,
	}
}

// gameLock returns the mutex for a given game code.
func (s *PhaseService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *PhaseService) unixNow() float64 {
	return unix(s.now())
}

// unix converts a time to the Unix float seconds the store and the wire use.
func unix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// StartGame deals roles and moves a full lobby into ROLE_REVEAL. The caller
// holds the game's lock.
func (s *PhaseService) StartGame(ctx context.Context, game *model.Game, players []model.Player) error {
	roles := lupus.Distribution(len(players))
	if roles == nil {
		return fmt.Errorf("start game %s: no distribution for %d players", game.ID, len(players))
	}
	rand.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })

	for i := range players {
		players[i].Role = roles[i]
		players[i].OriginalRole = roles[i]
		players[i].IsAlive = true
		if err := s.playerRepo.Update(ctx, &players[i]); err != nil {
			return fmt.Errorf("assign role: %w", err)
		}
	}

	game.State = lupus.PhaseRoleReveal
	game.TurnNumber = 0
	game.PhaseEndTime = s.unixNow() + lupus.RevealDuration
	game.RolesInGame = lupus.RoleCounts(roles)
	if err := s.gameRepo.Update(ctx, game); err != nil {
		return fmt.Errorf("start game: %w", err)
	}

	if err := s.logEvent(ctx, game.ID, 0, setupPhase, lupus.EventGameStart,
		fmt.Sprintf("Partita iniziata con %d giocatori", len(players))); err != nil {
		return err
	}
	s.setTimer(ctx, game.ID, lupus.RevealDuration)

	log.Info().Str("gameId", game.ID).Int("players", len(players)).Msg("Game started")
	return nil
}

// MaybeAdvance advances the game by at most one phase if its deadline has
// passed. The caller holds the game's lock; long-idle games catch up one
// step per read.
func (s *PhaseService) MaybeAdvance(ctx context.Context, game *model.Game) error {
	return s.advanceLocked(ctx, game)
}

// ResolvePhase is the timer-driven entry point: it takes the game's lock,
// reloads the game, and advances it if the deadline really has passed.
// Idempotent — a lazy read may already have advanced the phase.
func (s *PhaseService) ResolvePhase(ctx context.Context, gameID string) error {
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game == nil {
		return nil
	}
	return s.advanceLocked(ctx, game)
}

// RecoverDeadlines re-arms phase timers for in-flight games after a restart,
// resolving any whose deadline already passed.
func (s *PhaseService) RecoverDeadlines(ctx context.Context) error {
	games, err := s.gameRepo.ListRunning(ctx)
	if err != nil {
		return fmt.Errorf("list running games: %w", err)
	}
	if len(games) == 0 {
		return nil
	}

	log.Info().Int("count", len(games)).Msg("Recovering game deadlines after restart")
	for _, game := range games {
		remaining := int(game.PhaseEndTime - s.unixNow())
		if remaining <= 0 {
			if err := s.ResolvePhase(ctx, game.ID); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to resolve expired game during recovery")
			}
			continue
		}
		s.setTimer(ctx, game.ID, remaining)
	}
	return nil
}

func (s *PhaseService) advanceLocked(ctx context.Context, game *model.Game) error {
	switch game.State {
	case lupus.PhaseRoleReveal, lupus.PhaseNight, lupus.PhaseDay:
	default:
		return nil
	}
	if game.PhaseEndTime == 0 || s.unixNow() < game.PhaseEndTime {
		return nil
	}

	switch game.State {
	case lupus.PhaseRoleReveal:
		return s.toNight(ctx, game)
	case lupus.PhaseNight:
		return s.resolveNight(ctx, game)
	case lupus.PhaseDay:
		return s.resolveDay(ctx, game)
	}
	return nil
}

// toNight opens a new night: staged actions and votes clear, the turn
// counter advances, and the night deadline starts.
func (s *PhaseService) toNight(ctx context.Context, game *model.Game) error {
	if err := s.actionRepo.ClearActions(ctx, game.ID); err != nil {
		return fmt.Errorf("clear actions: %w", err)
	}
	if err := s.actionRepo.ClearVotes(ctx, game.ID); err != nil {
		return fmt.Errorf("clear votes: %w", err)
	}

	game.State = lupus.PhaseNight
	game.TurnNumber++
	game.NightDeaths = nil
	game.PhaseEndTime = s.unixNow() + lupus.NightDuration
	if err := s.gameRepo.Update(ctx, game); err != nil {
		return fmt.Errorf("enter night: %w", err)
	}

	if err := s.logEvent(ctx, game.ID, game.TurnNumber, game.State, lupus.EventNightStart,
		fmt.Sprintf("Notte %d", game.TurnNumber)); err != nil {
		return err
	}
	s.setTimer(ctx, game.ID, lupus.NightDuration)
	return nil
}

// resolveNight runs the night pipeline over the staged actions, applies the
// outcome to the players, and moves to DAY or finishes the game.
func (s *PhaseService) resolveNight(ctx context.Context, game *model.Game) error {
	players, err := s.playerRepo.ListByGame(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	actions, err := s.actionRepo.ActionsByGame(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("list actions: %w", err)
	}

	res := lupus.ResolveNight(enginePlayers(players), engineActions(actions), game.TurnNumber)

	byID := make(map[string]*model.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}
	changed := make(map[string]bool)
	for id, role := range res.RoleChanges {
		byID[id].Role = role
		changed[id] = true
	}
	for _, id := range res.KamikazeUsed {
		byID[id].Attributes.KamikazeUsed = true
		changed[id] = true
	}
	for _, id := range res.DeathIDs {
		byID[id].IsAlive = false
		changed[id] = true
	}
	for id := range changed {
		if err := s.playerRepo.Update(ctx, byID[id]); err != nil {
			return fmt.Errorf("apply night outcome: %w", err)
		}
	}

	for _, e := range res.Events {
		if err := s.logEvent(ctx, game.ID, game.TurnNumber, game.State, e.Type, e.Detail); err != nil {
			return err
		}
	}

	game.NightDeaths = res.Deaths

	alive, err := s.playerRepo.ListAlive(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("list alive: %w", err)
	}
	if win := lupus.CheckWin(enginePlayers(alive)); win != nil {
		return s.finishGame(ctx, game, players, win)
	}

	// Day opens with yesterday's votes already gone (cleared at night entry);
	// staged votes survive within the day only.
	game.State = lupus.PhaseDay
	game.DayDeaths = nil
	game.PhaseEndTime = s.unixNow() + lupus.DayDuration
	if err := s.gameRepo.Update(ctx, game); err != nil {
		return fmt.Errorf("enter day: %w", err)
	}
	if err := s.logEvent(ctx, game.ID, game.TurnNumber, game.State, lupus.EventDayStart,
		fmt.Sprintf("Giorno %d", game.TurnNumber)); err != nil {
		return err
	}
	s.setTimer(ctx, game.ID, lupus.DayDuration)
	return nil
}

// resolveDay tallies the lynch votes, records the burning for the Medium,
// and moves to the next night or finishes the game.
func (s *PhaseService) resolveDay(ctx context.Context, game *model.Game) error {
	players, err := s.playerRepo.ListByGame(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	votes, err := s.actionRepo.VotesByGame(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("list votes: %w", err)
	}

	res := lupus.ResolveDay(enginePlayers(players), engineVotes(votes))

	byID := make(map[string]*model.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}
	for _, id := range res.DeathIDs {
		byID[id].IsAlive = false
		if err := s.playerRepo.Update(ctx, byID[id]); err != nil {
			return fmt.Errorf("apply day outcome: %w", err)
		}
	}

	for _, e := range res.Events {
		if err := s.logEvent(ctx, game.ID, game.TurnNumber, game.State, e.Type, e.Detail); err != nil {
			return err
		}
	}

	game.DayDeaths = res.Deaths
	// A day without a burning leaves the previous one in place; the Medium
	// keeps hearing about the last player actually sent to the stake.
	if res.Burned != nil {
		game.LastDayBurnedNick = res.Burned.Nickname
		game.LastDayBurnedRole = res.Burned.Role
	}

	alive, err := s.playerRepo.ListAlive(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("list alive: %w", err)
	}
	if win := lupus.CheckWin(enginePlayers(alive)); win != nil {
		return s.finishGame(ctx, game, players, win)
	}

	return s.toNight(ctx, game)
}

// finishGame closes the game, logs the verdict, and credits player stats.
func (s *PhaseService) finishGame(ctx context.Context, game *model.Game, players []model.Player, win *lupus.WinResult) error {
	game.State = lupus.PhaseGameOver
	game.Winners = win.Winners
	game.WinnerDetail = win.Detail
	game.PhaseEndTime = 0
	if err := s.gameRepo.Update(ctx, game); err != nil {
		return fmt.Errorf("finish game: %w", err)
	}

	if err := s.logEvent(ctx, game.ID, game.TurnNumber, game.State, lupus.EventGameEnd,
		fmt.Sprintf("Vincitore: %s. %s", win.Winners, win.Detail)); err != nil {
		return err
	}
	s.clearTimer(ctx, game.ID)

	for i := range players {
		p := &players[i]
		delta := model.Stats{Games: 1}
		if lupus.DidPlayerWin(p.OriginalRole, p.Role, win.Winners, p.IsAlive) {
			delta.Wins = 1
			switch win.Winners {
			case lupus.WinnersLupi:
				delta.WolfWins = 1
			case lupus.WinnersVillaggio:
				delta.VillageWins = 1
			}
		}
		if err := s.userRepo.AddStats(ctx, p.UserID, delta); err != nil {
			return fmt.Errorf("credit stats: %w", err)
		}
	}

	log.Info().Str("gameId", game.ID).Str("winners", win.Winners).Int("turn", game.TurnNumber).Msg("Game over")
	return nil
}

func (s *PhaseService) logEvent(ctx context.Context, gameID string, turn int, phase lupus.Phase, typ, detail string) error {
	err := s.gameRepo.AppendEvent(ctx, &model.Event{
		GameID: gameID,
		Turn:   turn,
		Phase:  phase,
		Type:   typ,
		Detail: detail,
		TS:     s.unixNow(),
	})
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *PhaseService) setTimer(ctx context.Context, gameID string, seconds int) {
	if s.timers == nil {
		return
	}
	if err := s.timers.SetTimer(ctx, gameID, seconds); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to set phase timer")
	}
}

func (s *PhaseService) clearTimer(ctx context.Context, gameID string) {
	if s.timers == nil {
		return
	}
	if err := s.timers.ClearTimer(ctx, gameID); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to clear phase timer")
	}
}

// --- Engine conversion helpers ---

func enginePlayers(players []model.Player) []lupus.Player {
	out := make([]lupus.Player, len(players))
	for i, p := range players {
		out[i] = lupus.Player{
			ID:           p.ID,
			Nickname:     p.Nickname,
			Role:         p.Role,
			OriginalRole: p.OriginalRole,
			Alive:        p.IsAlive,
			KamikazeUsed: p.Attributes.KamikazeUsed,
		}
	}
	return out
}

func engineActions(actions []model.Action) []lupus.Action {
	out := make([]lupus.Action, len(actions))
	for i, a := range actions {
		out[i] = lupus.Action{PlayerID: a.PlayerID, TargetID: a.TargetID, Type: a.ActionType}
	}
	return out
}

func engineVotes(votes []model.Vote) []lupus.Vote {
	out := make([]lupus.Vote, len(votes))
	for i, v := range votes {
		out[i] = lupus.Vote{PlayerID: v.PlayerID, TargetID: v.TargetID}
	}
	return out
}
