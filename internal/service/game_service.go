package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/model"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/repository"
	"github.com/itisgrassi/lupus-in-tabula/api/pkg/lupus"
)

// GameService handles the lobby lifecycle and read projections. Mutations
// and reads that advance the clock run under the phase service's per-game
// lock.
type GameService struct {
	gameRepo   repository.GameRepository
	playerRepo repository.PlayerRepository
	userRepo   repository.UserRepository
	actionRepo repository.ActionRepository
	phases     *PhaseService
}

// NewGameService creates a GameService.
func NewGameService(
	gameRepo repository.GameRepository,
	playerRepo repository.PlayerRepository,
	userRepo repository.UserRepository,
	actionRepo repository.ActionRepository,
	phases *PhaseService,
) *GameService {
	return &GameService{
		gameRepo:   gameRepo,
		playerRepo: playerRepo,
		userRepo:   userRepo,
		actionRepo: actionRepo,
		phases:     phases,
	}
}

// newID returns a short random identifier for users and players.
func newID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:12]
}

// newGameCode returns a join code of five random uppercase letters.
func newGameCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, 5)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// CreateGame opens a lobby for target players and seats the creator.
// A user plays one game at a time.
func (s *GameService) CreateGame(ctx context.Context, userID string, target int) (*model.Game, error) {
	if target < lupus.MinPlayers || target > lupus.MaxPlayers {
		return nil, ErrInvalidInput
	}

	active, err := s.gameRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check active game: %w", err)
	}
	if active != nil {
		return nil, &AlreadyInGameError{GameID: active.ID}
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, fmt.Errorf("find creator: %w", err)
	}

	// Regenerate on the (rare) code collision.
	var code string
	for {
		code = newGameCode()
		existing, err := s.gameRepo.FindByID(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("check game code: %w", err)
		}
		if existing == nil {
			break
		}
	}

	game := &model.Game{
		ID:            code,
		State:         lupus.PhaseLobby,
		CreatorID:     userID,
		TargetPlayers: target,
		CreatedAt:     s.phases.unixNow(),
	}
	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	player := &model.Player{
		ID:       newID(),
		GameID:   code,
		UserID:   userID,
		Nickname: user.Username,
		IsAlive:  true,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, fmt.Errorf("seat creator: %w", err)
	}

	log.Info().Str("gameId", code).Str("userId", userID).Int("target", target).Msg("Game created")
	return game, nil
}

// JoinGame seats a user in a lobby, starting the game when it fills.
// Joining a game you already sit in reports alreadyJoined instead of
// failing.
func (s *GameService) JoinGame(ctx context.Context, code, userID string) (gameID string, alreadyJoined bool, err error) {
	mu := s.phases.gameLock(code)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, code)
	if err != nil {
		return "", false, fmt.Errorf("find game: %w", err)
	}
	if game == nil {
		return "", false, ErrGameNotFound
	}
	if game.State != lupus.PhaseLobby {
		return "", false, ErrGameStarted
	}

	active, err := s.gameRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("check active game: %w", err)
	}
	if active != nil && active.ID != code {
		return "", false, &AlreadyInGameError{GameID: active.ID}
	}

	existing, err := s.playerRepo.FindByGameAndUser(ctx, code, userID)
	if err != nil {
		return "", false, fmt.Errorf("check membership: %w", err)
	}
	if existing != nil {
		return code, true, nil
	}

	players, err := s.playerRepo.ListByGame(ctx, code)
	if err != nil {
		return "", false, fmt.Errorf("list players: %w", err)
	}
	if len(players) >= game.TargetPlayers {
		return "", false, ErrGameFull
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return "", false, fmt.Errorf("find user: %w", err)
	}
	for _, p := range players {
		if strings.EqualFold(p.Nickname, user.Username) {
			return "", false, ErrNicknameTaken
		}
	}

	player := &model.Player{
		ID:       newID(),
		GameID:   code,
		UserID:   userID,
		Nickname: user.Username,
		IsAlive:  true,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return "", false, fmt.Errorf("seat player: %w", err)
	}
	players = append(players, *player)

	if len(players) >= game.TargetPlayers {
		if err := s.phases.StartGame(ctx, game, players); err != nil {
			return "", false, err
		}
	}

	return code, false, nil
}

// OpenLobby summarizes a joinable game for the lobby list.
type OpenLobby struct {
	ID             string `json:"id"`
	TargetPlayers  int    `json:"target_players"`
	CurrentPlayers int    `json:"current_players"`
	Creator        string `json:"creator"`
}

// ListOpen lists lobbies still waiting for players, newest first.
func (s *GameService) ListOpen(ctx context.Context) ([]OpenLobby, error) {
	games, err := s.gameRepo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open games: %w", err)
	}

	lobbies := make([]OpenLobby, 0, len(games))
	for _, g := range games {
		players, err := s.playerRepo.ListByGame(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("list players: %w", err)
		}
		creator := ""
		for _, p := range players {
			if p.UserID == g.CreatorID {
				creator = p.Nickname
				break
			}
		}
		lobbies = append(lobbies, OpenLobby{
			ID:             g.ID,
			TargetPlayers:  g.TargetPlayers,
			CurrentPlayers: len(players),
			Creator:        creator,
		})
	}
	return lobbies, nil
}

// GameState advances the game if its deadline passed, then projects the
// requesting user's view. Non-members may watch the lobby only.
func (s *GameService) GameState(ctx context.Context, code, userID string) (*GameStateView, error) {
	mu := s.phases.gameLock(code)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	if game == nil {
		return nil, ErrGameNotFound
	}

	me, err := s.playerRepo.FindByGameAndUser(ctx, code, userID)
	if err != nil {
		return nil, fmt.Errorf("find player: %w", err)
	}
	if me == nil && game.State != lupus.PhaseLobby {
		return nil, ErrNotInGame
	}

	if err := s.phases.MaybeAdvance(ctx, game); err != nil {
		return nil, err
	}
	if me != nil {
		// Advancement may have changed the requester's role or life.
		me, err = s.playerRepo.FindByID(ctx, me.ID)
		if err != nil || me == nil {
			return nil, fmt.Errorf("reload player: %w", err)
		}
	}

	players, err := s.playerRepo.ListByGame(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	var actions []model.Action
	var votes []model.Vote
	var events []model.Event
	var guesses []model.Guess
	switch game.State {
	case lupus.PhaseNight:
		actions, err = s.actionRepo.ActionsByType(ctx, code, lupus.ActionKill)
		if err != nil {
			return nil, fmt.Errorf("list kill votes: %w", err)
		}
	case lupus.PhaseDay:
		votes, err = s.actionRepo.VotesByGame(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("list votes: %w", err)
		}
	case lupus.PhaseGameOver:
		events, err = s.gameRepo.Events(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		guesses, err = s.actionRepo.GuessesByGame(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("list guesses: %w", err)
		}
	}

	return buildGameState(game, players, me, actions, votes, events, guesses, s.phases.unixNow()), nil
}

// HistoryEntry summarizes a finished game from one player's side.
type HistoryEntry struct {
	GameID        string          `json:"game_id"`
	Winners       string          `json:"winners"`
	TargetPlayers int             `json:"target_players"`
	CreatedAt     float64         `json:"created_at"`
	Turns         int             `json:"turns"`
	PlayerRole    string          `json:"player_role"`
	PlayerWon     bool            `json:"player_won"`
	Players       []HistoryPlayer `json:"players"`
}

// HistoryPlayer is a co-player in a finished game, by dealt role.
type HistoryPlayer struct {
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

// History lists the user's finished games, newest first.
func (s *GameService) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	games, err := s.gameRepo.ListFinishedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list finished games: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(games))
	for _, g := range games {
		players, err := s.playerRepo.ListByGame(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("list players: %w", err)
		}

		entry := HistoryEntry{
			GameID:        g.ID,
			Winners:       g.Winners,
			TargetPlayers: g.TargetPlayers,
			CreatedAt:     g.CreatedAt,
			Turns:         g.TurnNumber,
			Players:       make([]HistoryPlayer, 0, len(players)),
		}
		for _, p := range players {
			entry.Players = append(entry.Players, HistoryPlayer{
				Nickname: p.Nickname,
				Role:     string(p.OriginalRole),
			})
			if p.UserID == userID {
				entry.PlayerRole = string(p.OriginalRole)
				entry.PlayerWon = lupus.DidPlayerWin(p.OriginalRole, p.Role, g.Winners, p.IsAlive)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// HistoryDetailView is the full record of one finished game.
type HistoryDetailView struct {
	GameID       string        `json:"game_id"`
	Winners      string        `json:"winners"`
	WinnerDetail string        `json:"winner_detail"`
	Turns        int           `json:"turns"`
	Events       []model.Event `json:"events"`
	Players      []AllRoleView `json:"players"`
}

// HistoryDetail returns the full record of a game, open to any
// authenticated user once the code is known.
func (s *GameService) HistoryDetail(ctx context.Context, code string) (*HistoryDetailView, error) {
	game, err := s.gameRepo.FindByID(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	if game == nil {
		return nil, ErrGameNotFound
	}

	players, err := s.playerRepo.ListByGame(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	events, err := s.gameRepo.Events(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}

	detail := &HistoryDetailView{
		GameID:       game.ID,
		Winners:      game.Winners,
		WinnerDetail: game.WinnerDetail,
		Turns:        game.TurnNumber,
		Events:       events,
		Players:      make([]AllRoleView, 0, len(players)),
	}
	for _, p := range players {
		detail.Players = append(detail.Players, AllRoleView{
			Nickname:  p.Nickname,
			Role:      string(p.OriginalRole),
			FinalRole: string(p.Role),
			IsAlive:   p.IsAlive,
		})
	}
	return detail, nil
}
