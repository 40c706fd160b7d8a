package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/auth"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/model"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/repository"
)

// AuthService handles registration, login, and account info.
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	gameRepo    repository.GameRepository

	now func() time.Time
}

// NewAuthService creates an AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	gameRepo repository.GameRepository,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		gameRepo:    gameRepo,
		now:         time.Now,
	}
}

// newSessionID returns an opaque session identifier.
func newSessionID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Register creates a user and logs them in. Usernames are 3-20 characters,
// passwords 4-50, counted in runes so accented names fit.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
	nameLen := utf8.RuneCountInString(username)
	passLen := utf8.RuneCountInString(password)
	if nameLen < 3 || nameLen > 20 || passLen < 4 || passLen > 50 {
		return nil, nil, ErrInvalidInput
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, nil, ErrUsernameTaken
	}

	hash, salt := auth.HashPassword(password)
	user := &model.User{
		ID:           newID(),
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    unix(s.now()),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Str("userId", user.ID).Str("username", username).Msg("User registered")
	return user, session, nil
}

// Login verifies the credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || !auth.VerifyPassword(password, user.Salt, user.PasswordHash) {
		return nil, nil, ErrBadCredentials
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout deletes the session. Unknown sessions are not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// AccountInfo is the authenticated user's profile payload.
type AccountInfo struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	CurrentGame *string     `json:"current_game"`
	Stats       model.Stats `json:"stats"`
}

// Me returns the user's profile, including the code of their unfinished
// game when one exists.
func (s *AuthService) Me(ctx context.Context, userID string) (*AccountInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrBadCredentials
	}

	info := &AccountInfo{
		ID:       user.ID,
		Username: user.Username,
		Stats:    user.Stats,
	}

	active, err := s.gameRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find active game: %w", err)
	}
	if active != nil {
		info.CurrentGame = &active.ID
	}
	return info, nil
}

func (s *AuthService) createSession(ctx context.Context, userID string) (*model.Session, error) {
	session := &model.Session{
		ID:        newSessionID(),
		UserID:    userID,
		CreatedAt: unix(s.now()),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}
