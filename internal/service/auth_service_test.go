package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture()
	f.driveClock(testBase)
	ctx := context.Background()

	user, session, err := f.authSvc.Register(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(user.ID) != 12 {
		t.Errorf("expected 12-char user id, got %q", user.ID)
	}
	if len(session.ID) != 32 {
		t.Errorf("expected 32-char session id, got %q", session.ID)
	}
	if user.PasswordHash == "secret" || user.PasswordHash == "" {
		t.Error("the password must be stored hashed")
	}

	if _, _, err := f.authSvc.Register(ctx, "alice", "another"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate username: expected ErrUsernameTaken, got %v", err)
	}

	for _, tc := range []struct{ username, password string }{
		{"ab", "secret"},
		{"alice-with-a-very-long-name", "secret"},
		{"bob", "pw"},
	} {
		if _, _, err := f.authSvc.Register(ctx, tc.username, tc.password); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("register(%q, %q): expected ErrInvalidInput, got %v", tc.username, tc.password, err)
		}
	}

	if _, _, err := f.authSvc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("wrong password: expected ErrBadCredentials, got %v", err)
	}
	if _, _, err := f.authSvc.Login(ctx, "nobody", "secret"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("unknown user: expected ErrBadCredentials, got %v", err)
	}

	_, fresh, err := f.authSvc.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if fresh.ID == session.ID {
		t.Error("login should mint a new session")
	}

	if err := f.authSvc.Logout(ctx, fresh.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if s, _ := f.sessions.Find(ctx, fresh.ID); s != nil {
		t.Error("logout should delete the session")
	}
	if err := f.authSvc.Logout(ctx, ""); err != nil {
		t.Errorf("logout without a session should be a no-op, got %v", err)
	}
}

func TestRegisterCountsRunesNotBytes(t *testing.T) {
	f := newFixture()
	f.driveClock(testBase)
	ctx := context.Background()

	// Three accented letters are six bytes but a valid three-char name.
	if _, _, err := f.authSvc.Register(ctx, "àèò", "segretissimo"); err != nil {
		t.Fatalf("register multibyte username: %v", err)
	}

	// Twenty accented letters still fit the 20-char cap.
	long := strings.Repeat("è", 20)
	if _, _, err := f.authSvc.Register(ctx, long, "segretissimo"); err != nil {
		t.Fatalf("register 20-rune username: %v", err)
	}
	if _, _, err := f.authSvc.Register(ctx, long+"è", "segretissimo"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("21-rune username: expected ErrInvalidInput, got %v", err)
	}

	// Password bounds count runes too.
	if _, _, err := f.authSvc.Register(ctx, "bruno", "ùùùù"); err != nil {
		t.Fatalf("register 4-rune password: %v", err)
	}
	if _, _, err := f.authSvc.Register(ctx, "carla", "ùùù"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("3-rune password: expected ErrInvalidInput, got %v", err)
	}
}

func TestMe(t *testing.T) {
	f := newFixture()
	f.driveClock(testBase)
	ctx := context.Background()

	user, _, err := f.authSvc.Register(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	info, err := f.authSvc.Me(ctx, user.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if info.Username != "alice" || info.CurrentGame != nil {
		t.Errorf("expected alice with no game, got %+v", info)
	}

	game, err := f.gameSvc.CreateGame(ctx, user.ID, 6)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	info, err = f.authSvc.Me(ctx, user.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if info.CurrentGame == nil || *info.CurrentGame != game.ID {
		t.Errorf("expected current game %s, got %v", game.ID, info.CurrentGame)
	}
}
