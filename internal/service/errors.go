package service

import (
	"errors"
	"fmt"

	"github.com/itisgrassi/lupus-in-tabula/api/pkg/lupus"
)

// Error messages are the API contract and stay in Italian; handlers send
// them to clients verbatim.
var (
	ErrGameNotFound   = errors.New("Partita non trovata")
	ErrGameStarted    = errors.New("La partita è già iniziata")
	ErrGameFull       = errors.New("Partita piena")
	ErrNicknameTaken  = errors.New("Nickname già usato")
	ErrNotInGame      = errors.New("Non sei in questa partita")
	ErrNotNight       = errors.New("Non è notte")
	ErrNotDay         = errors.New("Non è giorno")
	ErrPlayerDead     = errors.New("Sei morto")
	ErrCopyWrongNight = errors.New("Il Mitomane agisce solo nella notte 2")
	ErrExplosionSpent = errors.New("Hai già usato l'esplosione")
	ErrInvalidTarget  = errors.New("Bersaglio non valido")
	ErrTargetDead     = errors.New("Il bersaglio è morto")
	ErrProtectSelf    = errors.New("Non puoi proteggere te stesso")
	ErrTargetSelf     = errors.New("Non puoi bersagliare te stesso")
	ErrCannotVote     = errors.New("Non puoi votare")
	ErrVoteSelf       = errors.New("Non puoi votare te stesso")
	ErrGuessClosed    = errors.New("Non puoi indovinare ora")
	ErrCannotPlay     = errors.New("Non puoi giocare")
	ErrGuessingRole   = errors.New("Solo ruoli senza azione notturna possono giocare")
	ErrUsernameTaken  = errors.New("Username già in uso")
	ErrInvalidInput   = errors.New("Dati non validi")
	ErrBadCredentials = errors.New("Credenziali errate")
)

// AlreadyInGameError reports that the user sits in another unfinished game.
type AlreadyInGameError struct {
	GameID string
}

func (e *AlreadyInGameError) Error() string {
	return fmt.Sprintf("Sei già nella partita %s", e.GameID)
}

// ActionNotAllowedError reports a night action outside the role's whitelist.
type ActionNotAllowedError struct {
	Action lupus.ActionType
	Role   lupus.Role
}

func (e *ActionNotAllowedError) Error() string {
	return fmt.Sprintf("Azione %s non permessa per %s", e.Action, e.Role)
}
