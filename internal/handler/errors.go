package handler

import (
	"errors"
	"net/http"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/logger"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/service"
)

// badRequestErrs collects the validation and game-state errors that map to
// 400. Their Italian messages go to the client verbatim.
var badRequestErrs = []error{
	service.ErrGameStarted,
	service.ErrGameFull,
	service.ErrNicknameTaken,
	service.ErrNotNight,
	service.ErrNotDay,
	service.ErrPlayerDead,
	service.ErrCopyWrongNight,
	service.ErrExplosionSpent,
	service.ErrInvalidTarget,
	service.ErrTargetDead,
	service.ErrProtectSelf,
	service.ErrTargetSelf,
	service.ErrCannotVote,
	service.ErrVoteSelf,
	service.ErrGuessClosed,
	service.ErrCannotPlay,
	service.ErrGuessingRole,
	service.ErrUsernameTaken,
	service.ErrInvalidInput,
}

// respondServiceError translates a service error into an HTTP status with
// the error message as body.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, service.ErrNotInGame):
		writeError(w, r, http.StatusForbidden, err.Error())
		return
	case errors.Is(err, service.ErrBadCredentials):
		writeError(w, r, http.StatusUnauthorized, err.Error())
		return
	}

	var inGame *service.AlreadyInGameError
	var notAllowed *service.ActionNotAllowedError
	if errors.As(err, &inGame) || errors.As(err, &notAllowed) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	for _, target := range badRequestErrs {
		if errors.Is(err, target) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	l := logger.ForRequest(r.Context())
	l.Error().Err(err).Msg("Unhandled service error")
	writeError(w, r, http.StatusInternalServerError, "Errore interno")
}
