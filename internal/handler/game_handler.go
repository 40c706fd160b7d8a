package handler

import (
	"net/http"
	"strings"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/auth"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/logger"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/repository"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/service"
)

// GameHandler handles lobby, state, and history endpoints.
type GameHandler struct {
	gameSvc  *service.GameService
	resetter repository.Resetter
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService, resetter repository.Resetter) *GameHandler {
	return &GameHandler{gameSvc: gameSvc, resetter: resetter}
}

// gameCode pulls the {code} path segment, uppercased.
func gameCode(r *http.Request) string {
	return strings.ToUpper(r.PathValue("code"))
}

// Create opens a new lobby.
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetPlayers int `json:"target_players"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Dati non validi")
		return
	}

	game, err := h.gameSvc.CreateGame(r.Context(), auth.UserIDFromContext(r.Context()), req.TargetPlayers)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"game_id": game.ID})
}

// Join seats the user in a lobby.
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	gameID, alreadyJoined, err := h.gameSvc.JoinGame(r.Context(), gameCode(r), auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := map[string]any{"game_id": gameID}
	if alreadyJoined {
		resp["already_joined"] = true
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// List returns the open lobbies.
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	lobbies, err := h.gameSvc.ListOpen(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, lobbies)
}

// State returns the requester's view of a game, advancing it first.
func (h *GameHandler) State(w http.ResponseWriter, r *http.Request) {
	view, err := h.gameSvc.GameState(r.Context(), gameCode(r), auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

// History lists the user's finished games.
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.gameSvc.History(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// HistoryDetail returns one game's full record.
func (h *GameHandler) HistoryDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.gameSvc.HistoryDetail(r.Context(), gameCode(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detail)
}

// Reset wipes every table. Debug helper.
func (h *GameHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.resetter.Reset(r.Context()); err != nil {
		l := logger.ForRequest(r.Context())
		l.Error().Err(err).Msg("Reset failed")
		writeError(w, r, http.StatusInternalServerError, "Errore interno")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}
