package handler

import (
	"net/http"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/auth"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/service"
	"github.com/itisgrassi/lupus-in-tabula/api/pkg/lupus"
)

// ActionHandler handles night actions, day votes, and guesses.
type ActionHandler struct {
	actionSvc *service.ActionService
}

// NewActionHandler creates an ActionHandler.
func NewActionHandler(actionSvc *service.ActionService) *ActionHandler {
	return &ActionHandler{actionSvc: actionSvc}
}

// Action stages a night action. Inspections answer in the result field.
func (h *ActionHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActionType string `json:"action_type"`
		TargetID   string `json:"target_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Dati non validi")
		return
	}

	result, err := h.actionSvc.SubmitAction(r.Context(), gameCode(r),
		auth.UserIDFromContext(r.Context()), lupus.ActionType(req.ActionType), req.TargetID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := map[string]any{"ok": true, "result": nil}
	if result != "" {
		resp["result"] = result
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// Vote stages a day lynch vote.
func (h *ActionHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string `json:"target_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Dati non validi")
		return
	}

	err := h.actionSvc.SubmitVote(r.Context(), gameCode(r), auth.UserIDFromContext(r.Context()), req.TargetID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

// Guess stages a side-game role prediction.
func (h *ActionHandler) Guess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID    string `json:"target_id"`
		GuessedRole string `json:"guessed_role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Dati non validi")
		return
	}

	err := h.actionSvc.SubmitGuess(r.Context(), gameCode(r),
		auth.UserIDFromContext(r.Context()), req.TargetID, lupus.Role(req.GuessedRole))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}
