package handler

import (
	"net/http"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/auth"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/service"
)

// sessionMaxAge keeps the login cookie for thirty days.
const sessionMaxAge = 30 * 24 * 60 * 60

// AuthHandler handles registration, login, and account endpoints.
type AuthHandler struct {
	authSvc *service.AuthService
	secure  bool // Secure cookie flag, on in production
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, secure bool) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, secure: secure}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account and logs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Dati non validi")
		return
	}

	user, session, err := h.authSvc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	http.SetCookie(w, auth.NewCookie(session.ID, sessionMaxAge, h.secure))
	writeJSON(w, r, http.StatusOK, map[string]any{"ok": true, "username": user.Username})
}

// Login verifies credentials and opens a new session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Dati non validi")
		return
	}

	user, session, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	http.SetCookie(w, auth.NewCookie(session.ID, sessionMaxAge, h.secure))
	writeJSON(w, r, http.StatusOK, map[string]any{"ok": true, "username": user.Username})
}

// Logout deletes the session, if any, and clears the cookie. Public: a
// stale cookie still gets cleared.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if c, err := r.Cookie(auth.SessionCookie); err == nil {
		sessionID = c.Value
	}
	if err := h.authSvc.Logout(r.Context(), sessionID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	http.SetCookie(w, auth.NewCookie("", -1, h.secure))
	writeJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	info, err := h.authSvc.Me(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}
