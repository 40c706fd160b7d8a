package auth

import (
	"context"
	"net/http"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/repository"
)

type contextKey string

const userIDKey contextKey = "user_id"

// SessionCookie is the name of the login cookie.
const SessionCookie = "session"

// Middleware returns an HTTP middleware that resolves the session cookie
// to a user and stores the user ID in the request context. Requests
// without a valid session are rejected with 401.
func Middleware(sessions repository.SessionRepository, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				unauthorized(w, "Non autenticato")
				return
			}

			sess, err := sessions.Find(r.Context(), cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w, "Sessione scaduta")
				return
			}

			user, err := users.FindByID(r.Context(), sess.UserID)
			if err != nil || user == nil {
				unauthorized(w, "Utente non trovato")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// NewCookie builds the session cookie with the attributes the contract
// requires. Deleting the cookie is an empty id with a negative maxAge.
func NewCookie(id string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
