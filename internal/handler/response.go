package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/logger"
)

// maxBodyBytes caps request bodies; every payload here is a handful of
// short fields.
const maxBodyBytes = 64 << 10

// writeJSON writes a JSON response with the given status code. Encode
// failures are logged under the request's ID.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l := logger.ForRequest(r.Context())
		l.Error().Err(err).Int("status", status).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads and decodes JSON from a request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}
