package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nikhilbhutani/pdfchat/internal/auth"
)

const internalError = "internal server error"

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// userID reads the authenticated user or writes 401.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return id, true
}
