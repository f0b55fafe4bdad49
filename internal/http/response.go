package http

import (
	"encoding/json"
	"net/http"

	applog "findash/internal/log"
)

// Client-facing messages. Store and serialization failures collapse to one
// generic message per endpoint.
const (
	msgFetchFailed     = "Failed to fetch transactions"
	msgSummaryFailed   = "Failed to get summary"
	msgExportFailed    = "Failed to export transactions"
	msgCredsRequired   = "Email and password are required"
	msgPasswordTooLong = "Password must be at most 72 bytes"
	msgUserExists      = "User already exists"
	msgInvalidCreds    = "Invalid credentials"
	msgServerError     = "Server error"
	msgInvalidBody     = "Invalid request body"
	msgTooManyRequests = "Too many requests, please try again later"
	msgNotFound        = "Not found"
)

// writeJSON encodes v with the given status. Encoding errors after the
// header is sent can only be logged.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to write JSON response", "error", err)
	}
}

// writeError responds with {"error": msg}.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeMessage responds with {"message": msg}.
func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"message": msg})
}
