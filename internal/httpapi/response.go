// Package httpapi implements the HTTP control surface of spec.md §6.1 (a
// chi-based JSON API over Definitions/Images/Sessions/Agents/Containers)
// and upgrades the §6.2 event channel to a websocket-backed Network
// Bridge connection, the way the source repository's own internal/server
// package built its chi router and response helpers — generalized from
// opencode's project/session/file resource tree onto the AgentX resource
// model.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorDetail is the body of a JSON error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorDetail in the envelope spec.md §6.1's status
// table implies every 4xx/5xx response carries.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// Error code constants used across handlers.
const (
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeConflict       = "conflict"
	ErrCodeGone           = "gone"
	ErrCodeForbidden      = "forbidden"
	ErrCodeInternal       = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
