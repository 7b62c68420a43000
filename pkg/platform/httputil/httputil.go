// Package httputil centralizes the JSON envelopes used by every handler:
// failures are `{"message": ..., "error": <code>}` and successes are
// `{"message": ..., "data": ...}`.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "fabula/pkg/domain-errors"
)

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SuccessResponse is the success envelope.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// WriteError translates a coded error into the failure envelope. Unclassified
// errors become 500 server_error with a fixed message so internal detail
// never reaches the client.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Message: dErrors.MessageOf(err),
		Error:   string(code),
	})
}

// WriteJSON writes the success envelope with the given status.
func WriteJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessResponse{Message: message, Data: data})
}
