package common

import (
	"encoding/json"
	"net/http"

	"meetings/boardroom/internal/logging"
)

// RespondJSON writes body as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err)
	}
}

// RespondMutation sends the mutation envelope {success, message, <key>}.
// key and entity are left out when key is empty.
func RespondMutation(w http.ResponseWriter, message, key string, entity any) {
	body := map[string]any{
		"success": true,
		"message": message,
	}
	if key != "" {
		body[key] = entity
	}
	RespondJSON(w, http.StatusOK, body)
}

// RespondFailure reports a rejected mutation. Rejections are not transport
// errors, so the status stays 200.
func RespondFailure(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusOK, message)
}

func RespondError(w http.ResponseWriter, code int, message string) {
	RespondJSON(w, code, map[string]any{
		"success": false,
		"message": message,
	})
}

func RespondPermissionDenied(w http.ResponseWriter, requirement string) {
	RespondError(w, http.StatusForbidden, "Permission denied. Requires "+requirement)
}
