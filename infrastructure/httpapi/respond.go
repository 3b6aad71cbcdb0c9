package httpapi

import (
	"chat-relay/errors"
	"encoding/json"
	"log/slog"
	"net/http"
)

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError answers with the status of the domain error. Server side
// failures are logged and hidden behind a generic message.
func writeError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, status, messageBody{Message: "Server error"})
		return
	}
	log.Debug("Request refused", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	writeJSON(w, status, messageBody{Message: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.ErrInvalidInput
	}
	return nil
}
