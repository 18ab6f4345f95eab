package http

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/shared"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
)

// errorBody is the uniform error envelope.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	// Headers are gone already if encoding fails; nothing to do but drop it.
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain sentinels to status codes. Upstream failures
// surface as 502: the request was fine, Steam was not.
func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, shared.ErrEmptySteamID), errors.Is(err, shared.ErrInvalidInput):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, shared.ErrTokenExpired):
		status = http.StatusUnauthorized
		message = "token expired"
	case errors.Is(err, shared.ErrUnauthorized):
		status = http.StatusUnauthorized
		message = "unauthorized"
	case errors.Is(err, shared.ErrProfileNotFound):
		status = http.StatusNotFound
		message = "profile not found"
	case errors.Is(err, shared.ErrDependencyUnavailable):
		status = http.StatusBadGateway
		message = "steam is unavailable, try again shortly"
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed", logger.Err(err))
	} else {
		log.Debug("request rejected", logger.Int("status", status), logger.Err(err))
	}
	writeJSON(w, status, errorBody{Error: message})
}
