package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/runnerr0/focuslog/internal/apperrors"
)

// retryAfterSeconds is advertised on 503 responses.
const retryAfterSeconds = "5"

type errorResponse struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps err onto an HTTP status. Client errors echo the message;
// server errors are logged and answered with a generic one.
func writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logger := zerolog.Ctx(r.Context())

	switch {
	case apperrors.IsInvalidInput(err):
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, apperrors.ErrExcluded):
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Message: err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		writeJSON(w, r, http.StatusNotFound, errorResponse{Message: err.Error()})
	case apperrors.IsRetryable(err):
		logger.Warn().Err(err).Msg(msg)
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Message: msg, Retryable: true})
	default:
		logger.Error().Err(err).Msg(msg)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Message: msg})
	}
}
