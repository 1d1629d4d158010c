package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/playperu/geogamer/internal/engine"
	"github.com/playperu/geogamer/internal/play"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writePlayError maps session and engine errors to HTTP statuses.
func writePlayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, play.ErrSessionNotFound), errors.Is(err, play.ErrSessionClosed):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, engine.ErrWrongPhase), errors.Is(err, engine.ErrNoMarker):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, play.ErrUnknownMapEvent):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
