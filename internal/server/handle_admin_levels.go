package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/geogamer/internal/catalog"
	"github.com/playperu/geogamer/internal/geogamer"
)

// LevelStore is the level catalog with write access.
type LevelStore interface {
	catalog.Provider
	All(ctx context.Context) ([]geogamer.Level, error)
	Put(ctx context.Context, l geogamer.Level) error
	Delete(ctx context.Context, id int) error
}

func handleAdminListLevels(levels LevelStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := levels.All(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if all == nil {
			all = []geogamer.Level{}
		}
		writeJSON(w, http.StatusOK, all)
	}
}

func handleAdminGetLevel(levels LevelStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, ok := levelFromPath(w, r, levels)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

// handleAdminPutLevel creates or replaces a level. The id in the path wins
// over any id in the body.
func handleAdminPutLevel(logger *slog.Logger, levels LevelStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil || id < 1 {
			writeError(w, http.StatusBadRequest, "id must be a positive integer")
			return
		}

		var l geogamer.Level
		if err := readJSON(r, &l); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		l.ID = id

		if err := catalog.Validate(l); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := levels.Put(r.Context(), l); err != nil {
			logger.Error("storing level", "level", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		logger.Info("level saved", "level", id, "rounds", len(l.Rounds), "admin", adminFrom(r).Email)
		writeJSON(w, http.StatusOK, l)
	}
}

func handleAdminDeleteLevel(logger *slog.Logger, levels LevelStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "level not found")
			return
		}

		err = levels.Delete(r.Context(), id)
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "level not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		logger.Info("level deleted", "level", id, "admin", adminFrom(r).Email)
		writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
	}
}
