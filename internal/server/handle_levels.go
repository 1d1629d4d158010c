package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"github.com/playperu/geogamer/internal/assets"
	"github.com/playperu/geogamer/internal/catalog"
	"github.com/playperu/geogamer/internal/geogamer"
)

// LevelSummary is a level card on the home page.
type LevelSummary struct {
	geogamer.LevelInfo
	Cover assets.Image `json:"cover"`
}

// LevelResponse is the level intro page.
type LevelResponse struct {
	LevelSummary
	IntroURL  string `json:"introUrl"`
	QRCodeURL string `json:"qrCodeUrl"`
}

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

func newLevelSummary(l geogamer.Level, res *assets.Resolver) LevelSummary {
	s := LevelSummary{LevelInfo: l.Info(), Cover: assets.Image{Placeholder: true}}
	if len(l.Rounds) > 0 {
		s.Cover = res.Cover(l.Rounds[0].Cover)
	}
	return s
}

func introURL(publicURL string, id int) string {
	return fmt.Sprintf("%s/levels/%d", strings.TrimRight(publicURL, "/"), id)
}

// levelFromPath loads the level named by the {id} URL parameter. It writes
// the error response itself and reports whether the caller may go on.
func levelFromPath(w http.ResponseWriter, r *http.Request, levels catalog.Provider) (geogamer.Level, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "level not found")
		return geogamer.Level{}, false
	}
	l, err := levels.Level(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "level not found")
		return geogamer.Level{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return geogamer.Level{}, false
	}
	return l, true
}

func handleListLevels(levels LevelStore, res *assets.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := levels.All(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		out := make([]LevelSummary, 0, len(all))
		for _, l := range all {
			out = append(out, newLevelSummary(l, res))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGetLevel(levels catalog.Provider, res *assets.Resolver, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, ok := levelFromPath(w, r, levels)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, LevelResponse{
			LevelSummary: newLevelSummary(l, res),
			IntroURL:     introURL(publicURL, l.ID),
			QRCodeURL:    fmt.Sprintf("/api/levels/%d/qr.png", l.ID),
		})
	}
}

// handleLevelQR renders a QR code of the level's intro page, for sharing a
// level to a phone.
func handleLevelQR(levels catalog.Provider, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, ok := levelFromPath(w, r, levels)
		if !ok {
			return
		}

		size := defaultQRSize
		if raw := r.URL.Query().Get("size"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < minQRSize || n > maxQRSize {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("size must be between %d and %d", minQRSize, maxQRSize))
				return
			}
			size = n
		}

		png, err := qrcode.Encode(introURL(publicURL, l.ID), qrcode.Medium, size)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.WriteHeader(http.StatusOK)
		w.Write(png)
	}
}
