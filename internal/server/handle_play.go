package server

import (
	"errors"
	"net/http"

	"github.com/playperu/geogamer/internal/assets"
	"github.com/playperu/geogamer/internal/catalog"
	"github.com/playperu/geogamer/internal/engine"
	"github.com/playperu/geogamer/internal/geogamer"
	"github.com/playperu/geogamer/internal/mapview"
	"github.com/playperu/geogamer/internal/play"
)

// StartPlayRequest is the request body for POST /api/play.
type StartPlayRequest struct {
	Level int `json:"level" minimum:"1"`
}

// GuessRequest is the request body for POST /api/play/{sessionID}/guess.
type GuessRequest struct {
	Guess string `json:"guess"`
}

type GuessResponse struct {
	engine.GuessResult
	State PlayStateResponse `json:"state"`
}

// MapEventRequest is one pointer event over the map. Type is one of wheel,
// down, move, up, leave, click or place. X and Y are client pixels, except
// for place where they are image percentages.
type MapEventRequest struct {
	Type   string       `json:"type"`
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	DeltaY float64      `json:"deltaY"`
	Bounds mapview.Rect `json:"bounds"`
}

type MapEventResponse struct {
	Placed bool              `json:"placed"`
	State  PlayStateResponse `json:"state"`
}

type ValidateResponse struct {
	engine.LocationResult
	State PlayStateResponse `json:"state"`
}

type NextResponse struct {
	engine.Transition
	State PlayStateResponse `json:"state"`
}

// mapEventPlace places the marker directly from image percentages, for
// keyboard and assistive input.
const mapEventPlace = "place"

func handleStartPlay(levels catalog.Provider, sessions *play.Registry, res *assets.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartPlayRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Level < 1 {
			writeError(w, http.StatusBadRequest, "level must be a positive integer")
			return
		}

		level, err := catalog.ResolveLevel(r.Context(), levels, req.Level)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		last, err := levels.LastLevelID(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		sess := sessions.Create(level, last)
		writeJSON(w, http.StatusCreated, newPlayState(sess.Snapshot(), res))
	}
}

func handlePlayState(res *assets.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, newPlayState(playSession(r).Snapshot(), res))
	}
}

func handleEndPlay(sessions *play.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Remove(playSession(r).ID); err != nil {
			writePlayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
	}
}

func handleGuess(res *assets.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GuessRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, snap, err := playSession(r).SubmitGuess(req.Guess)
		if err != nil {
			writePlayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, GuessResponse{GuessResult: result, State: newPlayState(snap, res)})
	}
}

func handleMapEvent(res *assets.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MapEventRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		placed, snap, err := applyMapEvent(playSession(r), req)
		if err != nil {
			writePlayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MapEventResponse{Placed: placed, State: newPlayState(snap, res)})
	}
}

func applyMapEvent(sess *play.Session, req MapEventRequest) (bool, play.Snapshot, error) {
	if req.Type == mapEventPlace {
		return sess.PlaceMarker(geogamer.Point{X: req.X, Y: req.Y})
	}
	return sess.HandleMap(play.MapInput{
		Type:   req.Type,
		Point:  mapview.Vec{X: req.X, Y: req.Y},
		DeltaY: req.DeltaY,
		Bounds: req.Bounds,
	})
}

func handleValidate(res *assets.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, snap, err := playSession(r).Validate()
		if err != nil {
			writePlayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ValidateResponse{LocationResult: result, State: newPlayState(snap, res)})
	}
}

func handleNext(res *assets.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tr, snap, err := playSession(r).Advance()
		if errors.Is(err, engine.ErrWrongPhase) {
			writeError(w, http.StatusConflict, "round is not finished")
			return
		}
		if err != nil {
			writePlayError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, NextResponse{Transition: tr, State: newPlayState(snap, res)})
	}
}
