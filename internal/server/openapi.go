package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/geogamer/internal/geogamer"
	"github.com/playperu/geogamer/internal/handler/health"
	"github.com/playperu/geogamer/internal/play"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse acknowledges a request without a body of its own.
type StatusResponse struct {
	Status string `json:"status"`
}

type levelPath struct {
	ID int `path:"id"`
}

type sessionPath struct {
	SessionID string `path:"sessionID"`
}

type guessInput struct {
	sessionPath
	GuessRequest
}

type mapEventInput struct {
	sessionPath
	MapEventRequest
}

type putLevelInput struct {
	levelPath
	geogamer.Level
}

type qrInput struct {
	levelPath
	Size int `query:"size" minimum:"64" maximum:"1024" default:"256"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "GeoGamer API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for GeoGamer: name the video game from a panorama, then find the spot on its map.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]health.Result{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]health.Result{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/levels
	listLevels, _ := r.NewOperationContext(http.MethodGet, "/api/levels")
	listLevels.SetSummary("List levels")
	listLevels.SetDescription("Returns every level, ordered by id, without its rounds.")
	listLevels.AddRespStructure([]LevelSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listLevels)

	// GET /api/levels/{id}
	getLevel, _ := r.NewOperationContext(http.MethodGet, "/api/levels/{id}")
	getLevel.SetSummary("Level intro")
	getLevel.SetDescription("Returns one level for its intro page, with a shareable link.")
	getLevel.AddReqStructure(levelPath{})
	getLevel.AddRespStructure(LevelResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getLevel.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getLevel)

	// GET /api/levels/{id}/qr.png
	getQR, _ := r.NewOperationContext(http.MethodGet, "/api/levels/{id}/qr.png")
	getQR.SetSummary("Level QR code")
	getQR.SetDescription("PNG QR code linking to the level intro page.")
	getQR.AddReqStructure(qrInput{})
	getQR.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("image/png"))
	getQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getQR)

	// POST /api/play
	startPlay, _ := r.NewOperationContext(http.MethodPost, "/api/play")
	startPlay.SetSummary("Start playing")
	startPlay.SetDescription("Starts a play session on the first round of a level. Levels start at 1; an unknown level plays the fallback round.")
	startPlay.AddReqStructure(StartPlayRequest{})
	startPlay.AddRespStructure(PlayStateResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	startPlay.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(startPlay)

	// GET /api/play/{sessionID}
	getPlay, _ := r.NewOperationContext(http.MethodGet, "/api/play/{sessionID}")
	getPlay.SetSummary("Play state")
	getPlay.SetDescription("Returns the full state of a play session.")
	getPlay.AddReqStructure(sessionPath{})
	getPlay.AddRespStructure(PlayStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getPlay.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getPlay)

	// DELETE /api/play/{sessionID}
	endPlay, _ := r.NewOperationContext(http.MethodDelete, "/api/play/{sessionID}")
	endPlay.SetSummary("End play session")
	endPlay.SetDescription("Stops the session timers and forgets the session.")
	endPlay.AddReqStructure(sessionPath{})
	endPlay.AddRespStructure(StatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	endPlay.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(endPlay)

	// POST /api/play/{sessionID}/guess
	postGuess, _ := r.NewOperationContext(http.MethodPost, "/api/play/{sessionID}/guess")
	postGuess.SetSummary("Submit guess")
	postGuess.SetDescription("Checks the game name. A miss costs one attempt; the third miss ends the round.")
	postGuess.AddReqStructure(guessInput{})
	postGuess.AddRespStructure(GuessResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postGuess)

	// POST /api/play/{sessionID}/map
	postMap, _ := r.NewOperationContext(http.MethodPost, "/api/play/{sessionID}/map")
	postMap.SetSummary("Map event")
	postMap.SetDescription("Applies one pointer event over the map: wheel, down, move, up, leave, click, or place.")
	postMap.AddReqStructure(mapEventInput{})
	postMap.AddRespStructure(MapEventResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postMap.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postMap.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postMap.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postMap)

	// GET /api/play/{sessionID}/map/ws
	getMapWS, _ := r.NewOperationContext(http.MethodGet, "/api/play/{sessionID}/map/ws")
	getMapWS.SetSummary("Map socket")
	getMapWS.SetDescription("Upgrades to a WebSocket. Each JSON frame is a map event or a guess draft; each reply carries the new state.")
	getMapWS.AddReqStructure(sessionPath{})
	getMapWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	getMapWS.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getMapWS)

	// POST /api/play/{sessionID}/validate
	postValidate, _ := r.NewOperationContext(http.MethodPost, "/api/play/{sessionID}/validate")
	postValidate.SetSummary("Validate location")
	postValidate.SetDescription("Scores the placed marker against the target and ends the round.")
	postValidate.AddReqStructure(sessionPath{})
	postValidate.AddRespStructure(ValidateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postValidate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postValidate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postValidate)

	// POST /api/play/{sessionID}/next
	postNext, _ := r.NewOperationContext(http.MethodPost, "/api/play/{sessionID}/next")
	postNext.SetSummary("Next round")
	postNext.SetDescription("Leaves a finished round: starts the next round, or reports the next level or home.")
	postNext.AddReqStructure(sessionPath{})
	postNext.AddRespStructure(NextResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postNext.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postNext.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postNext)

	// GET /api/play/{sessionID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/play/{sessionID}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events: state, tick, reveal and level_complete.")
	getEvents.AddReqStructure(sessionPath{})
	getEvents.AddRespStructure(play.Event{}, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getEvents)

	// POST /api/admin/login
	adminLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	adminLogin.SetSummary("Admin login")
	adminLogin.SetDescription("Authenticates an admin and sets the admin_session cookie.")
	adminLogin.AddReqStructure(AdminLoginRequest{})
	adminLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	adminLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	adminLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(adminLogin)

	// POST /api/admin/logout
	adminLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	adminLogout.SetSummary("Admin logout")
	adminLogout.SetDescription("Ends the admin session and clears the cookie.")
	adminLogout.AddRespStructure(StatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(adminLogout)

	// GET /api/admin/me
	adminMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	adminMe.SetSummary("Current admin")
	adminMe.SetDescription("Returns the logged-in admin. Requires admin_session cookie.")
	adminMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	adminMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(adminMe)

	// GET /api/admin/levels
	adminList, _ := r.NewOperationContext(http.MethodGet, "/api/admin/levels")
	adminList.SetSummary("List levels with rounds")
	adminList.SetDescription("Returns the full catalog. Requires admin_session cookie.")
	adminList.AddRespStructure([]geogamer.Level{}, openapi.WithHTTPStatus(http.StatusOK))
	adminList.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(adminList)

	// GET /api/admin/levels/{id}
	adminGet, _ := r.NewOperationContext(http.MethodGet, "/api/admin/levels/{id}")
	adminGet.SetSummary("Get level with rounds")
	adminGet.SetDescription("Requires admin_session cookie.")
	adminGet.AddReqStructure(levelPath{})
	adminGet.AddRespStructure(geogamer.Level{}, openapi.WithHTTPStatus(http.StatusOK))
	adminGet.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	adminGet.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(adminGet)

	// PUT /api/admin/levels/{id}
	adminPut, _ := r.NewOperationContext(http.MethodPut, "/api/admin/levels/{id}")
	adminPut.SetSummary("Save level")
	adminPut.SetDescription("Creates or replaces a level. Running sessions keep the rounds they started with. Requires admin_session cookie.")
	adminPut.AddReqStructure(putLevelInput{})
	adminPut.AddRespStructure(geogamer.Level{}, openapi.WithHTTPStatus(http.StatusOK))
	adminPut.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	adminPut.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(adminPut)

	// DELETE /api/admin/levels/{id}
	adminDelete, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/levels/{id}")
	adminDelete.SetSummary("Delete level")
	adminDelete.SetDescription("Requires admin_session cookie.")
	adminDelete.AddReqStructure(levelPath{})
	adminDelete.AddRespStructure(StatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	adminDelete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	adminDelete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(adminDelete)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
