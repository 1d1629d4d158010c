package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/geogamer/internal/assets"
	"github.com/playperu/geogamer/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	res := d.Assets
	if res == nil {
		res = assets.NewResolver(nil)
	}

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("GeoGamer API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, d.Health).Routes())
	r.Mount(assets.Prefix, res.Handler())

	r.Route("/api/levels", func(r chi.Router) {
		r.Get("/", handleListLevels(d.Levels, res))
		r.Get("/{id}", handleGetLevel(d.Levels, res, d.PublicURL))
		r.Get("/{id}/qr.png", handleLevelQR(d.Levels, d.PublicURL))
	})

	// Play routes; {sessionID} resolved by sessionMiddleware.
	r.Route("/api/play", func(r chi.Router) {
		r.Post("/", handleStartPlay(d.Levels, d.Sessions, res))
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Use(sessionMiddleware(d.Sessions))
			r.Get("/", handlePlayState(res))
			r.Delete("/", handleEndPlay(d.Sessions))
			r.Post("/guess", handleGuess(res))
			r.Post("/map", handleMapEvent(res))
			r.Get("/map/ws", handleMapWS(logger, res))
			r.Post("/validate", handleValidate(res))
			r.Post("/next", handleNext(res))
			r.Get("/events", handleEvents(d.Broker))
		})
	})

	r.Post("/api/admin/login", handleAdminLogin(d.Admin))
	r.Post("/api/admin/logout", handleAdminLogout(d.Admin))

	r.Group(func(r chi.Router) {
		r.Use(adminAuthMiddleware(d.Admin))
		r.Get("/api/admin/me", handleAdminMe())
		r.Get("/api/admin/levels", handleAdminListLevels(d.Levels))
		r.Get("/api/admin/levels/{id}", handleAdminGetLevel(d.Levels))
		r.Put("/api/admin/levels/{id}", handleAdminPutLevel(logger, d.Levels))
		r.Delete("/api/admin/levels/{id}", handleAdminDeleteLevel(logger, d.Levels))
	})

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
