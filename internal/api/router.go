// Package api exposes the mood engine over HTTP.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iammorganparry/feel/internal/engine"
	"github.com/iammorganparry/feel/internal/models"
)

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(
	eng *engine.Engine,
	available []models.ModelInfo,
	apiKey string,
	logger zerolog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	healthH := NewHealthHandler(eng)
	messageH := NewMessageHandler(eng)
	historyH := NewHistoryHandler(eng)
	settingsH := NewSettingsHandler(eng, available)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.Post("/messages", messageH.Send)
		r.Get("/state", messageH.State)
		r.Get("/context", messageH.Context)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", historyH.List)
			r.Delete("/", historyH.Clear)
		})
		r.Get("/export", historyH.Export)
		r.Post("/import", historyH.Import)
		r.Post("/cleanup", historyH.Cleanup)

		r.Get("/settings", settingsH.Get)
		r.Put("/settings", settingsH.Update)
		r.Get("/models", settingsH.Models)
		r.Get("/stats", settingsH.Stats)
		r.Post("/reset", settingsH.Reset)
	})

	return r
}
