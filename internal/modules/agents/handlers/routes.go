package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all agent routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/agents", func(r chi.Router) {
		// Views
		r.Get("/mine", h.HandleListMine)
		r.Post("/mine/refresh", h.HandleRefreshMine)
		r.Get("/explore", h.HandleListExplore)
		r.Post("/explore/refresh", h.HandleRefreshExplore)

		// Mutations
		r.Post("/", h.HandleCreate)
		r.Post("/{id}/activate", h.HandleActivate)
		r.Post("/{id}/deactivate", h.HandleDeactivate)
		r.Delete("/{id}", h.HandleDelete)

		// Logs
		r.Get("/{id}/logs", h.HandleGetLogs)
	})
}
