package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all session routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.HandleGetSession)
		r.Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)
	})
}
