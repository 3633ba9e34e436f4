package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/{address}", h.HandleGetPortfolio)
		r.Get("/{address}/summary", h.HandleGetSummary)
		r.Get("/{address}/snapshot", h.HandleGetSnapshot)
	})
}
