package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all deployment routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/deploy", func(r chi.Router) {
		// Flow state
		r.Get("/state", h.HandleGetState)
		r.Post("/reset", h.HandleReset)

		// Wallet step
		r.Post("/wallet/generate", h.HandleGenerateWallet)
		r.Post("/wallet/import", h.HandleImportWallet)

		// Configuration step
		r.Put("/config", h.HandleUpdateConfig)
		r.Get("/templates", h.HandleListTemplates)
		r.Post("/template/{id}", h.HandleApplyTemplate)

		// Launch
		r.Post("/submit", h.HandleSubmit)
	})
}
