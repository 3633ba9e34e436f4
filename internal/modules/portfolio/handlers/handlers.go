// Package handlers provides HTTP handlers for enhanced portfolio reads.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zapdeck/zapdeck/internal/httpx"
	"github.com/zapdeck/zapdeck/internal/identity"
	"github.com/zapdeck/zapdeck/internal/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	portfolioService *portfolio.Service
	sessions         *identity.Service
	log              zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(portfolioService *portfolio.Service, sessions *identity.Service, log zerolog.Logger) *Handler {
	return &Handler{
		portfolioService: portfolioService,
		sessions:         sessions,
		log:              log.With().Str("handler", "portfolio").Logger(),
	}
}

// guardKey scopes the once-per-view fetch guard. An authenticated caller is
// scoped by session token so each dashboard visit fetches once; anonymous
// callers share the public scope.
func (h *Handler) guardKey(r *http.Request) string {
	token := r.Header.Get("X-Session-Token")
	if token != "" && h.sessions.Authenticated(token) {
		return token
	}
	return "public"
}

func fetchOptions(r *http.Request) portfolio.FetchOptions {
	opts := portfolio.DefaultFetchOptions()
	q := r.URL.Query()
	if q.Get("mobula") == "false" {
		opts.UseMobula = false
	}
	if q.Get("thegraph") == "false" {
		opts.UseTheGraph = false
	}
	if q.Get("cache") == "false" {
		opts.Cache = false
	}
	if stale := q.Get("stale"); stale != "" {
		if secs, err := strconv.Atoi(stale); err == nil && secs >= 0 {
			opts.StaleSeconds = secs
		}
	}
	return opts
}

// HandleGetPortfolio handles GET /api/portfolio/{address}
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if address == "" {
		httpx.RespondError(w, http.StatusBadRequest, "wallet address is required")
		return
	}

	p := h.portfolioService.GetEnhancedPortfolio(r.Context(), h.guardKey(r), address, fetchOptions(r))
	httpx.RespondData(w, http.StatusOK, p)
}

// HandleGetSummary handles GET /api/portfolio/{address}/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if address == "" {
		httpx.RespondError(w, http.StatusBadRequest, "wallet address is required")
		return
	}

	p := h.portfolioService.GetEnhancedPortfolio(r.Context(), h.guardKey(r), address, fetchOptions(r))
	httpx.RespondData(w, http.StatusOK, map[string]interface{}{
		"summary": portfolio.Summarize(p),
		"stats":   portfolio.ComputeStats(p),
	})
}

// HandleGetSnapshot handles GET /api/portfolio/{address}/snapshot
//
// Returns the last persisted portfolio for the wallet without touching the
// upstream APIs. 404 when no snapshot has ever been taken.
func (h *Handler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if address == "" {
		httpx.RespondError(w, http.StatusBadRequest, "wallet address is required")
		return
	}

	p := h.portfolioService.LastSnapshot(address)
	if p == nil {
		httpx.RespondError(w, http.StatusNotFound, "no snapshot for wallet")
		return
	}
	httpx.RespondData(w, http.StatusOK, p)
}
