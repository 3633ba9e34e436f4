// Package handlers provides HTTP handlers for agent operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zapdeck/zapdeck/internal/clients/botapi"
	"github.com/zapdeck/zapdeck/internal/domain"
	"github.com/zapdeck/zapdeck/internal/httpx"
	"github.com/zapdeck/zapdeck/internal/identity"
	"github.com/zapdeck/zapdeck/internal/modules/agents"
)

// Handler handles agent HTTP requests
type Handler struct {
	agentService *agents.Service
	sessions     *identity.Service
	log          zerolog.Logger
}

// NewHandler creates a new agents handler
func NewHandler(agentService *agents.Service, sessions *identity.Service, log zerolog.Logger) *Handler {
	return &Handler{
		agentService: agentService,
		sessions:     sessions,
		log:          log.With().Str("handler", "agents").Logger(),
	}
}

// session resolves the caller's session from the X-Session-Token header.
func (h *Handler) session(r *http.Request) *identity.Session {
	token := r.Header.Get("X-Session-Token")
	if token == "" {
		return nil
	}
	sess, err := h.sessions.Resolve(token)
	if err != nil {
		return nil
	}
	return sess
}

// HandleListMine handles GET /api/agents/mine
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session required")
		return
	}
	state := h.agentService.Mine(sess.WalletAddress, r.URL.Query().Get("q"))
	httpx.RespondData(w, http.StatusOK, state)
}

// HandleRefreshMine handles POST /api/agents/mine/refresh
func (h *Handler) HandleRefreshMine(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session required")
		return
	}
	state := h.agentService.RefreshMine(r.Context(), sess.WalletAddress)
	httpx.RespondData(w, http.StatusOK, state)
}

// HandleListExplore handles GET /api/agents/explore
func (h *Handler) HandleListExplore(w http.ResponseWriter, r *http.Request) {
	state := h.agentService.Explore(r.URL.Query().Get("q"))
	httpx.RespondData(w, http.StatusOK, state)
}

// HandleRefreshExplore handles POST /api/agents/explore/refresh
func (h *Handler) HandleRefreshExplore(w http.ResponseWriter, r *http.Request) {
	state := h.agentService.RefreshExplore(r.Context())
	httpx.RespondData(w, http.StatusOK, state)
}

// HandleCreate handles POST /api/agents
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session required")
		return
	}

	var req domain.CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserWallet = sess.WalletAddress

	if req.Name == "" || req.Prompt == "" {
		httpx.RespondError(w, http.StatusBadRequest, "name and prompt are required")
		return
	}
	if err := req.SwapConfig.Validate(); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	agent, err := h.agentService.Create(r.Context(), req)
	if err != nil {
		h.respondUpstream(w, err, "Failed to create agent")
		return
	}
	httpx.RespondData(w, http.StatusCreated, agent)
}

// HandleActivate handles POST /api/agents/{id}/activate
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

// HandleDeactivate handles POST /api/agents/{id}/deactivate
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, active bool) {
	sess := h.session(r)
	if sess == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session required")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.RespondError(w, http.StatusBadRequest, "agent id is required")
		return
	}

	var agent *domain.Agent
	var err error
	if active {
		agent, err = h.agentService.Activate(r.Context(), id, sess.WalletAddress)
	} else {
		agent, err = h.agentService.Deactivate(r.Context(), id, sess.WalletAddress)
	}
	if err != nil {
		h.respondUpstream(w, err, "Failed to toggle agent")
		return
	}
	httpx.RespondData(w, http.StatusOK, agent)
}

// HandleDelete handles DELETE /api/agents/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session required")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.RespondError(w, http.StatusBadRequest, "agent id is required")
		return
	}

	if err := h.agentService.Delete(r.Context(), id, sess.WalletAddress); err != nil {
		h.respondUpstream(w, err, "Failed to delete agent")
		return
	}
	httpx.RespondMessage(w, http.StatusOK, nil, "agent deleted")
}

// HandleGetLogs handles GET /api/agents/{id}/logs
func (h *Handler) HandleGetLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.RespondError(w, http.StatusBadRequest, "agent id is required")
		return
	}

	logs, err := h.agentService.Logs(r.Context(), id)
	if err != nil {
		h.respondUpstream(w, err, "Failed to fetch agent logs")
		return
	}
	if logs == nil {
		logs = []domain.AgentLog{}
	}
	httpx.RespondData(w, http.StatusOK, logs)
}

// respondUpstream maps execution backend failures onto the envelope:
// backend HTTP errors pass their status through, everything else is a 502.
func (h *Handler) respondUpstream(w http.ResponseWriter, err error, note string) {
	h.log.Warn().Err(err).Msg(note)

	var apiErr *botapi.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		httpx.RespondError(w, apiErr.Status, err.Error())
		return
	}
	httpx.RespondError(w, http.StatusBadGateway, err.Error())
}
