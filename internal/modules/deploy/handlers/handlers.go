// Package handlers provides HTTP handlers for the agent deployment flow.
// Each session gets its own flow instance so two logged-in users never see
// each other's drafts or generated wallets.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zapdeck/zapdeck/internal/deploy"
	"github.com/zapdeck/zapdeck/internal/domain"
	"github.com/zapdeck/zapdeck/internal/httpx"
	"github.com/zapdeck/zapdeck/internal/identity"
)

// Handler handles deployment HTTP requests
type Handler struct {
	creator  deploy.Creator
	reviewer deploy.PromptReviewer
	sessions *identity.Service
	log      zerolog.Logger

	mu    sync.Mutex
	flows map[string]*deploy.Flow
}

// NewHandler creates a new deployment handler
func NewHandler(creator deploy.Creator, reviewer deploy.PromptReviewer, sessions *identity.Service, log zerolog.Logger) *Handler {
	return &Handler{
		creator:  creator,
		reviewer: reviewer,
		sessions: sessions,
		log:      log.With().Str("handler", "deploy").Logger(),
		flows:    make(map[string]*deploy.Flow),
	}
}

// flow returns the caller's flow, creating it on first touch. nil session
// means the caller is not logged in.
func (h *Handler) flow(r *http.Request) (*deploy.Flow, *identity.Session) {
	token := r.Header.Get("X-Session-Token")
	if token == "" {
		return nil, nil
	}
	sess, err := h.sessions.Resolve(token)
	if err != nil || sess == nil {
		// A dead session's flow may still hold a draft private key.
		h.Evict(token)
		return nil, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.flows[token]
	if !ok {
		f = deploy.NewFlow(h.creator, h.reviewer, h.log)
		h.flows[token] = f
	}
	return f, sess
}

// Evict drops the flow tied to a session token, discarding any in-progress
// draft and its generated wallet key. Called on logout and whenever a token
// no longer resolves.
func (h *Handler) Evict(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.flows, token)
}

// stateResponse is the full flow snapshot the wizard renders from.
type stateResponse struct {
	State     deploy.State       `json:"state"`
	Draft     deploy.Draft       `json:"draft"`
	Wallet    *domain.WalletInfo `json:"wallet,omitempty"`
	LastError string             `json:"lastError,omitempty"`
}

func snapshot(f *deploy.Flow) stateResponse {
	return stateResponse{
		State:     f.State(),
		Draft:     f.Draft(),
		Wallet:    f.Wallet(),
		LastError: f.LastError(),
	}
}

// HandleGetState handles GET /api/deploy/state
func (h *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	f, _ := h.flow(r)
	if f == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session required")
		return
	}
	httpx.RespondData(w, http.StatusOK, snapshot(f))
}

// HandleGenerateWallet handles POST /api/deploy/wallet/generate
func (h *Handler) HandleGenerateWallet(w http.ResponseWriter, r *http.Request) {
	f, _ := h.flow(r)
	if f == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session required")
		return
	}

	info, err := f.GenerateWallet()
	if err != nil {
		h.log.Error().Err(err).Msg("Wallet generation failed")
		httpx.RespondError(w, http.StatusInternalServerError, "failed to generate wallet")
		return
	}
	// The only time the mnemonic leaves the server. The UI shows it once.
	httpx.RespondData(w, http.StatusOK, map[string]interface{}{
		"wallet": info,
		"state":  f.State(),
	})
}

// ImportWalletRequest carries a mnemonic or a raw private key.
type ImportWalletRequest struct {
	Secret string `json:"secret"`
}

// HandleImportWallet handles POST /api/deploy/wallet/import
func (h *Handler) HandleImportWallet(w http.ResponseWriter, r *http.Request) {
	f, _ := h.flow(r)
	if f == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session required")
		return
	}

	var req ImportWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Secret == "" {
		httpx.RespondError(w, http.StatusBadRequest, "secret is required")
		return
	}

	info, err := f.ImportWallet(req.Secret)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.RespondData(w, http.StatusOK, map[string]interface{}{
		"wallet": map[string]string{"address": info.Address},
		"state":  f.State(),
	})
}

// UpdateConfigRequest is a partial form update; empty name/prompt leave the
// current values untouched.
type UpdateConfigRequest struct {
	Name   string             `json:"name"`
	Prompt string             `json:"prompt"`
	Config *domain.SwapConfig `json:"config"`
}

// HandleUpdateConfig handles PUT /api/deploy/config
func (h *Handler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	f, _ := h.flow(r)
	if f == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session required")
		return
	}

	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != "" {
		f.SetName(req.Name)
	}
	if req.Prompt != "" {
		f.SetPrompt(req.Prompt)
	}
	if req.Config != nil {
		f.UpdateConfig(*req.Config)
	}
	httpx.RespondData(w, http.StatusOK, snapshot(f))
}

// HandleListTemplates handles GET /api/deploy/templates
func (h *Handler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	httpx.RespondData(w, http.StatusOK, deploy.Templates())
}

// HandleApplyTemplate handles POST /api/deploy/template/{id}
func (h *Handler) HandleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	f, _ := h.flow(r)
	if f == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session required")
		return
	}

	tpl, ok := deploy.TemplateByID(chi.URLParam(r, "id"))
	if !ok {
		httpx.RespondError(w, http.StatusNotFound, "unknown template")
		return
	}
	f.ApplyTemplate(tpl)
	httpx.RespondData(w, http.StatusOK, snapshot(f))
}

// HandleSubmit handles POST /api/deploy/submit
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	f, sess := h.flow(r)
	if f == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session required")
		return
	}

	result, err := f.Submit(r.Context(), sess.WalletAddress)
	if err != nil {
		// The draft survives a failed submit; the snapshot carries the
		// inline error for the wizard to display.
		status := http.StatusBadGateway
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			status = http.StatusBadRequest
		}
		httpx.RespondMessage(w, status, snapshot(f), err.Error())
		return
	}
	// "deployed" is a momentary acknowledgment; the flow itself has already
	// reset, so the next GET /state starts the wizard over.
	httpx.RespondData(w, http.StatusOK, map[string]interface{}{
		"result": result,
		"state":  deploy.StateDeployed,
	})
}

// HandleReset handles POST /api/deploy/reset
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	f, _ := h.flow(r)
	if f == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session required")
		return
	}
	f.Reset()
	httpx.RespondData(w, http.StatusOK, snapshot(f))
}
