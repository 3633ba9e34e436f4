// Package handlers provides HTTP handlers for wallet login sessions.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/zapdeck/zapdeck/internal/httpx"
	"github.com/zapdeck/zapdeck/internal/identity"
)

// Handler handles session HTTP requests
type Handler struct {
	sessions *identity.Service
	onLogout func(token string)
	log      zerolog.Logger
}

// NewHandler creates a new session handler. onLogout, if non-nil, runs after
// a successful logout so per-session state elsewhere (like an in-progress
// deployment draft) is discarded with the session.
func NewHandler(sessions *identity.Service, onLogout func(token string), log zerolog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		onLogout: onLogout,
		log:      log.With().Str("handler", "session").Logger(),
	}
}

// LoginRequest carries the wallet address the user connected with.
type LoginRequest struct {
	Wallet string `json:"wallet"`
}

// HandleLogin handles POST /api/session/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Wallet == "" {
		httpx.RespondError(w, http.StatusBadRequest, "wallet is required")
		return
	}
	if !common.IsHexAddress(req.Wallet) {
		httpx.RespondError(w, http.StatusBadRequest, "not a valid EVM address")
		return
	}

	sess, err := h.sessions.Login(req.Wallet)
	if err != nil {
		h.log.Error().Err(err).Msg("Login failed")
		httpx.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	httpx.RespondData(w, http.StatusOK, sess)
}

// HandleLogout handles POST /api/session/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Session-Token")
	if token == "" {
		httpx.RespondError(w, http.StatusBadRequest, "session token is required")
		return
	}
	if err := h.sessions.Logout(token); err != nil {
		h.log.Warn().Err(err).Msg("Logout failed")
		httpx.RespondError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	if h.onLogout != nil {
		h.onLogout(token)
	}
	httpx.RespondMessage(w, http.StatusOK, nil, "logged out")
}

// HandleGetSession handles GET /api/session
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Session-Token")
	if token == "" {
		httpx.RespondError(w, http.StatusUnauthorized, "session token is required")
		return
	}
	sess, err := h.sessions.Resolve(token)
	if err != nil {
		h.log.Warn().Err(err).Msg("Session lookup failed")
		httpx.RespondError(w, http.StatusInternalServerError, "session lookup failed")
		return
	}
	if sess == nil {
		httpx.RespondError(w, http.StatusUnauthorized, "session expired or unknown")
		return
	}
	httpx.RespondData(w, http.StatusOK, sess)
}
