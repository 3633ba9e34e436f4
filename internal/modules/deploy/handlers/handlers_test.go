package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdeck/zapdeck/internal/deploy"
	"github.com/zapdeck/zapdeck/internal/domain"
	"github.com/zapdeck/zapdeck/internal/identity"
)

type stubCreator struct {
	created *domain.CreateAgentRequest
}

func (s *stubCreator) Create(_ context.Context, req domain.CreateAgentRequest) (*domain.Agent, error) {
	s.created = &req
	return &domain.Agent{ID: "deployed-1", Name: req.Name, IsActive: true}, nil
}

func setupRouter(t *testing.T) (*chi.Mux, string, *stubCreator) {
	r, token, creator, _, _ := setupRouterFull(t)
	return r, token, creator
}

func setupRouterFull(t *testing.T) (*chi.Mux, string, *stubCreator, *Handler, *identity.Service) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, wallet TEXT NOT NULL UNIQUE, created_at INTEGER NOT NULL);
		CREATE TABLE view_sessions (token TEXT PRIMARY KEY, wallet TEXT NOT NULL, created_at INTEGER NOT NULL);
	`)
	require.NoError(t, err)

	sessions := identity.NewService(db, zerolog.Nop())
	sess, err := sessions.Login("0xOwner")
	require.NoError(t, err)

	creator := &stubCreator{}
	h := NewHandler(creator, nil, sessions, zerolog.Nop())

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, sess.Token, creator, h, sessions
}

func doJSON(t *testing.T, r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("X-Session-Token", token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStateRequiresSession(t *testing.T) {
	r, _, _ := setupRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/deploy/state", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateWalletReturnsMnemonicOnce(t *testing.T) {
	r, token, _ := setupRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/deploy/wallet/generate", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data struct {
			Wallet domain.WalletInfo `json:"wallet"`
			State  string            `json:"state"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.NotEmpty(t, env.Data.Wallet.Mnemonic)
	assert.NotEmpty(t, env.Data.Wallet.Address)
	assert.Equal(t, string(deploy.StateWalletReady), env.Data.State)
}

func TestImportRejectsGarbage(t *testing.T) {
	r, token, _ := setupRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/deploy/wallet/import", token, `{"secret": "not a mnemonic"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitWithoutDraftIsRejectedLocally(t *testing.T) {
	r, token, creator := setupRouter(t)

	doJSON(t, r, http.MethodPost, "/deploy/wallet/generate", token, "")
	rec := doJSON(t, r, http.MethodPost, "/deploy/submit", token, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, creator.created, "incomplete form must never reach the backend")
}

func TestApplyTemplateAndSubmit(t *testing.T) {
	r, token, creator := setupRouter(t)

	doJSON(t, r, http.MethodPost, "/deploy/wallet/generate", token, "")
	rec := doJSON(t, r, http.MethodPost, "/deploy/template/simple-swap", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPut, "/deploy/config", token,
		`{"name": "My Bot", "prompt": "swap hourly"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/deploy/submit", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, creator.created)
	assert.Equal(t, "My Bot", creator.created.Name)
	assert.Equal(t, "0xOwner", creator.created.UserWallet)

	// The submit response itself acknowledges the deploy.
	var submitEnv struct {
		Data struct {
			State string `json:"state"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitEnv))
	assert.Equal(t, string(deploy.StateDeployed), submitEnv.Data.State)

	// Success resets the flow back to the start.
	rec = doJSON(t, r, http.MethodGet, "/deploy/state", token, "")
	var env struct {
		Data struct {
			State string `json:"state"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, string(deploy.StateNoWallet), env.Data.State)
}

func TestEvictDiscardsDraftWallet(t *testing.T) {
	// Logout runs Evict; the flow holding the generated private key must go
	// with the session, and a later login starts from a clean wizard.
	r, token, _, h, _ := setupRouterFull(t)

	rec := doJSON(t, r, http.MethodPost, "/deploy/wallet/generate", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	h.Evict(token)

	h.mu.Lock()
	_, held := h.flows[token]
	h.mu.Unlock()
	assert.False(t, held, "evicted flow must not linger in memory")

	rec = doJSON(t, r, http.MethodGet, "/deploy/state", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data struct {
			State string `json:"state"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, string(deploy.StateNoWallet), env.Data.State)
}

func TestDeadSessionTokenEvictsFlow(t *testing.T) {
	r, token, _, h, sessions := setupRouterFull(t)

	rec := doJSON(t, r, http.MethodPost, "/deploy/wallet/generate", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, sessions.Logout(token))

	rec = doJSON(t, r, http.MethodGet, "/deploy/state", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	h.mu.Lock()
	_, held := h.flows[token]
	h.mu.Unlock()
	assert.False(t, held, "flow for a dead token must be dropped")
}
