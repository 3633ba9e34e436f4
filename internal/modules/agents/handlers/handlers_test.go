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

	"github.com/zapdeck/zapdeck/internal/domain"
	"github.com/zapdeck/zapdeck/internal/identity"
	"github.com/zapdeck/zapdeck/internal/modules/agents"
)

type stubAPI struct {
	byUser []domain.Agent
	active []domain.Agent
}

func (s *stubAPI) Create(_ context.Context, req domain.CreateAgentRequest) (*domain.Agent, error) {
	return &domain.Agent{ID: "new", Name: req.Name, UserWallet: req.UserWallet}, nil
}

func (s *stubAPI) ListByUser(_ context.Context, _ string) ([]domain.Agent, error) {
	return s.byUser, nil
}

func (s *stubAPI) ListActive(_ context.Context) ([]domain.Agent, error) {
	return s.active, nil
}

func (s *stubAPI) Activate(_ context.Context, id string) (*domain.Agent, error) {
	return &domain.Agent{ID: id, IsActive: true}, nil
}

func (s *stubAPI) Deactivate(_ context.Context, id string) (*domain.Agent, error) {
	return &domain.Agent{ID: id, IsActive: false}, nil
}

func (s *stubAPI) Delete(_ context.Context, _ string) error { return nil }

func (s *stubAPI) GetLogs(_ context.Context, id string) ([]domain.AgentLog, error) {
	return []domain.AgentLog{{ID: "l1", BotID: id}}, nil
}

func setupRouter(t *testing.T, api *stubAPI) (*chi.Mux, string) {
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

	svc := agents.NewService(api, nil, zerolog.Nop())
	h := NewHandler(svc, sessions, zerolog.Nop())

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, sess.Token
}

func TestListMineRequiresSession(t *testing.T) {
	r, _ := setupRouter(t, &stubAPI{})

	req := httptest.NewRequest(http.MethodGet, "/agents/mine", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshAndListMine(t *testing.T) {
	r, token := setupRouter(t, &stubAPI{byUser: []domain.Agent{{ID: "a1", Name: "Bot"}}})

	req := httptest.NewRequest(http.MethodPost, "/agents/mine/refresh", nil)
	req.Header.Set("X-Session-Token", token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/agents/mine", nil)
	req.Header.Set("X-Session-Token", token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data struct {
			Agents []domain.Agent `json:"agents"`
		} `json:"data"`
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	require.Len(t, env.Data.Agents, 1)
	assert.Equal(t, "a1", env.Data.Agents[0].ID)
}

func TestExploreIsPublic(t *testing.T) {
	r, _ := setupRouter(t, &stubAPI{active: []domain.Agent{{ID: "e1", IsActive: true}}})

	req := httptest.NewRequest(http.MethodPost, "/agents/explore/refresh", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/agents/explore", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateRejectsIncompleteRequest(t *testing.T) {
	r, token := setupRouter(t, &stubAPI{})

	body := `{"name": "", "prompt": "do things"}`
	req := httptest.NewRequest(http.MethodPost, "/agents/", strings.NewReader(body))
	req.Header.Set("X-Session-Token", token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLogs(t *testing.T) {
	r, _ := setupRouter(t, &stubAPI{})

	req := httptest.NewRequest(http.MethodGet, "/agents/a1/logs", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data []domain.AgentLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "a1", env.Data[0].BotID)
}
