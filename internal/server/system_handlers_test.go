package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdeck/zapdeck/internal/database"
)

type stubProbe struct {
	healthErr error
}

func (s *stubProbe) Health(_ context.Context) error { return s.healthErr }

func (s *stubProbe) Info(_ context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"version":"1.0"}`), nil
}

func setupHandlers(t *testing.T, probe *stubProbe) *SystemHandlers {
	dir := t.TempDir()

	appDB, err := database.New(database.Config{Path: filepath.Join(dir, "app.db"), Name: "app"})
	require.NoError(t, err)
	t.Cleanup(func() { appDB.Close() })

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "client_cache.db"),
		Profile: database.ProfileCache,
		Name:    "client_cache",
	})
	require.NoError(t, err)
	t.Cleanup(func() { cacheDB.Close() })

	return NewSystemHandlers(zerolog.Nop(), dir, appDB, cacheDB, probe, NewHub(zerolog.Nop()))
}

func TestHandleHealth(t *testing.T) {
	h := setupHandlers(t, &stubProbe{})

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/system/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data struct {
			Status  string `json:"status"`
			Backend string `json:"backend"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "ok", env.Data.Status)
	assert.Equal(t, "ok", env.Data.Backend)
}

func TestHandleHealthBackendDown(t *testing.T) {
	h := setupHandlers(t, &stubProbe{healthErr: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/system/health", nil))

	require.Equal(t, http.StatusOK, rec.Code, "backend failure must not fail the health endpoint")
	var env struct {
		Data struct {
			Backend string `json:"backend"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "unreachable", env.Data.Backend)
}

func TestHandleInfo(t *testing.T) {
	h := setupHandlers(t, &stubProbe{})

	rec := httptest.NewRecorder()
	h.HandleInfo(rec, httptest.NewRequest(http.MethodGet, "/api/system/info", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data struct {
			GoVersion string          `json:"goVersion"`
			Backend   json.RawMessage `json:"backend"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.NotEmpty(t, env.Data.GoVersion)
	assert.JSONEq(t, `{"version":"1.0"}`, string(env.Data.Backend))
}
