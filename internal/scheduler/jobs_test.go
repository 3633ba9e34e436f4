package scheduler

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdeck/zapdeck/internal/domain"
	"github.com/zapdeck/zapdeck/internal/identity"
	"github.com/zapdeck/zapdeck/internal/modules/agents"
)

type recordingAPI struct {
	wallets []string
	active  int
}

func (r *recordingAPI) Create(_ context.Context, req domain.CreateAgentRequest) (*domain.Agent, error) {
	return &domain.Agent{ID: "x"}, nil
}

func (r *recordingAPI) ListByUser(_ context.Context, wallet string) ([]domain.Agent, error) {
	r.wallets = append(r.wallets, wallet)
	return []domain.Agent{{ID: "a-" + wallet}}, nil
}

func (r *recordingAPI) ListActive(_ context.Context) ([]domain.Agent, error) {
	r.active++
	return []domain.Agent{{ID: "e1"}}, nil
}

func (r *recordingAPI) Activate(_ context.Context, id string) (*domain.Agent, error) {
	return &domain.Agent{ID: id}, nil
}

func (r *recordingAPI) Deactivate(_ context.Context, id string) (*domain.Agent, error) {
	return &domain.Agent{ID: id}, nil
}

func (r *recordingAPI) Delete(_ context.Context, _ string) error { return nil }

func (r *recordingAPI) GetLogs(_ context.Context, _ string) ([]domain.AgentLog, error) {
	return nil, nil
}

type recordingStream struct {
	events []string
}

func (s *recordingStream) Broadcast(event string, _ interface{}) {
	s.events = append(s.events, event)
}

func setupSessions(t *testing.T) *identity.Service {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, wallet TEXT NOT NULL UNIQUE, created_at INTEGER NOT NULL);
		CREATE TABLE view_sessions (token TEXT PRIMARY KEY, wallet TEXT NOT NULL, created_at INTEGER NOT NULL);
	`)
	require.NoError(t, err)
	return identity.NewService(db, zerolog.Nop())
}

func TestAgentsRefreshJobCoversEverySessionWallet(t *testing.T) {
	sessions := setupSessions(t)
	_, err := sessions.Login("0xAlice")
	require.NoError(t, err)
	_, err = sessions.Login("0xBob")
	require.NoError(t, err)
	_, err = sessions.Login("0xAlice") // second tab, same wallet
	require.NoError(t, err)

	api := &recordingAPI{}
	stream := &recordingStream{}
	job := &AgentsRefreshJob{
		Agents:   agents.NewService(api, nil, zerolog.Nop()),
		Sessions: sessions,
		Stream:   stream,
		Log:      zerolog.Nop(),
	}

	require.NoError(t, job.Run())
	assert.ElementsMatch(t, []string{"0xAlice", "0xBob"}, api.wallets)
	assert.Len(t, stream.events, 2)
}

func TestExploreRefreshJobBroadcasts(t *testing.T) {
	api := &recordingAPI{}
	stream := &recordingStream{}
	job := &ExploreRefreshJob{
		Agents: agents.NewService(api, nil, zerolog.Nop()),
		Stream: stream,
		Log:    zerolog.Nop(),
	}

	require.NoError(t, job.Run())
	assert.Equal(t, 1, api.active)
	assert.Equal(t, []string{"agents:explore"}, stream.events)
}
