package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapdeck/zapdeck/internal/identity"
	"github.com/zapdeck/zapdeck/internal/modules/agents"
)

// Broadcaster pushes a refresh notification to connected dashboard clients.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// jobTimeout bounds one refresh cycle; a wedged upstream must not pile up
// overlapping runs.
const jobTimeout = 25 * time.Second

// AgentsRefreshJob re-fetches the "my agents" view for every wallet with a
// live session.
type AgentsRefreshJob struct {
	Agents   *agents.Service
	Sessions *identity.Service
	Stream   Broadcaster
	Log      zerolog.Logger
}

func (j *AgentsRefreshJob) Name() string { return "agents-refresh" }

func (j *AgentsRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	wallets, err := j.Sessions.ActiveWallets()
	if err != nil {
		return err
	}
	for _, wallet := range wallets {
		state := j.Agents.RefreshMine(ctx, wallet)
		if j.Stream != nil {
			j.Stream.Broadcast("agents:mine", map[string]interface{}{
				"wallet": wallet,
				"count":  len(state.Agents),
			})
		}
	}
	return nil
}

// ExploreRefreshJob re-fetches the public explore view.
type ExploreRefreshJob struct {
	Agents *agents.Service
	Stream Broadcaster
	Log    zerolog.Logger
}

func (j *ExploreRefreshJob) Name() string { return "explore-refresh" }

func (j *ExploreRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	state := j.Agents.RefreshExplore(ctx)
	if j.Stream != nil {
		j.Stream.Broadcast("agents:explore", map[string]interface{}{
			"count": len(state.Agents),
		})
	}
	return nil
}
