// Package agents maintains the agent list views the dashboard paints from:
// one "mine" view per logged-in wallet and a shared "explore" view of all
// active agents. Views are refreshed from the execution backend, persisted
// to app.db so a restart repaints instantly, and re-fetched after every
// mutation so the UI never guesses at backend state.
package agents

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapdeck/zapdeck/internal/clients/botapi"
	"github.com/zapdeck/zapdeck/internal/domain"
)

// ViewExplore is the persistence key for the shared explore view.
// Per-wallet views are stored under MineViewKey.
const ViewExplore = "explore"

// MineViewKey returns the agent_views key for one wallet's "my agents" view.
// Keying by wallet keeps each user's list isolated; agent records carry the
// full swapConfig, so one user's view must never be served to another.
func MineViewKey(wallet string) string {
	return "mine:" + wallet
}

// API is the slice of the execution backend client the service needs.
type API interface {
	Create(ctx context.Context, req domain.CreateAgentRequest) (*domain.Agent, error)
	ListByUser(ctx context.Context, wallet string) ([]domain.Agent, error)
	ListActive(ctx context.Context) ([]domain.Agent, error)
	Activate(ctx context.Context, id string) (*domain.Agent, error)
	Deactivate(ctx context.Context, id string) (*domain.Agent, error)
	Delete(ctx context.Context, id string) error
	GetLogs(ctx context.Context, id string) ([]domain.AgentLog, error)
}

// ViewState is one repaintable list: the agents, an error message when the
// last refresh failed, and when the view was last updated.
type ViewState struct {
	Agents    []domain.Agent `json:"agents"`
	Message   string         `json:"message"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func emptyView() ViewState {
	return ViewState{Agents: []domain.Agent{}}
}

// Service owns the in-memory views and their persistence.
type Service struct {
	api   API
	views *ViewRepository
	log   zerolog.Logger

	mu      sync.Mutex
	mine    map[string]ViewState // keyed by wallet
	explore ViewState
}

// NewService creates the agents view service. views may be nil (tests).
func NewService(api API, views *ViewRepository, log zerolog.Logger) *Service {
	s := &Service{
		api:     api,
		views:   views,
		log:     log.With().Str("service", "agents").Logger(),
		mine:    make(map[string]ViewState),
		explore: emptyView(),
	}
	if views != nil {
		// The explore view is repainted from app.db before the first
		// refresh; per-wallet views restore lazily on first access.
		if state, err := views.Load(ViewExplore); err == nil && state != nil {
			s.explore = *state
		}
	}
	return s
}

// RefreshMine re-fetches the given wallet's agents. A malformed payload
// from the backend empties the list and records the decode message; a
// transport or HTTP failure keeps the previous list on screen and records
// the message so the UI can offer a retry.
func (s *Service) RefreshMine(ctx context.Context, wallet string) ViewState {
	list, err := s.api.ListByUser(ctx, wallet)

	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.applyResult(s.mineLocked(wallet), list, err, MineViewKey(wallet))
	s.mine[wallet] = state
	s.persist(MineViewKey(wallet), state)
	return state
}

// RefreshExplore re-fetches all active agents for the explore view.
func (s *Service) RefreshExplore(ctx context.Context) ViewState {
	list, err := s.api.ListActive(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.applyResult(s.explore, list, err, ViewExplore)
	s.explore = state
	s.persist(ViewExplore, state)
	return state
}

func (s *Service) applyResult(state ViewState, list []domain.Agent, err error, view string) ViewState {
	switch {
	case err == nil:
		if list == nil {
			list = []domain.Agent{}
		}
		state.Agents = list
		state.Message = ""
	default:
		var decErr *botapi.DecodeError
		if errors.As(err, &decErr) {
			// The backend answered but the payload shape was wrong.
			// Nothing trustworthy to show, so the list goes empty.
			state.Agents = []domain.Agent{}
		}
		state.Message = err.Error()
		s.log.Warn().Err(err).Str("view", view).Msg("Agent view refresh failed")
	}
	state.UpdatedAt = time.Now().UTC()
	return state
}

// mineLocked returns the wallet's current view, restoring it from app.db on
// first access after a restart.
func (s *Service) mineLocked(wallet string) ViewState {
	if state, ok := s.mine[wallet]; ok {
		return state
	}
	if s.views != nil {
		if state, err := s.views.Load(MineViewKey(wallet)); err == nil && state != nil {
			s.mine[wallet] = *state
			return *state
		}
	}
	return emptyView()
}

func (s *Service) persist(view string, state ViewState) {
	if s.views == nil {
		return
	}
	if err := s.views.Save(view, state); err != nil {
		s.log.Warn().Err(err).Str("view", view).Msg("Failed to persist agent view")
	}
}

// Mine returns the given wallet's view, filtered by query if non-empty.
func (s *Service) Mine(wallet, query string) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterView(s.mineLocked(wallet), query)
}

// Explore returns the current explore view, filtered by query if non-empty.
func (s *Service) Explore(query string) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterView(s.explore, query)
}

// filterView matches the query case-insensitively against name and prompt.
func filterView(state ViewState, query string) ViewState {
	if query == "" {
		return state
	}
	q := strings.ToLower(query)
	matched := []domain.Agent{}
	for _, a := range state.Agents {
		if strings.Contains(strings.ToLower(a.Name), q) || strings.Contains(strings.ToLower(a.Prompt), q) {
			matched = append(matched, a)
		}
	}
	out := state
	out.Agents = matched
	return out
}

// Create submits a new agent and, on success, re-fetches the owner's view.
func (s *Service) Create(ctx context.Context, req domain.CreateAgentRequest) (*domain.Agent, error) {
	agent, err := s.api.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.RefreshMine(ctx, req.UserWallet)
	return agent, nil
}

// Activate flips an agent on and re-fetches the owner's view.
func (s *Service) Activate(ctx context.Context, id, wallet string) (*domain.Agent, error) {
	agent, err := s.api.Activate(ctx, id)
	if err != nil {
		return nil, err
	}
	s.RefreshMine(ctx, wallet)
	return agent, nil
}

// Deactivate flips an agent off and re-fetches the owner's view.
func (s *Service) Deactivate(ctx context.Context, id, wallet string) (*domain.Agent, error) {
	agent, err := s.api.Deactivate(ctx, id)
	if err != nil {
		return nil, err
	}
	s.RefreshMine(ctx, wallet)
	return agent, nil
}

// Delete removes an agent and re-fetches the owner's view.
func (s *Service) Delete(ctx context.Context, id, wallet string) error {
	if err := s.api.Delete(ctx, id); err != nil {
		return err
	}
	s.RefreshMine(ctx, wallet)
	return nil
}

// Logs fetches an agent's execution log entries straight through; logs are
// never cached because they change on every tick.
func (s *Service) Logs(ctx context.Context, id string) ([]domain.AgentLog, error) {
	return s.api.GetLogs(ctx, id)
}
