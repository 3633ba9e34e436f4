package portfolio

import (
	"context"
	"sync"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"

	"github.com/zapdeck/zapdeck/internal/clients/mobula"
	"github.com/zapdeck/zapdeck/internal/clients/tokenapi"
)

// PortfolioAPI is the source-A client surface the service depends on.
type PortfolioAPI interface {
	GetWalletPortfolio(ctx context.Context, address string, opts mobula.Options) (*mobula.WalletPortfolio, error)
}

// BalanceAPI is the source-B client surface the service depends on.
type BalanceAPI interface {
	GetMultiNetworkBalances(ctx context.Context, address string, networks []string) (map[string][]tokenapi.TokenBalance, error)
}

// FetchOptions controls one enhanced-portfolio fetch.
type FetchOptions struct {
	UseMobula    bool
	UseTheGraph  bool
	Networks     []string // nil means the service's configured networks
	Cache        bool
	StaleSeconds int
}

// DefaultFetchOptions enables both sources with the dashboard's standard
// cache hints.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		UseMobula:    true,
		UseTheGraph:  true,
		Cache:        true,
		StaleSeconds: 3600,
	}
}

// inflight tracks a fetch in progress so concurrent requests for the same
// guard key share one network round trip. Later requests wait for the first;
// last-resolved-wins races across distinct keys remain possible and accepted.
type inflight struct {
	done   chan struct{}
	result *EnhancedWalletPortfolio
}

// Service produces enhanced portfolios, deduplicating fetches per view
// session. The guard is "already loading or loaded", not a shared cache: it is
// keyed session:wallet and evaporates with the ristretto entry, there is no
// cross-view invalidation.
type Service struct {
	mobulaAPI PortfolioAPI
	balances  BalanceAPI
	networks  []string
	snapshots *SnapshotStore // optional
	guard     *ristretto.Cache
	log       zerolog.Logger

	mu      sync.Mutex
	pending map[string]*inflight
}

// NewService creates a portfolio service. snapshots may be nil to disable
// persistence of combined results.
func NewService(mobulaAPI PortfolioAPI, balances BalanceAPI, networks []string, snapshots *SnapshotStore, log zerolog.Logger) (*Service, error) {
	guard, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 26, // 64MB of combined portfolios
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		mobulaAPI: mobulaAPI,
		balances:  balances,
		networks:  networks,
		snapshots: snapshots,
		guard:     guard,
		log:       log.With().Str("service", "portfolio").Logger(),
		pending:   map[string]*inflight{},
	}, nil
}

// GetEnhancedPortfolio returns the combined portfolio for a wallet, fetching
// both sources concurrently. Within one view session the second call for the
// same address is served from the guard without touching the network.
// The combiner never errors; a failed source is logged and treated as absent.
func (s *Service) GetEnhancedPortfolio(ctx context.Context, session, address string, opts FetchOptions) *EnhancedWalletPortfolio {
	key := session + ":" + address

	if cached, ok := s.guard.Get(key); ok {
		if p, ok := cached.(*EnhancedWalletPortfolio); ok {
			s.log.Debug().Str("wallet", address).Msg("Guard hit")
			return p
		}
	}

	s.mu.Lock()
	if call, ok := s.pending[key]; ok {
		s.mu.Unlock()
		<-call.done
		return call.result
	}
	call := &inflight{done: make(chan struct{})}
	s.pending[key] = call
	s.mu.Unlock()

	call.result = s.fetchAndCombine(ctx, address, opts)

	s.guard.Set(key, call.result, 1)
	s.guard.Wait()

	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()
	close(call.done)

	return call.result
}

// fetchAndCombine runs both source fetches concurrently and merges the results.
func (s *Service) fetchAndCombine(ctx context.Context, address string, opts FetchOptions) *EnhancedWalletPortfolio {
	networks := opts.Networks
	if networks == nil {
		networks = s.networks
	}

	var (
		wg         sync.WaitGroup
		mobulaData *mobula.WalletPortfolio
		graphData  []tokenapi.TokenBalance
	)

	if opts.UseMobula && s.mobulaAPI != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := s.mobulaAPI.GetWalletPortfolio(ctx, address, mobula.Options{
				Cache:        opts.Cache,
				StaleSeconds: opts.StaleSeconds,
				FilterSpam:   true,
				MinLiquidity: 100,
				PnL:          true,
			})
			if err != nil {
				s.log.Warn().Err(err).Str("wallet", address).Msg("Failed to fetch portfolio source")
				return
			}
			mobulaData = data
		}()
	}

	if opts.UseTheGraph && s.balances != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			perNetwork, err := s.balances.GetMultiNetworkBalances(ctx, address, networks)
			if err != nil {
				s.log.Warn().Err(err).Str("wallet", address).Msg("Failed to fetch balance source")
				return
			}
			for _, network := range networks {
				graphData = append(graphData, perNetwork[network]...)
			}
		}()
	}

	wg.Wait()

	combined := Combine(mobulaData, graphData)

	if s.snapshots != nil {
		if err := s.snapshots.Save(address, combined); err != nil {
			s.log.Warn().Err(err).Str("wallet", address).Msg("Failed to save portfolio snapshot")
		}
	}

	return combined
}

// LastSnapshot returns the most recent persisted combined portfolio for a
// wallet, or nil when none exists. Used for instant paint before a live fetch.
func (s *Service) LastSnapshot(address string) *EnhancedWalletPortfolio {
	if s.snapshots == nil {
		return nil
	}
	snap, err := s.snapshots.Load(address)
	if err != nil {
		s.log.Warn().Err(err).Str("wallet", address).Msg("Failed to load portfolio snapshot")
		return nil
	}
	return snap
}
