// Package tokenapi provides the client for the per-network token-balance API
// (market-data source B): raw on-chain balances with computed USD values.
package tokenapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapdeck/zapdeck/internal/clientcache"
)

const cacheTable = "token_balances"

// TokenBalance is one token holding on one network.
type TokenBalance struct {
	BlockNum          int64   `json:"block_num"`
	LastBalanceUpdate string  `json:"last_balance_update"`
	Contract          string  `json:"contract"`
	Amount            string  `json:"amount"` // raw on-chain amount, scale by decimals
	Value             float64 `json:"value"`  // computed USD value
	Name              string  `json:"name"`
	Symbol            string  `json:"symbol"`
	Decimals          int     `json:"decimals"`
	NetworkID         string  `json:"network_id"`
}

// BalancesResponse is one page of balances for a single network.
type BalancesResponse struct {
	Data []TokenBalance `json:"data"`
}

// Client for the token-balance API
type Client struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientcache.Repository
}

// NewClient creates a new token-balance API client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL, apiKey string, cacheRepo *clientcache.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log.With().Str("client", "tokenapi").Logger(),
		cacheRepo: cacheRepo,
	}
}

// GetWalletBalances fetches one page of token balances for a wallet on one
// network. A wallet with no holdings resolves to an empty page, not an error.
func (c *Client) GetWalletBalances(ctx context.Context, address, networkID string, limit, page int) (*BalancesResponse, error) {
	params := url.Values{}
	params.Set("network_id", networkID)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("page", strconv.Itoa(page))

	reqURL := fmt.Sprintf("%s/balances/evm/%s?%s", c.baseURL, address, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var balances BalancesResponse
	if err := json.NewDecoder(resp.Body).Decode(&balances); err != nil {
		return nil, fmt.Errorf("failed to decode balances response: %w", err)
	}
	if balances.Data == nil {
		balances.Data = []TokenBalance{}
	}

	return &balances, nil
}

// GetMultiNetworkBalances fans out across networks. A failed network
// contributes an empty page and a logged warning; it never aborts the
// remaining networks. The combined map is cached per wallet; when every
// network fails, a stale cached copy is served instead of an all-empty map
// (stale data > no data).
func (c *Client) GetMultiNetworkBalances(ctx context.Context, address string, networks []string) (map[string][]TokenBalance, error) {
	if c.cacheRepo != nil {
		if data, err := c.cacheRepo.GetIfFresh(cacheTable, address); err == nil && data != nil {
			var cached map[string][]TokenBalance
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("wallet", address).Msg("Cache hit")
				return cached, nil
			}
		}
	}

	results := make(map[string][]TokenBalance, len(networks))
	failed := 0

	for _, network := range networks {
		balances, err := c.GetWalletBalances(ctx, address, network, 100, 1)
		if err != nil {
			c.log.Warn().
				Err(err).
				Str("wallet", address).
				Str("network", network).
				Msg("Failed to fetch balances for network")
			results[network] = []TokenBalance{}
			failed++
			continue
		}
		results[network] = balances.Data
	}

	if failed == len(networks) && len(networks) > 0 {
		if stale, ok := c.getStaleFromCache(address); ok {
			c.log.Warn().Str("wallet", address).Msg("All networks failed, using stale cached balances")
			return stale, nil
		}
		return results, nil
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(cacheTable, address, results, clientcache.TTLBalances); err != nil {
			c.log.Warn().Err(err).Str("wallet", address).Msg("Failed to cache balances")
		}
	}

	return results, nil
}

func (c *Client) getStaleFromCache(address string) (map[string][]TokenBalance, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	data, err := c.cacheRepo.Get(cacheTable, address)
	if err != nil || data == nil {
		return nil, false
	}
	var cached map[string][]TokenBalance
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	return cached, true
}
