// Package mobula provides the client for the aggregated wallet-portfolio API
// (market-data source A): USD balances, allocations, and PnL buckets per wallet.
package mobula

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

const cacheTable = "mobula_portfolio"

// Options controls a single portfolio request.
type Options struct {
	Cache        bool    // Consult/populate the persistent cache
	StaleSeconds int     // Staleness hint forwarded to the API
	FilterSpam   bool    // Ask the API to drop spam tokens
	MinLiquidity float64 // Minimum liquidity threshold in USD
	PnL          bool    // Include PnL history buckets
}

// DefaultOptions match what the dashboard uses for every portfolio fetch.
func DefaultOptions() Options {
	return Options{
		Cache:        true,
		StaleSeconds: 3600,
		FilterSpam:   true,
		MinLiquidity: 100,
		PnL:          true,
	}
}

// Client for the wallet-portfolio API
type Client struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientcache.Repository
}

// NewClient creates a new portfolio API client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL, apiKey string, cacheRepo *clientcache.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log.With().Str("client", "mobula").Logger(),
		cacheRepo: cacheRepo,
	}
}

// GetWalletPortfolio fetches the aggregated portfolio for a wallet.
// If the API fails, returns stale cached data if available (stale data > no data).
// A wallet with no holdings resolves to a zeroed portfolio, not an error.
func (c *Client) GetWalletPortfolio(ctx context.Context, address string, opts Options) (*WalletPortfolio, error) {
	if opts.Cache && c.cacheRepo != nil {
		if data, err := c.cacheRepo.GetIfFresh(cacheTable, address); err == nil && data != nil {
			var cached WalletPortfolio
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("wallet", address).Msg("Cache hit")
				return &cached, nil
			}
		}
	}

	params := url.Values{}
	params.Set("wallet", address)
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	if opts.Cache {
		params.Set("cache", "true")
	}
	if opts.StaleSeconds > 0 {
		params.Set("stale", strconv.Itoa(opts.StaleSeconds))
	}
	if opts.FilterSpam {
		params.Set("filterSpam", "true")
	}
	if opts.MinLiquidity > 0 {
		params.Set("minliq", strconv.FormatFloat(opts.MinLiquidity, 'f', -1, 64))
	}
	if opts.PnL {
		params.Set("pnl", "true")
	}

	reqURL := fmt.Sprintf("%s/wallet/portfolio?%s", c.baseURL, params.Encode())
	c.log.Debug().Str("wallet", address).Msg("Fetching portfolio")

	portfolio, err := c.fetch(ctx, reqURL)
	if err != nil {
		// API failed - try stale cached data as fallback
		if stale, ok := c.getStaleFromCache(address); ok {
			c.log.Warn().Err(err).Str("wallet", address).Msg("API failed, using stale cached portfolio")
			return stale, nil
		}
		return nil, err
	}

	if opts.Cache && c.cacheRepo != nil {
		if err := c.cacheRepo.Store(cacheTable, address, portfolio, clientcache.TTLPortfolio); err != nil {
			c.log.Warn().Err(err).Str("wallet", address).Msg("Failed to cache portfolio")
		}
	}

	return portfolio, nil
}

func (c *Client) fetch(ctx context.Context, reqURL string) (*WalletPortfolio, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var env portfolioEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio response: %w", err)
	}

	portfolio := env.Data
	if portfolio.TotalPnLHistory == nil {
		portfolio.TotalPnLHistory = map[string]PnLBucket{}
	}
	if portfolio.Assets == nil {
		portfolio.Assets = []WalletAsset{}
	}

	return &portfolio, nil
}

func (c *Client) getStaleFromCache(address string) (*WalletPortfolio, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	data, err := c.cacheRepo.Get(cacheTable, address)
	if err != nil || data == nil {
		return nil, false
	}
	var cached WalletPortfolio
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	return &cached, true
}
