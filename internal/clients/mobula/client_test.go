package mobula

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdeck/zapdeck/internal/clientcache"
)

const cacheSchema = `
CREATE TABLE mobula_portfolio (wallet TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE token_balances (wallet TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE portfolio_snapshots (wallet TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);
`

func newCacheRepo(t *testing.T) *clientcache.Repository {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(cacheSchema)
	require.NoError(t, err)
	return clientcache.NewRepository(db)
}

const portfolioBody = `{"data":{
	"total_wallet_balance": 1500.5,
	"wallets": ["0xabc"],
	"assets": [
		{"asset":{"id":1,"name":"Ether","symbol":"ETH","logo":"eth.png"},"estimated_balance":1000,"allocation":66.6},
		{"asset":{"id":2,"name":"USD Coin","symbol":"USDC"},"estimated_balance":500.5,"allocation":33.4}
	],
	"total_pnl_history": {"24h":{"realized":1,"unrealized":2},"7d":{"realized":3,"unrealized":4}}
}}`

func TestGetWalletPortfolio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/portfolio", r.URL.Path)
		assert.Equal(t, "0xabc", r.URL.Query().Get("wallet"))
		assert.Equal(t, "true", r.URL.Query().Get("filterSpam"))
		assert.Equal(t, "3600", r.URL.Query().Get("stale"))
		assert.Equal(t, "100", r.URL.Query().Get("minliq"))
		w.Write([]byte(portfolioBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", nil, zerolog.Nop())

	p, err := client.GetWalletPortfolio(context.Background(), "0xabc", DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 1500.5, p.TotalWalletBalance, 1e-9)
	require.Len(t, p.Assets, 2)
	assert.Equal(t, "ETH", p.Assets[0].Asset.Symbol)
	assert.InDelta(t, 2, p.TotalPnLHistory["24h"].Unrealized, 1e-9)
}

func TestGetWalletPortfolioNoHoldings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"total_wallet_balance":0}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", nil, zerolog.Nop())

	p, err := client.GetWalletPortfolio(context.Background(), "0xempty", DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, p.TotalWalletBalance)
	assert.NotNil(t, p.Assets)
	assert.Empty(t, p.Assets)
	assert.NotNil(t, p.TotalPnLHistory)
}

func TestGetWalletPortfolioCacheHitSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(portfolioBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", newCacheRepo(t), zerolog.Nop())

	_, err := client.GetWalletPortfolio(context.Background(), "0xabc", DefaultOptions())
	require.NoError(t, err)
	_, err = client.GetWalletPortfolio(context.Background(), "0xabc", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
}

func TestGetWalletPortfolioStaleFallback(t *testing.T) {
	repo := newCacheRepo(t)

	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(portfolioBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", repo, zerolog.Nop())

	// Prime the cache, then expire it by storing with a negative TTL.
	p, err := client.GetWalletPortfolio(context.Background(), "0xabc", DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, repo.Store("mobula_portfolio", "0xabc", p, -1))

	fail.Store(true)

	got, err := client.GetWalletPortfolio(context.Background(), "0xabc", DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 1500.5, got.TotalWalletBalance, 1e-9)
}

func TestGetWalletPortfolioErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", nil, zerolog.Nop())

	_, err := client.GetWalletPortfolio(context.Background(), "0xabc", DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
