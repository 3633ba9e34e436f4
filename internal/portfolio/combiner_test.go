package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdeck/zapdeck/internal/clients/mobula"
	"github.com/zapdeck/zapdeck/internal/clients/tokenapi"
)

func mobulaPortfolio(total float64, assets ...mobula.WalletAsset) *mobula.WalletPortfolio {
	return &mobula.WalletPortfolio{
		TotalWalletBalance: total,
		Assets:             assets,
		TotalPnLHistory: map[string]mobula.PnLBucket{
			"24h": {Realized: 1, Unrealized: -2},
		},
	}
}

func mobulaAsset(symbol, name string, usd float64) mobula.WalletAsset {
	return mobula.WalletAsset{
		Asset:            mobula.AssetInfo{Symbol: symbol, Name: name},
		EstimatedBalance: usd,
		Allocation:       10,
	}
}

func graphBalance(symbol string, value float64, amount string, decimals int) tokenapi.TokenBalance {
	return tokenapi.TokenBalance{
		Contract:  "0xc0ffee",
		Amount:    amount,
		Value:     value,
		Name:      symbol + " Token",
		Symbol:    symbol,
		Decimals:  decimals,
		NetworkID: "mainnet",
	}
}

func TestCombineBothSourcesEmpty(t *testing.T) {
	p := Combine(nil, nil)

	require.NotNil(t, p)
	assert.Zero(t, p.CombinedTotalValue)
	assert.NotNil(t, p.AllTokens)
	assert.Empty(t, p.AllTokens)
	assert.NotNil(t, p.Assets)
	assert.NotNil(t, p.TheGraphBalances)
	assert.NotNil(t, p.TotalPnLHistory)
}

func TestCombineMobulaOnly(t *testing.T) {
	p := Combine(mobulaPortfolio(1000, mobulaAsset("ETH", "Ether", 800), mobulaAsset("USDC", "USD Coin", 200)), nil)

	assert.InDelta(t, 1000, p.CombinedTotalValue, 1e-9)
	require.Len(t, p.AllTokens, 2)
	for _, tok := range p.AllTokens {
		assert.Equal(t, SourceMobula, tok.Source)
	}
}

func TestCombineTheGraphOnly(t *testing.T) {
	p := Combine(nil, []tokenapi.TokenBalance{graphBalance("USDC", 2.5, "2500000", 6)})

	assert.InDelta(t, 2.5, p.CombinedTotalValue, 1e-9)
	require.Len(t, p.AllTokens, 1)
	tok := p.AllTokens[0]
	assert.Equal(t, SourceTheGraph, tok.Source)
	assert.InDelta(t, 2.5, tok.Balance, 1e-9) // 2500000 / 10^6
	assert.Equal(t, "0xc0ffee", tok.Contract)
	assert.Equal(t, "mainnet", tok.Network)
}

func TestCombineCollisionTakesMaxNotSum(t *testing.T) {
	p := Combine(
		mobulaPortfolio(100, mobulaAsset("USDC", "USD Coin", 100)),
		[]tokenapi.TokenBalance{graphBalance("usdc", 150, "150000000", 6)},
	)

	require.Len(t, p.AllTokens, 1)
	tok := p.AllTokens[0]
	assert.Equal(t, SourceCombined, tok.Source)
	assert.InDelta(t, 150, tok.Value, 1e-9) // max(100, 150), not 250
	assert.InDelta(t, 150, tok.Balance, 1e-9)
	assert.Equal(t, "0xc0ffee", tok.Contract)

	// Totals still sum both sources unconditionally.
	assert.InDelta(t, 250, p.CombinedTotalValue, 1e-9)
}

func TestCombineCollisionKeepsLargerExistingValue(t *testing.T) {
	p := Combine(
		mobulaPortfolio(500, mobulaAsset("ETH", "Ether", 500)),
		[]tokenapi.TokenBalance{graphBalance("eth", 300, "1000000000000000000", 18)},
	)

	require.Len(t, p.AllTokens, 1)
	assert.Equal(t, SourceCombined, p.AllTokens[0].Source)
	assert.InDelta(t, 500, p.AllTokens[0].Value, 1e-9)
}

func TestCombineSortsDescendingByValue(t *testing.T) {
	p := Combine(
		mobulaPortfolio(0, mobulaAsset("LOW", "Low", 10), mobulaAsset("HIGH", "High", 900)),
		[]tokenapi.TokenBalance{graphBalance("MID", 400, "400", 0)},
	)

	require.Len(t, p.AllTokens, 3)
	assert.Equal(t, "HIGH", p.AllTokens[0].Symbol)
	assert.Equal(t, "MID", p.AllTokens[1].Symbol)
	assert.Equal(t, "LOW", p.AllTokens[2].Symbol)
}

func TestCombineTotalTheGraphValueSumsAllNetworks(t *testing.T) {
	balances := []tokenapi.TokenBalance{
		graphBalance("A", 1, "1", 0),
		graphBalance("B", 2, "2", 0),
		graphBalance("C", 3, "3", 0),
	}

	p := Combine(mobulaPortfolio(10), balances)
	assert.InDelta(t, 6, p.TotalTheGraphValue, 1e-9)
	assert.InDelta(t, 16, p.CombinedTotalValue, 1e-9)
}

func TestScaleAmountBadInput(t *testing.T) {
	assert.Zero(t, scaleAmount("not-a-number", 6))
	assert.InDelta(t, 1.5, scaleAmount("1500000", 6), 1e-9)
}
