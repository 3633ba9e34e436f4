package portfolio

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/zapdeck/zapdeck/internal/clients/mobula"
	"github.com/zapdeck/zapdeck/internal/clients/tokenapi"
)

// Combine builds the unified portfolio from both sources. Either argument may
// be nil/empty; the result is always structurally valid and never an error.
//
// Merge policy: tokens are keyed by lower-cased symbol. Source A inserts
// first; a source-B balance for an existing symbol marks the row "combined"
// and takes max(value) rather than summing, on the assumption that both
// sources saw the same holding. The top-level CombinedTotalValue intentionally
// tracks the raw source sums instead, matching the numbers users of the
// original dashboard saw.
func Combine(mobulaData *mobula.WalletPortfolio, balances []tokenapi.TokenBalance) *EnhancedWalletPortfolio {
	result := &EnhancedWalletPortfolio{
		TotalPnLHistory:  map[string]mobula.PnLBucket{},
		Assets:           []mobula.WalletAsset{},
		TheGraphBalances: []tokenapi.TokenBalance{},
		AllTokens:        []CombinedToken{},
	}

	if mobulaData != nil {
		result.TotalWalletBalance = mobulaData.TotalWalletBalance
		if mobulaData.TotalPnLHistory != nil {
			result.TotalPnLHistory = mobulaData.TotalPnLHistory
		}
		if mobulaData.Assets != nil {
			result.Assets = mobulaData.Assets
		}
	}

	if balances != nil {
		result.TheGraphBalances = balances
	}
	for _, b := range result.TheGraphBalances {
		result.TotalTheGraphValue += b.Value
	}

	result.CombinedTotalValue = result.TotalWalletBalance + result.TotalTheGraphValue

	// Token map keyed by lower-cased symbol; insertion order is preserved so
	// equal-value tokens sort deterministically.
	tokenMap := make(map[string]*CombinedToken)
	var order []string

	for _, asset := range result.Assets {
		key := strings.ToLower(asset.Asset.Symbol)
		tokenMap[key] = &CombinedToken{
			Symbol:     asset.Asset.Symbol,
			Name:       asset.Asset.Name,
			Balance:    asset.EstimatedBalance,
			Value:      asset.EstimatedBalance, // source A balances are already USD
			Source:     SourceMobula,
			Logo:       asset.Asset.Logo,
			Allocation: asset.Allocation,
		}
		order = append(order, key)
	}

	for _, b := range result.TheGraphBalances {
		key := strings.ToLower(b.Symbol)
		if existing, ok := tokenMap[key]; ok {
			existing.Source = SourceCombined
			existing.Value = math.Max(existing.Value, b.Value)
			existing.Balance = math.Max(existing.Balance, b.Value)
			existing.Contract = b.Contract
			existing.Network = b.NetworkID
			continue
		}

		tokenMap[key] = &CombinedToken{
			Symbol:   b.Symbol,
			Name:     b.Name,
			Balance:  scaleAmount(b.Amount, b.Decimals),
			Value:    b.Value,
			Source:   SourceTheGraph,
			Contract: b.Contract,
			Network:  b.NetworkID,
		}
		order = append(order, key)
	}

	tokens := make([]CombinedToken, 0, len(order))
	for _, key := range order {
		tokens = append(tokens, *tokenMap[key])
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Value > tokens[j].Value
	})
	result.AllTokens = tokens

	return result
}

// scaleAmount converts a raw on-chain amount string to token units.
// Unparseable amounts scale to zero rather than erroring; the USD value field
// is what the dashboard actually ranks by.
func scaleAmount(amount string, decimals int) float64 {
	raw, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0
	}
	return raw / math.Pow(10, float64(decimals))
}
