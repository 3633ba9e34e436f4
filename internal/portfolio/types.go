// Package portfolio merges the two market-data sources into the unified
// per-wallet view the dashboard renders. The combiner is the only place in
// the system with a non-trivial merge policy.
package portfolio

import (
	"github.com/zapdeck/zapdeck/internal/clients/mobula"
	"github.com/zapdeck/zapdeck/internal/clients/tokenapi"
)

// TokenSource tags where a combined token's data came from.
type TokenSource string

const (
	SourceMobula   TokenSource = "mobula"
	SourceTheGraph TokenSource = "thegraph"
	SourceCombined TokenSource = "combined"
)

// CombinedToken is one row in the unified token list.
type CombinedToken struct {
	Symbol     string      `json:"symbol" msgpack:"symbol"`
	Name       string      `json:"name" msgpack:"name"`
	Balance    float64     `json:"balance" msgpack:"balance"`
	Value      float64     `json:"value" msgpack:"value"`
	Source     TokenSource `json:"source" msgpack:"source"`
	Logo       string      `json:"logo,omitempty" msgpack:"logo,omitempty"`
	Allocation float64     `json:"allocation,omitempty" msgpack:"allocation,omitempty"`
	Contract   string      `json:"contract,omitempty" msgpack:"contract,omitempty"`
	Network    string      `json:"network,omitempty" msgpack:"network,omitempty"`
}

// EnhancedWalletPortfolio is the unified per-wallet view built from both
// market-data sources. Absence of both sources yields a structurally valid,
// all-zero portfolio.
type EnhancedWalletPortfolio struct {
	// Source A data
	TotalWalletBalance float64                     `json:"total_wallet_balance" msgpack:"total_wallet_balance"`
	TotalPnLHistory    map[string]mobula.PnLBucket `json:"total_pnl_history" msgpack:"total_pnl_history"`
	Assets             []mobula.WalletAsset        `json:"assets" msgpack:"assets"`

	// Source B data
	TheGraphBalances   []tokenapi.TokenBalance `json:"theGraphBalances" msgpack:"the_graph_balances"`
	TotalTheGraphValue float64                 `json:"totalTheGraphValue" msgpack:"total_the_graph_value"`

	// Combined data
	CombinedTotalValue float64         `json:"combinedTotalValue" msgpack:"combined_total_value"`
	AllTokens          []CombinedToken `json:"allTokens" msgpack:"all_tokens"`
}

// Summary is the condensed portfolio readout for list rows and tooltips.
type Summary struct {
	TotalValue    float64         `json:"totalValue"`
	MobulaValue   float64         `json:"mobulaValue"`
	TheGraphValue float64         `json:"theGraphValue"`
	TokenCount    int             `json:"tokenCount"`
	TopTokens     []CombinedToken `json:"topTokens"`
	Networks      []string        `json:"networks"`
}
