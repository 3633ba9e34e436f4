package mobula

// PnLBucket holds the realized/unrealized PnL components for one time window.
type PnLBucket struct {
	Realized   float64 `json:"realized"`
	Unrealized float64 `json:"unrealized"`
}

// AssetInfo identifies a token within the aggregated portfolio response.
type AssetInfo struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Logo   string `json:"logo,omitempty"`
}

// WalletAsset is one holding in the aggregated portfolio. EstimatedBalance is
// denominated in USD, not token units.
type WalletAsset struct {
	Asset            AssetInfo `json:"asset"`
	EstimatedBalance float64   `json:"estimated_balance"`
	TokenBalance     float64   `json:"token_balance"`
	Price            float64   `json:"price"`
	Allocation       float64   `json:"allocation"`
	RealizedPnL      float64   `json:"realized_pnl"`
	UnrealizedPnL    float64   `json:"unrealized_pnl"`
}

// WalletPortfolio is the aggregated portfolio for one wallet address.
// A wallet with no holdings yields the zero value, never an error.
type WalletPortfolio struct {
	TotalWalletBalance float64              `json:"total_wallet_balance"`
	Wallets            []string             `json:"wallets"`
	Assets             []WalletAsset        `json:"assets"`
	TotalRealizedPnL   float64              `json:"total_realized_pnl"`
	TotalUnrealizedPnL float64              `json:"total_unrealized_pnl"`
	TotalPnLHistory    map[string]PnLBucket `json:"total_pnl_history"` // keyed 24h/7d/30d/1y
	BalancesLength     int                  `json:"balances_length"`
}

// portfolioEnvelope wraps the portfolio payload in the API response.
type portfolioEnvelope struct {
	Data WalletPortfolio `json:"data"`
}
