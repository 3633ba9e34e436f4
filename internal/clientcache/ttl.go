package clientcache

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLPortfolio - aggregated portfolio data; the SPA passed stale=3600 to
	// the original market-data API, so an hour matches observed behavior.
	TTLPortfolio = time.Hour

	// TTLBalances - raw per-network token balances change with every block,
	// but the dashboard only repaints every refresh tick.
	TTLBalances = 15 * time.Minute

	// TTLSnapshot - combined portfolio snapshots used for instant paint.
	// Kept long; a snapshot is always better than an empty dashboard.
	TTLSnapshot = 7 * 24 * time.Hour
)
