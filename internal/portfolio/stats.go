package portfolio

import (
	"gonum.org/v1/gonum/stat"
)

// Summarize condenses a combined portfolio for list rows: totals per source,
// token count, top five tokens by value, and the set of networks seen.
func Summarize(p *EnhancedWalletPortfolio) Summary {
	top := p.AllTokens
	if len(top) > 5 {
		top = top[:5]
	}

	seen := map[string]bool{}
	var networks []string
	for _, b := range p.TheGraphBalances {
		if b.NetworkID != "" && !seen[b.NetworkID] {
			seen[b.NetworkID] = true
			networks = append(networks, b.NetworkID)
		}
	}

	return Summary{
		TotalValue:    p.CombinedTotalValue,
		MobulaValue:   p.TotalWalletBalance,
		TheGraphValue: p.TotalTheGraphValue,
		TokenCount:    len(p.AllTokens),
		TopTokens:     top,
		Networks:      networks,
	}
}

// Stats describes the shape of a portfolio's value distribution.
type Stats struct {
	MeanTokenValue   float64 `json:"meanTokenValue"`
	StdDevTokenValue float64 `json:"stdDevTokenValue"`
	// Concentration is the Herfindahl index of value shares: 1.0 means the
	// whole portfolio sits in a single token, 1/n means perfectly even.
	Concentration float64 `json:"concentration"`
}

// ComputeStats derives distribution statistics from the combined token list.
// Empty or zero-value portfolios yield zeroed stats.
func ComputeStats(p *EnhancedWalletPortfolio) Stats {
	if len(p.AllTokens) == 0 {
		return Stats{}
	}

	values := make([]float64, len(p.AllTokens))
	var total float64
	for i, tok := range p.AllTokens {
		values[i] = tok.Value
		total += tok.Value
	}

	s := Stats{
		MeanTokenValue: stat.Mean(values, nil),
	}
	if len(values) > 1 {
		s.StdDevTokenValue = stat.StdDev(values, nil)
	}

	if total > 0 {
		for _, v := range values {
			share := v / total
			s.Concentration += share * share
		}
	}

	return s
}
