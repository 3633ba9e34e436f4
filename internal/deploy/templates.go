package deploy

import "github.com/zapdeck/zapdeck/internal/domain"

// Template is a one-click starting configuration. Applying one overwrites the
// whole draft; the attached wallet is preserved.
type Template struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Prompt string            `json:"prompt"`
	Config domain.SwapConfig `json:"config"`
}

// Templates returns the built-in deployment templates.
func Templates() []Template {
	return []Template{
		{
			ID:     "simple-swap",
			Name:   "Simple Swap",
			Prompt: "Swap USDC for ETH once when submitted",
			Config: domain.SwapConfig{
				OriginSymbol:          "USDC",
				DestinationSymbol:     "ETH",
				Amount:                "10",
				OriginBlockchain:      "base",
				DestinationBlockchain: "base",
				SlippageTolerance:     "0.5",
			},
		},
		{
			ID:     "hourly-dca",
			Name:   "Hourly DCA",
			Prompt: "Buy ETH with 5 USDC every hour",
			Config: domain.SwapConfig{
				OriginSymbol:          "USDC",
				DestinationSymbol:     "ETH",
				Amount:                "5",
				OriginBlockchain:      "base",
				DestinationBlockchain: "base",
				SlippageTolerance:     "1",
				Strategy:              "dca",
			},
		},
		{
			ID:     "cross-chain",
			Name:   "Cross-Chain Swap",
			Prompt: "Bridge USDC from Ethereum to Base and swap into ETH",
			Config: domain.SwapConfig{
				OriginSymbol:          "USDC",
				DestinationSymbol:     "ETH",
				Amount:                "25",
				OriginBlockchain:      "ethereum",
				DestinationBlockchain: "base",
				SlippageTolerance:     "1",
				CrossChain:            true,
			},
		},
		{
			ID:     "test-mode",
			Name:   "Test Run",
			Prompt: "Simulate buying ETH with 1 USDC every hour without executing",
			Config: domain.SwapConfig{
				OriginSymbol:          "USDC",
				DestinationSymbol:     "ETH",
				Amount:                "1",
				OriginBlockchain:      "base",
				DestinationBlockchain: "base",
				SlippageTolerance:     "0.5",
				IsTest:                true,
			},
		},
	}
}

// TemplateByID returns the template with the given id, or false.
func TemplateByID(id string) (Template, bool) {
	for _, tpl := range Templates() {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return Template{}, false
}
