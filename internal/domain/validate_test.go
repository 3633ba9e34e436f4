package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() SwapConfig {
	return SwapConfig{
		SenderAddress:         "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		SenderPrivateKey:      "0x0123",
		RecipientAddress:      "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		OriginSymbol:          "USDC",
		DestinationSymbol:     "CAMP",
		Amount:                "5",
		OriginBlockchain:      "base",
		DestinationBlockchain: "base",
		SlippageTolerance:     "0.5",
	}
}

func TestSwapConfigValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestSwapConfigValidateBadAddress(t *testing.T) {
	cfg := validConfig()
	cfg.SenderAddress = "not-an-address"

	err := cfg.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "senderAddress", verr.Field)
}

func TestSwapConfigValidateAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		ok     bool
	}{
		{"positive decimal", "5.25", true},
		{"integer", "100", true},
		{"zero", "0", false},
		{"negative", "-1", false},
		{"not a number", "five", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Amount = tt.amount
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSwapConfigValidateMissingSymbol(t *testing.T) {
	cfg := validConfig()
	cfg.DestinationSymbol = "  "
	require.Error(t, cfg.Validate())
}

func TestCreateAgentRequestValidate(t *testing.T) {
	req := CreateAgentRequest{
		Name:       "Bot1",
		Prompt:     "buy CAMP with USDC hourly",
		SwapConfig: validConfig(),
	}
	require.NoError(t, req.Validate())

	req.Name = ""
	require.Error(t, req.Validate())
}
