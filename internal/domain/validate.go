package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ValidationError describes a single field that failed boundary validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate enforces the swap configuration invariants at the system boundary:
// the sender must be a valid EVM address and the amount must parse as a
// positive decimal. Remaining required fields only need to be present.
func (c *SwapConfig) Validate() error {
	if !common.IsHexAddress(c.SenderAddress) {
		return &ValidationError{Field: "senderAddress", Reason: "not a valid EVM address"}
	}
	if c.RecipientAddress != "" && !common.IsHexAddress(c.RecipientAddress) {
		return &ValidationError{Field: "recipientAddress", Reason: "not a valid EVM address"}
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(c.Amount))
	if err != nil {
		return &ValidationError{Field: "amount", Reason: "not a decimal number"}
	}
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	for field, value := range map[string]string{
		"originSymbol":          c.OriginSymbol,
		"destinationSymbol":     c.DestinationSymbol,
		"originBlockchain":      c.OriginBlockchain,
		"destinationBlockchain": c.DestinationBlockchain,
	} {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Reason: "required"}
		}
	}

	return nil
}

// Validate checks the create request: name, prompt and a valid swap
// configuration are required before a deploy may reach the network.
func (r *CreateAgentRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return &ValidationError{Field: "prompt", Reason: "required"}
	}
	return r.SwapConfig.Validate()
}
