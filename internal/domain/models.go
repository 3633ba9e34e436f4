// Package domain defines the core data model shared across zapdeck: agents,
// their swap configuration, execution logs, and wallet material.
// The domain layer is pure - no HTTP, no SQL, no external SDKs beyond
// validation helpers.
package domain

import (
	"encoding/json"
	"time"
)

// Agent is a deployed trading agent: a wallet paired with a natural-language
// trading instruction and a swap configuration. The external execution backend
// is the source of truth; the dashboard always re-fetches after mutations.
type Agent struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prompt     string     `json:"prompt"`
	SwapConfig SwapConfig `json:"swapConfig"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	UserWallet string     `json:"userWallet"`
}

// SwapConfig holds the structured parameters for one trading pair/operation.
// Required and optional fields are enumerated explicitly; Validate enforces the
// boundary rules before anything is sent to the backend.
type SwapConfig struct {
	// Required
	SenderAddress         string `json:"senderAddress"`
	SenderPrivateKey      string `json:"senderPrivateKey"`
	RecipientAddress      string `json:"recipientAddress"`
	OriginSymbol          string `json:"originSymbol"`
	DestinationSymbol     string `json:"destinationSymbol"`
	Amount                string `json:"amount"` // decimal string, must be positive
	OriginBlockchain      string `json:"originBlockchain"`
	DestinationBlockchain string `json:"destinationBlockchain"`
	SlippageTolerance     string `json:"slippageTolerance"`

	// Optional
	CrossChain bool   `json:"crossChain,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
	IsTest     bool   `json:"isTest,omitempty"`
}

// CreateAgentRequest is the payload sent to the execution backend when
// deploying a new agent.
type CreateAgentRequest struct {
	Name       string     `json:"name"`
	Prompt     string     `json:"prompt"`
	SwapConfig SwapConfig `json:"swapConfig"`
	UserWallet string     `json:"userWallet,omitempty"`
}

// AgentLog is one execution log line for an agent, fetched on demand.
// Level is free text from the backend (info/warn/error/success).
type AgentLog struct {
	ID        string          `json:"id"`
	BotID     string          `json:"botId"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// WalletInfo is an ephemeral client-generated keypair. It exists only in
// memory until deploy, where it is embedded into the create request. It is
// never persisted on its own.
type WalletInfo struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
	Mnemonic   string `json:"mnemonic"`
}

// User is an authenticated dashboard user, keyed by their login wallet.
type User struct {
	ID        int64     `json:"id"`
	Wallet    string    `json:"wallet"`
	CreatedAt time.Time `json:"createdAt"`
}
