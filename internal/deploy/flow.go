// Package deploy implements the agent deployment flow as an explicit state
// machine: NoWallet -> WalletReady -> Configuring -> ReadyToDeploy -> Deployed.
package deploy

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zapdeck/zapdeck/internal/domain"
	"github.com/zapdeck/zapdeck/internal/wallet"
)

// State is one step of the deployment flow.
type State string

const (
	StateNoWallet      State = "no_wallet"
	StateWalletReady   State = "wallet_ready"
	StateConfiguring   State = "configuring"
	StateReadyToDeploy State = "ready_to_deploy"

	// StateDeployed is transient: it appears in a successful Submit
	// response while the flow itself resets to StateNoWallet.
	StateDeployed State = "deployed"
)

// Creator is the backend surface the flow submits to.
type Creator interface {
	Create(ctx context.Context, req domain.CreateAgentRequest) (*domain.Agent, error)
}

// PromptReviewer provides optional advisory feedback on the instruction.
type PromptReviewer interface {
	Review(ctx context.Context, instruction string) string
}

// Draft is the editable deployment form.
type Draft struct {
	Name   string            `json:"name"`
	Prompt string            `json:"prompt"`
	Config domain.SwapConfig `json:"config"`
}

// Result is what a successful deploy returns to the caller.
type Result struct {
	Agent          *domain.Agent `json:"agent"`
	PromptFeedback string        `json:"promptFeedback,omitempty"`
}

// Flow holds one user's in-progress deployment. It is safe for concurrent
// use; all state lives behind the mutex and resets atomically on success.
type Flow struct {
	creator  Creator
	reviewer PromptReviewer
	log      zerolog.Logger

	mu        sync.Mutex
	draft     Draft
	wallet    *domain.WalletInfo
	lastError string
}

// NewFlow creates an empty deployment flow.
func NewFlow(creator Creator, reviewer PromptReviewer, log zerolog.Logger) *Flow {
	return &Flow{
		creator:  creator,
		reviewer: reviewer,
		log:      log.With().Str("service", "deploy").Logger(),
	}
}

// State derives the current step from what the flow holds. The form is gated
// purely on field presence; there is no semantic validation against balances.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

// stateLocked derives the wizard position from the draft alone. "deployed"
// is not derivable here: a successful submit resets the flow, so it is
// reported once in the Submit result and the flow lands back at no_wallet.
func (f *Flow) stateLocked() State {
	switch {
	case f.wallet == nil:
		return StateNoWallet
	case f.readyLocked():
		return StateReadyToDeploy
	case f.draft.Name != "" || f.draft.Prompt != "" || f.draft.Config.Amount != "":
		return StateConfiguring
	default:
		return StateWalletReady
	}
}

func (f *Flow) readyLocked() bool {
	return strings.TrimSpace(f.draft.Name) != "" &&
		strings.TrimSpace(f.draft.Prompt) != "" &&
		strings.TrimSpace(f.draft.Config.Amount) != ""
}

// GenerateWallet creates a fresh keypair and moves the flow to WalletReady.
func (f *Flow) GenerateWallet() (*domain.WalletInfo, error) {
	w, err := wallet.Generate()
	if err != nil {
		f.setError(err.Error())
		return nil, err
	}
	f.setWallet(w)
	return w, nil
}

// ImportWallet derives a keypair from a private key or mnemonic and moves the
// flow to WalletReady.
func (f *Flow) ImportWallet(secret string) (*domain.WalletInfo, error) {
	w, err := wallet.Import(secret)
	if err != nil {
		f.setError(err.Error())
		return nil, err
	}
	f.setWallet(w)
	return w, nil
}

func (f *Flow) setWallet(w *domain.WalletInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wallet = w
	f.lastError = ""
	f.draft.Config.SenderAddress = w.Address
	f.draft.Config.SenderPrivateKey = w.PrivateKey
}

// Wallet returns the current keypair, or nil before generation/import.
func (f *Flow) Wallet() *domain.WalletInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wallet
}

// Draft returns a copy of the current form.
func (f *Flow) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// SetName updates the agent display name.
func (f *Flow) SetName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Name = name
}

// SetPrompt updates the natural-language trading instruction.
func (f *Flow) SetPrompt(prompt string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Prompt = prompt
}

// UpdateConfig merges the editable swap parameters into the draft. Sender
// address and key always come from the attached wallet, not the caller.
func (f *Flow) UpdateConfig(cfg domain.SwapConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sender, key := f.draft.Config.SenderAddress, f.draft.Config.SenderPrivateKey
	f.draft.Config = cfg
	f.draft.Config.SenderAddress = sender
	f.draft.Config.SenderPrivateKey = key
}

// ApplyTemplate overwrites the whole configuration object in one step.
func (f *Flow) ApplyTemplate(tpl Template) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sender, key := f.draft.Config.SenderAddress, f.draft.Config.SenderPrivateKey
	f.draft.Name = tpl.Name
	f.draft.Prompt = tpl.Prompt
	f.draft.Config = tpl.Config
	f.draft.Config.SenderAddress = sender
	f.draft.Config.SenderPrivateKey = key
}

// LastError returns the inline error from the most recent failed step.
func (f *Flow) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastError
}

func (f *Flow) setError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastError = msg
}

// Submit deploys the draft. Deployment is all-or-nothing: on success the whole
// flow resets to its initial empty state, discarding the wallet's private key
// from memory (it has already been transmitted in the request body). On
// failure the draft survives and the error is recorded inline.
func (f *Flow) Submit(ctx context.Context, userWallet string) (*Result, error) {
	f.mu.Lock()
	if f.wallet == nil || !f.readyLocked() {
		f.lastError = "name, prompt and amount are required"
		f.mu.Unlock()
		return nil, &domain.ValidationError{Field: "form", Reason: f.lastError}
	}
	req := domain.CreateAgentRequest{
		Name:       f.draft.Name,
		Prompt:     f.draft.Prompt,
		SwapConfig: f.draft.Config,
		UserWallet: userWallet,
	}
	instruction := f.draft.Prompt
	f.mu.Unlock()

	if err := req.Validate(); err != nil {
		f.setError(err.Error())
		return nil, err
	}

	agent, err := f.creator.Create(ctx, req)
	if err != nil {
		f.log.Warn().Err(err).Str("name", req.Name).Msg("Deploy failed")
		f.setError(err.Error())
		return nil, err
	}

	var feedback string
	if f.reviewer != nil {
		feedback = f.reviewer.Review(ctx, instruction)
	}

	f.mu.Lock()
	f.draft = Draft{}
	f.wallet = nil
	f.lastError = ""
	f.mu.Unlock()

	f.log.Info().Str("agent", agent.ID).Msg("Agent deployed")

	return &Result{Agent: agent, PromptFeedback: feedback}, nil
}

// Reset returns the flow to its initial empty state.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = Draft{}
	f.wallet = nil
	f.lastError = ""
}
