// Package botapi provides a thin client for the external bot-execution
// backend. The backend owns all scheduling and chain interaction; this client
// only does request shaping, envelope decoding, and error surfacing.
package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapdeck/zapdeck/internal/domain"
)

// Client for the bot-execution backend REST API
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new bot backend client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("client", "botapi").Logger(),
	}
}

// envelope is the response wrapper every list/get endpoint uses.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
}

// do performs a request and returns the raw body. Non-2xx responses become an
// *APIError carrying the status code and the raw body - there is no finer
// taxonomy, the UI renders the message and offers a manual retry.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("method", method).Str("path", path).Msg("Request")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// decodeAgentList unwraps the envelope and decodes the agent list. A null or
// absent data field yields an empty slice - callers never receive nil. A data
// field that is not an array is a *DecodeError; the deliberate empty-collection
// fallback for that case lives in the agents service, not here.
func (c *Client) decodeAgentList(body []byte) ([]domain.Agent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Reason: "response is not a valid envelope", Err: err}
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return []domain.Agent{}, nil
	}

	var agents []domain.Agent
	if err := json.Unmarshal(env.Data, &agents); err != nil {
		return nil, &DecodeError{Reason: "data field is not an agent list", Err: err}
	}
	if agents == nil {
		agents = []domain.Agent{}
	}
	return agents, nil
}

// decodeAgent unwraps the envelope around a single agent. Endpoints that
// return the agent directly (create, activate, deactivate) fall back to
// decoding the body itself when no envelope is present.
func (c *Client) decodeAgent(body []byte) (*domain.Agent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		var agent domain.Agent
		if err := json.Unmarshal(env.Data, &agent); err != nil {
			return nil, &DecodeError{Reason: "data field is not an agent", Err: err}
		}
		return &agent, nil
	}

	var agent domain.Agent
	if err := json.Unmarshal(body, &agent); err != nil {
		return nil, &DecodeError{Reason: "response is not an agent", Err: err}
	}
	return &agent, nil
}

// Create deploys a new agent on the execution backend
func (c *Client) Create(ctx context.Context, req domain.CreateAgentRequest) (*domain.Agent, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/bots", req)
	if err != nil {
		return nil, err
	}
	return c.decodeAgent(body)
}

// List returns all agents
func (c *Client) List(ctx context.Context) ([]domain.Agent, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/bots", nil)
	if err != nil {
		return nil, err
	}
	return c.decodeAgentList(body)
}

// GetByID returns a single agent
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/bots/"+id, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeAgent(body)
}

// ListByUser returns the agents owned by a wallet
func (c *Client) ListByUser(ctx context.Context, wallet string) ([]domain.Agent, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/bots/user/"+wallet, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeAgentList(body)
}

// ListActive returns only active agents
func (c *Client) ListActive(ctx context.Context) ([]domain.Agent, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/bots/status/active", nil)
	if err != nil {
		return nil, err
	}
	return c.decodeAgentList(body)
}

// Activate starts an agent. Calling it twice is harmless; exactly-once
// semantics, if any, belong to the backend.
func (c *Client) Activate(ctx context.Context, id string) (*domain.Agent, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/bots/"+id+"/activate", nil)
	if err != nil {
		return nil, err
	}
	return c.decodeAgent(body)
}

// Deactivate stops an agent
func (c *Client) Deactivate(ctx context.Context, id string) (*domain.Agent, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/bots/"+id+"/deactivate", nil)
	if err != nil {
		return nil, err
	}
	return c.decodeAgent(body)
}

// Delete removes an agent
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/bots/"+id, nil)
	return err
}

// GetLogs returns the execution logs for an agent
func (c *Client) GetLogs(ctx context.Context, id string) ([]domain.AgentLog, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/bots/"+id+"/logs", nil)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Reason: "response is not a valid envelope", Err: err}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return []domain.AgentLog{}, nil
	}

	var logs []domain.AgentLog
	if err := json.Unmarshal(env.Data, &logs); err != nil {
		return nil, &DecodeError{Reason: "data field is not a log list", Err: err}
	}
	if logs == nil {
		logs = []domain.AgentLog{}
	}
	return logs, nil
}

// Health pings the backend health endpoint
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	return err
}

// Info returns the backend's self-description payload
func (c *Client) Info(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/info", nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}
