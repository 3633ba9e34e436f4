package botapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdeck/zapdeck/internal/domain"
)

func agentRequest() domain.CreateAgentRequest {
	return domain.CreateAgentRequest{
		Name:   "Bot1",
		Prompt: "buy CAMP with USDC hourly",
		SwapConfig: domain.SwapConfig{
			SenderAddress:         "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
			OriginSymbol:          "USDC",
			DestinationSymbol:     "CAMP",
			Amount:                "5",
			OriginBlockchain:      "base",
			DestinationBlockchain: "base",
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, zerolog.Nop())
}

func TestListUnwrapsEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bots", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"b1","name":"Bot1","isActive":true}],"success":true,"message":"ok"}`))
	})

	agents, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "b1", agents[0].ID)
	assert.True(t, agents[0].IsActive)
}

func TestListNullDataReturnsEmptySlice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null,"success":false,"message":"x"}`))
	})

	agents, err := client.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, agents)
	assert.Empty(t, agents)
}

func TestListNonArrayDataIsDecodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"oops":true},"success":true,"message":""}`))
	})

	_, err := client.List(context.Background())
	require.Error(t, err)

	var derr *DecodeError
	assert.ErrorAs(t, err, &derr)
}

func TestNon2xxIsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("backend exploded"))
	})

	_, err := client.List(context.Background())
	require.Error(t, err)

	var aerr *APIError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, http.StatusInternalServerError, aerr.Status)
	assert.Contains(t, aerr.Body, "backend exploded")
}

func TestCreateDecodesDirectAgent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/bots", r.URL.Path)
		w.Write([]byte(`{"id":"b2","name":"Bot2","isActive":false}`))
	})

	agent, err := client.Create(context.Background(), agentRequest())
	require.NoError(t, err)
	assert.Equal(t, "b2", agent.ID)
}

func TestCreateDecodesEnvelopedAgent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":"b3","name":"Bot3"},"success":true,"message":"created"}`))
	})

	agent, err := client.Create(context.Background(), agentRequest())
	require.NoError(t, err)
	assert.Equal(t, "b3", agent.ID)
}

func TestGetLogsNullDataReturnsEmptySlice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bots/b1/logs", r.URL.Path)
		w.Write([]byte(`{"data":null,"success":true,"message":""}`))
	})

	logs, err := client.GetLogs(context.Background(), "b1")
	require.NoError(t, err)
	require.NotNil(t, logs)
	assert.Empty(t, logs)
}

func TestDeleteUsesDeleteMethod(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/bots/b1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Delete(context.Background(), "b1"))
}

func TestListByUserHitsUserPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bots/user/0xabc", r.URL.Path)
		w.Write([]byte(`{"data":[],"success":true,"message":""}`))
	})

	agents, err := client.ListByUser(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Empty(t, agents)
}
