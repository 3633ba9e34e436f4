package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// StreamEvent is one message pushed to connected dashboards.
type StreamEvent struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	// writeTimeout bounds one frame write; a stalled client gets dropped
	// rather than blocking the broadcast loop.
	writeTimeout = 5 * time.Second

	// clientBuffer is the per-client event queue. Overflow drops the client.
	clientBuffer = 32
)

type streamClient struct {
	events chan StreamEvent
	done   chan struct{}
}

// Hub broadcasts refresh events to every connected dashboard over WebSocket.
// The frontend uses these as cheap invalidation hints and re-fetches over
// REST; events carry counts, never full payloads.
type Hub struct {
	log zerolog.Logger

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
}

// NewHub creates the broadcast hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:     log.With().Str("component", "stream").Logger(),
		clients: make(map[*streamClient]struct{}),
	}
}

// Broadcast queues an event for every connected client. Clients that cannot
// keep up are disconnected.
func (h *Hub) Broadcast(event string, payload interface{}) {
	msg := StreamEvent{Event: event, Payload: payload, Timestamp: time.Now().UTC()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.events <- msg:
		default:
			h.log.Warn().Str("event", event).Msg("Dropping slow stream client")
			close(c.done)
			delete(h.clients, c)
		}
	}
}

// ServeHTTP handles GET /api/stream
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The dashboard may be served from a different origin in dev.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}

	c := &streamClient{
		events: make(chan StreamEvent, clientBuffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Int("clients", count).Msg("Stream client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
		h.log.Info().Msg("Stream client disconnected")
	}()

	// Reads are discarded but keep ping/pong and close frames flowing.
	readCtx, cancelRead := context.WithCancel(r.Context())
	defer cancelRead()
	go func() {
		for {
			if _, _, err := conn.Read(readCtx); err != nil {
				cancelRead()
				return
			}
		}
	}()

	for {
		select {
		case <-readCtx.Done():
			return
		case <-c.done:
			return
		case msg := <-c.events:
			writeCtx, cancel := context.WithTimeout(readCtx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// CloseAll disconnects every client; used during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.done)
		delete(h.clients, c)
	}
}

// ClientCount returns the number of connected stream clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
