package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"estatehub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// Max total catalog connections.
const maxTotalConns = 10000

// ErrHubFull is returned when the connection limit is reached.
var ErrHubFull = errors.New("server connection limit reached")

// ErrHubClosed is returned when registering after Shutdown.
var ErrHubClosed = errors.New("hub is shut down")

// CatalogChanged is pushed to every client after the catalog snapshot is replaced.
type CatalogChanged struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Hub fans catalog change notices out to connected websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register adds a connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) (*Client, error) {
	client := NewClient(h, conn)
	if err := h.add(client); err != nil {
		return nil, err
	}
	return client, nil
}

func (h *Hub) add(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	if len(h.clients) >= maxTotalConns {
		return ErrHubFull
	}
	h.clients[client] = struct{}{}
	observability.ActiveWebSockets.Inc()
	return nil
}

// Unregister removes a client and closes its send channel. It is idempotent.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	observability.ActiveWebSockets.Dec()
}

// Len reports the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.TrySend(message)
	}
}

// NotifyCatalogChanged tells clients the catalog now holds count listings.
func (h *Hub) NotifyCatalogChanged(count int) {
	payload, err := json.Marshal(CatalogChanged{Type: "catalog_changed", Count: count})
	if err != nil {
		return
	}
	h.BroadcastAll(payload)
}

// Shutdown closes every client's send channel; write pumps then send a close frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for c := range h.clients {
		close(c.Send)
		observability.ActiveWebSockets.Dec()
	}
	h.clients = make(map[*Client]struct{})
	return nil
}
