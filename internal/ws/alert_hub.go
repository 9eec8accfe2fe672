package ws

import (
	"encoding/json"
	"sync"
)

// Client is a single operator websocket connection subscribed to the
// reconciliation alert feed.
type Client struct {
	Send   chan []byte
	hub    *AlertHub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// AlertHub fans reconciliation alerts out to connected operator consoles.
// Delivery is best-effort: the durable queue is the alerts table, the feed
// only saves operators a refresh.
type AlertHub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewAlertHub() *AlertHub {
	return &AlertHub{clients: make(map[*Client]struct{})}
}

func (h *AlertHub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	h.clients[c] = struct{}{}
}

func (h *AlertHub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *AlertHub) Broadcast(payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *AlertHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
