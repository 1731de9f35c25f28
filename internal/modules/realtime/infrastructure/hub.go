package infrastructure

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Hub tracks the open client connections. Besides fan-in of commands it feeds
// the idle watchdog: every attach and every routed command bumps the
// last-activity timestamp, and the watchdog only shuts down when the
// connection count is zero.
type Hub struct {
	mu           sync.RWMutex
	clients      map[*Client]struct{}
	lastActivity atomic.Int64
}

func NewHub() *Hub {
	h := &Hub{clients: make(map[*Client]struct{})}
	h.Touch()
	return h
}

// Touch records inbound activity for the idle watchdog.
func (h *Hub) Touch() {
	h.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity returns the time of the most recent command or connection.
func (h *Hub) LastActivity() time.Time {
	return time.Unix(0, h.lastActivity.Load())
}

// ConnectionCount returns the number of attached clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// AttachClient registers the connection and counts it as activity.
func (h *Hub) AttachClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.Touch()
	slog.Info("client attached", slog.String("userId", c.identity.UserID), slog.String("role", string(c.identity.Role)))
}

// DetachClient removes and closes the connection.
func (h *Hub) DetachClient(c *Client) {
	h.mu.Lock()
	_, known := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !known {
		return
	}
	c.close()
	slog.Info("client detached", slog.String("userId", c.identity.UserID))
}

// CloseAll detaches every client during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
