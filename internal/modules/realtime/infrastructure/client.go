package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mesaYaCore/internal/shared/auth"
)

// Client is one staff or guest console connection. Each client runs its own
// read pump, so requests from different connections execute concurrently
// against the shared engine.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	router   *Router
	identity auth.Identity

	// sendMu orders queued replies against close so nothing sends on a
	// closed channel.
	sendMu    sync.Mutex
	send      chan []byte
	closed    bool
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, router *Router, identity auth.Identity, buf int) *Client {
	if buf <= 0 {
		buf = 8
	}
	return &Client{
		hub:      hub,
		conn:     conn,
		router:   router,
		identity: identity,
		send:     make(chan []byte, buf),
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// SendReply queues a reply, detaching the client when its buffer is stuck.
// Replies to an already-closed client are dropped.
func (c *Client) SendReply(reply *Reply) {
	data, err := json.Marshal(reply)
	if err != nil {
		slog.Error("reply marshal error", slog.Any("error", err))
		return
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("send buffer full, detaching client", slog.String("userId", c.identity.UserID))
		go c.hub.DetachClient(c)
	}
}

// WritePump drains the send channel onto the socket and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Warn("websocket write error", slog.Any("error", err))
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				slog.Warn("websocket ping error", slog.Any("error", err))
				return
			}
		}
	}
}

// ReadPump decodes commands off the socket and routes them. The reply is
// written back through this client's send channel.
func (c *Client) ReadPump(ctx context.Context) {
	c.conn.SetReadLimit(1 << 16)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	defer c.hub.DetachClient(c)

	for {
		var cmd Command
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read error", slog.String("userId", c.identity.UserID), slog.Any("error", err))
			}
			return
		}
		reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		reply := c.router.Route(reqCtx, c.identity, cmd)
		cancel()
		c.SendReply(reply)
	}
}
