package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Hub is the live feed: every event published to it is written to every
// connected websocket client.
type Hub struct {
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	connected atomic.Int64
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. checkOrigin may be nil to accept any origin.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	clients := map[*client]bool{}
	drop := func(c *client) {
		if clients[c] {
			delete(clients, c)
			close(c.send)
			h.connected.Add(-1)
		}
	}

	for {
		select {
		case <-ctx.Done():
			for c := range clients {
				drop(c)
			}
			close(h.done)
			return

		case c := <-h.register:
			clients[c] = true
			h.connected.Add(1)
			go c.writePump()
			slog.Debug("live client connected", "client", c.id)

		case c := <-h.unregister:
			drop(c)
			slog.Debug("live client disconnected", "client", c.id)

		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					// Slow client; cut it loose rather than stall the feed.
					drop(c)
				}
			}
		}
	}
}

// Publish implements Publisher.
func (h *Hub) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	select {
	case h.broadcast <- data:
		return nil
	default:
		return fmt.Errorf("live feed backlog full, dropped %s", e.Type)
	}
}

// Connected returns the number of connected clients.
func (h *Hub) Connected() int {
	return int(h.connected.Load())
}

// ServeHTTP upgrades the request and attaches the connection to the feed.
// The first message a client receives is {"type":"connected","id":...}.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	welcome, _ := json.Marshal(map[string]string{"type": "connected", "id": c.id})
	c.send <- welcome

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go c.readPump(h.unregister, h.done)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client input and detects disconnects.
func (c *client) readPump(unregister chan<- *client, done <-chan struct{}) {
	defer func() {
		select {
		case unregister <- c:
		case <-done:
		}
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("live client error", "client", c.id, "error", err)
			}
			return
		}
	}
}
