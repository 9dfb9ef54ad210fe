package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/conneroisu/patterndoc/internal/logging"
	"github.com/conneroisu/patterndoc/internal/validation"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer. Browsers never send anything
	// but control frames.
	maxMessageSize = 512

	// ReloadMessage tells connected pages to reload themselves.
	ReloadMessage = "reload"
)

// Client is one connected browser tab.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub fans reload notifications out to every connected page.
type Hub struct {
	clients    map[*Client]bool
	clientsMu  sync.RWMutex
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	allowed   []string
	allowedMu sync.RWMutex

	logger logging.Logger
}

// NewHub creates a hub accepting connections from the given origins (hosts
// such as "localhost:8090" or full origins).
func NewHub(allowedOrigins []string, logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		allowed:    append([]string(nil), allowedOrigins...),
		logger:     logger.WithComponent("livereload"),
	}
}

// AllowOrigins adds origins to the allow list.
func (h *Hub) AllowOrigins(origins ...string) {
	h.allowedMu.Lock()
	defer h.allowedMu.Unlock()
	h.allowed = append(h.allowed, origins...)
}

func (h *Hub) allowedOrigins() []string {
	h.allowedMu.RLock()
	defer h.allowedMu.RUnlock()
	return append([]string(nil), h.allowed...)
}

// ClientCount returns the number of connected pages.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every client. It never blocks; when the queue is
// full the message is dropped since a reload is already pending.
func (h *Hub) Broadcast(msg string) {
	select {
	case h.broadcast <- []byte(msg):
	default:
		h.logger.Debug(context.Background(), "Broadcast queue full, dropping message")
	}
}

// Reload asks every connected page to reload.
func (h *Hub) Reload() {
	h.Broadcast(ReloadMessage)
}

// Run dispatches registrations and broadcasts until ctx is done, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.clientsMu.Lock()
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]bool)
			h.clientsMu.Unlock()
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.clientsMu.Unlock()
			h.logger.Debug(ctx, "Client connected", "clients", count)

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Debug(ctx, "Client disconnected", "clients", h.ClientCount())

		case message := <-h.broadcast:
			h.clientsMu.RLock()
			var slow []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}
			h.clientsMu.RUnlock()

			for _, client := range slow {
				h.remove(client)
			}
		}
	}
}

// remove is only called from Run, so send is closed exactly once.
func (h *Hub) remove(client *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// ServeHTTP upgrades the request and blocks until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	allowed := h.allowedOrigins()
	if err := validation.ValidateOrigin(origin, allowed); err != nil {
		h.logger.Warn(r.Context(), err, "Rejected live reload connection", "origin", origin)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: allowed,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxMessageSize)

	client := &Client{
		conn: conn,
		send: make(chan []byte, 8),
		hub:  h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	// The request context ends with this handler, the pumps outlive
	// neither.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.writePump(ctx)
	client.readPump(ctx)
}

// readPump drains the connection so control frames are processed.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				c.hub.logger.Debug(ctx, "WebSocket read ended", "error", err.Error())
			}
			return
		}
	}
}

// writePump writes queued messages and keeps the connection alive.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case message, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.logger.Debug(ctx, "WebSocket write failed", "error", err.Error())
				c.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.conn.Close(websocket.StatusGoingAway, "ping failed")
				return
			}
		}
	}
}
