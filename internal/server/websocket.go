package server

import (
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/pantti/internal/element"
	"github.com/muurk/pantti/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Outgoing messages buffered per client before it counts as stalled
	sendBuffer = 16
)

// Message types.
const (
	MessageHello  = "hello"
	MessageRender = "render"
	MessageEvent  = "event"
)

// Message is one WebSocket frame in either direction.
type Message struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	HTML   string `json:"html,omitempty"`
	Target string `json:"target,omitempty"`
	Event  string `json:"event,omitempty"`
	Value  string `json:"value,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Hub tracks connected clients and fans renders out to them.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client
	last    []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Broadcast sends markup to every client and remembers it for clients that
// connect later. Clients that cannot keep up are disconnected.
func (h *Hub) Broadcast(markup string) {
	data, err := json.Marshal(Message{Type: MessageRender, HTML: markup})
	if err != nil {
		logging.Error("Failed to encode render message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = data
	for id, c := range h.clients {
		if !c.enqueue(data) {
			logging.Warn("Dropping stalled client",
				zap.String("client_id", id),
				zap.String("remote_addr", c.remoteAddr),
			)
			delete(h.clients, id)
			c.close()
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		c.close()
	}
}

// register adds c and queues its greeting and the latest render under one
// lock, so no broadcast can slip in between.
func (h *Hub) register(c *client) {
	hello, err := json.Marshal(Message{Type: MessageHello, ID: c.id})
	if err != nil {
		logging.Error("Failed to encode hello message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.id] = c
	c.enqueue(hello)
	if h.last != nil {
		c.enqueue(h.last)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		c.close()
	}
}

type client struct {
	id         string
	remoteAddr string
	conn       *websocket.Conn
	send       chan []byte
	closeOnce  sync.Once
}

// enqueue must be called with the hub lock held.
func (c *client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close must be called with the hub lock held.
func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// handleWebSocket upgrades the request and runs the client until it
// disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{
		id:         uuid.New().String(),
		remoteAddr: r.RemoteAddr,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
	}

	logging.LogConnection(c.remoteAddr, "websocket_connected")
	s.hub.register(c)

	go c.writePump()
	c.readPump(s.host, s.hub)
}

// readPump dispatches events until the connection fails.
func (c *client) readPump(host Host, hub *Hub) {
	defer func() {
		hub.unregister(c)
		_ = c.conn.Close()
		logging.LogConnection(c.remoteAddr, "websocket_closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("WebSocket read failed",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err),
				)
			}
			return
		}

		logging.LogWebSocketMessage(c.remoteAddr, "received", msgType, data)

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logging.Warn("Malformed client message",
				zap.String("remote_addr", c.remoteAddr),
				zap.Error(err),
			)
			continue
		}

		if msg.Type != MessageEvent || msg.Target == "" || msg.Event == "" {
			logging.Debug("Ignoring client message",
				zap.String("client_id", c.id),
				zap.String("type", msg.Type),
			)
			continue
		}

		host.Dispatch(msg.Target, element.Event{Type: msg.Event, Value: msg.Value})
	}
}

// writePump sends queued messages and pings until the queue is closed.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Debug("WebSocket write failed",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err),
				)
				return
			}
			logging.LogWebSocketMessage(c.remoteAddr, "sent", websocket.TextMessage, data)

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
