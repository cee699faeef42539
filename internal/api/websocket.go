package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/bibleref/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Message is what the server writes to a WebSocket client: an extraction
// result in reply to a message, an error, or a broadcast event.
type Message struct {
	Type  string      `json:"type"` // "extract", "error", "document_indexed"
	Data  interface{} `json:"data,omitempty"`
	Error *APIError   `json:"error,omitempty"`
}

// Client represents a WebSocket client connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte   // broadcasts, closed by the hub
	replies chan []byte   // answers, closed by readPump
	done    chan struct{} // closed when writePump exits
	limiter *tokenBucket
	handle  func([]byte) []byte
}

// Hub maintains active WebSocket connections and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	onCount    func(int)
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run handles client registration and broadcasting until ctx is done.
// Remaining clients are then disconnected.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
		h.mu.Unlock()
		h.counted(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.counted(n)
			logging.WebSocketEvent("client_connected", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.counted(n)
			logging.WebSocketEvent("client_disconnected", n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client channel full, disconnect
					close(client.send)
					delete(h.clients, client)
				}
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.counted(n)
		}
	}
}

func (h *Hub) counted(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

// add registers client. It reports false once the hub has stopped.
func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients.
func (h *Hub) Broadcast(event DocumentEvent) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(Message{Type: event.Type, Data: event})
	if err != nil {
		logging.Error("failed to marshal websocket event", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logging.Warn("broadcast channel full, dropping message")
	}
}

// isOriginAllowed checks origin against the allowed list. Entries match
// exactly, "*" matches anything and "*.example.com" matches subdomains.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if len(allowedOrigins) == 0 {
		return true
	}
	// Browsers always send Origin on a WebSocket handshake.
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		switch {
		case allowed == "*", origin == allowed:
			return true
		case strings.HasPrefix(allowed, "*."):
			if strings.HasSuffix(origin, allowed[1:]) {
				return true
			}
		}
	}
	return false
}

func (s *Server) newUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if !isOriginAllowed(origin, s.cfg.AllowedOrigins) {
				logging.LoggerFromContext(r.Context()).Warn("websocket_origin_rejected", "origin", origin)
				return false
			}
			return true
		},
	}
}

// handleWebSocket upgrades the connection. Every text message the client
// sends is scanned and answered with an extraction result; document_indexed
// events are pushed to all clients.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.LoggerFromContext(r.Context()).Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)

	rate := float64(s.cfg.WebSocket.MaxMessageRate)
	ctx := context.WithoutCancel(r.Context())
	client := &Client{
		hub:     s.hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		replies: make(chan []byte, 16),
		done:    make(chan struct{}),
		limiter: newTokenBucket(rate*2, rate, nil),
		handle:  func(msg []byte) []byte { return s.answer(ctx, msg) },
	}
	if !s.hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// answer runs one extraction for a client message. A message that starts
// with "{" is an ExtractRequest; anything else is the text to scan.
func (s *Server) answer(ctx context.Context, msg []byte) []byte {
	req := ExtractRequest{Text: string(msg)}
	if trimmed := bytes.TrimSpace(msg); len(trimmed) > 0 && trimmed[0] == '{' {
		req = ExtractRequest{}
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return encodeMessage(Message{Type: "error", Error: &APIError{Code: "INVALID_JSON", Message: err.Error()}})
		}
	}

	res, err := s.extract(ctx, req)
	if err != nil {
		return encodeMessage(Message{Type: "error", Error: &APIError{Code: "INVALID_INPUT", Message: err.Error()}})
	}
	return encodeMessage(Message{Type: "extract", Data: res})
}

func encodeMessage(m Message) []byte {
	data, err := json.Marshal(m)
	if err != nil {
		data, _ = json.Marshal(Message{Type: "error", Error: &APIError{Code: "INTERNAL_ERROR", Message: err.Error()}})
	}
	return data
}

// readPump reads client messages and queues the answers.
func (c *Client) readPump() {
	defer func() {
		close(c.replies)
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn("websocket unexpected close", "error", err)
			}
			return
		}
		if !c.limiter.allow() {
			logging.Warn("websocket message rate exceeded, closing connection")
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Rate limit exceeded"),
				time.Now().Add(writeWait))
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if !c.queue(c.handle(message)) {
			return
		}
	}
}

// queue hands a reply to writePump. It reports false once writePump has
// stopped and nothing will drain the queue.
func (c *Client) queue(reply []byte) bool {
	select {
	case c.replies <- reply:
		return true
	case <-c.done:
		return false
	}
}

// writePump writes answers and broadcasts, one message per frame, and
// keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close()
	}()

	replies := c.replies
	for {
		var message []byte
		select {
		case m, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			message = m

		case m, ok := <-replies:
			if !ok {
				replies = nil
				continue
			}
			message = m

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
