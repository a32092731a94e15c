// Package hub fans escalation events out to operator websocket connections,
// grouped by chatbot.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xiaot623/supportiq/internal/domain"
)

// ErrBufferFull is returned when a connection's send buffer is full.
var ErrBufferFull = errors.New("send buffer full")

// Connection is one operator websocket.
type Connection struct {
	ID        string
	ChatbotID string
	Conn      *websocket.Conn
	Send      chan []byte
	mu        sync.Mutex
}

// Hub tracks operator connections by chatbot id.
type Hub struct {
	connections map[string]*Connection
	chatbots    map[string]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *chatbotMessage
	stop       chan struct{}

	logger *slog.Logger
	mu     sync.RWMutex
}

type chatbotMessage struct {
	ChatbotID string
	Data      []byte
}

// EscalationEvent is pushed to operators.
type EscalationEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	ChatbotID string `json:"chatbotId"`
	Message   string `json:"message"`
	Ts        int64  `json:"ts"`
}

// NewHub creates a new Hub. Call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		chatbots:    make(map[string]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *chatbotMessage, 256),
		stop:        make(chan struct{}),
		logger:      logger.With("component", "hub"),
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if h.chatbots[conn.ChatbotID] == nil {
				h.chatbots[conn.ChatbotID] = make(map[string]bool)
			}
			h.chatbots[conn.ChatbotID][conn.ID] = true
			h.mu.Unlock()
			h.logger.Debug("operator connected", "conn_id", conn.ID, "chatbot_id", conn.ChatbotID)

		case conn := <-h.unregister:
			h.remove(conn)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Connection
			for connID := range h.chatbots[msg.ChatbotID] {
				conn := h.connections[connID]
				if conn == nil {
					continue
				}
				select {
				case conn.Send <- msg.Data:
				default:
					slow = append(slow, conn)
				}
			}
			h.mu.RUnlock()
			for _, conn := range slow {
				h.logger.Warn("operator buffer full, closing", "conn_id", conn.ID)
				h.remove(conn)
			}

		case <-h.stop:
			h.mu.Lock()
			for _, conn := range h.connections {
				close(conn.Send)
			}
			h.connections = make(map[string]*Connection)
			h.chatbots = make(map[string]map[string]bool)
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn.ID]; !ok {
		return
	}
	delete(h.connections, conn.ID)
	if ids := h.chatbots[conn.ChatbotID]; ids != nil {
		delete(ids, conn.ID)
		if len(ids) == 0 {
			delete(h.chatbots, conn.ChatbotID)
		}
	}
	close(conn.Send)
	h.logger.Debug("operator disconnected", "conn_id", conn.ID)
}

// Stop ends Run and closes every connection's send channel.
func (h *Hub) Stop() {
	close(h.stop)
}

// NewConnection creates a connection subscribed to chatbotID.
func (h *Hub) NewConnection(ws *websocket.Conn, chatbotID string) *Connection {
	return &Connection{
		ID:        uuid.New().String(),
		ChatbotID: chatbotID,
		Conn:      ws,
		Send:      make(chan []byte, 64),
	}
}

// Register adds a connection. It is a no-op once the hub has stopped.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.stop:
	}
}

// Unregister removes a connection.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.stop:
	}
}

// Broadcast queues data for every operator of chatbotID.
func (h *Hub) Broadcast(chatbotID string, data []byte) {
	select {
	case h.broadcast <- &chatbotMessage{ChatbotID: chatbotID, Data: data}:
	case <-h.stop:
	}
}

// NotifyEscalation pushes an escalation to the chatbot's operators.
func (h *Hub) NotifyEscalation(ctx context.Context, e domain.Escalation) error {
	data, err := json.Marshal(EscalationEvent{
		Type:      domain.EscalationType,
		SessionID: e.SessionID,
		ChatbotID: e.ChatbotID,
		Message:   e.Message,
		Ts:        time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &chatbotMessage{ChatbotID: e.ChatbotID, Data: data}:
		return nil
	case <-h.stop:
		return errors.New("hub stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConnectionCount returns the number of connected operators.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// HasOperators reports whether chatbotID has at least one operator online.
func (h *Hub) HasOperators(chatbotID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.chatbots[chatbotID]) > 0
}

// WriteMessage writes to the websocket with locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the websocket.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
