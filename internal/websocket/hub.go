package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"predmaint/internal/infrastructure"
)

// Message types pushed to browsers.
const (
	TypeConnection   = "connection"
	TypeSlideState   = "presentation:state"
	TypeAnalysisDone = "analysis:updated"
)

// Message is the JSON envelope of every server push.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type envelope struct {
	sessionID string
	payload   []byte
}

// Hub tracks connected clients per session and fans messages out to them.
type Hub struct {
	// Registered clients grouped by session id
	sessions map[string]map[*Client]bool

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections int64
	messagesSent     int64

	quit     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a new Hub instance with dependency injection
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is done or Stop is called,
// closing every client.
func (h *Hub) Run(ctx context.Context) error {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			h.Stop()
			return nil

		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return nil

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.sessions[client.sessionID]
	if !ok {
		clients = make(map[*Client]bool)
		h.sessions[client.sessionID] = clients
	}
	clients[client] = true
	h.totalConnections++
	count := len(clients)
	h.mu.Unlock()

	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}
	h.logger.InfoContext(ctx, "Client registered",
		slog.String("client_id", client.id),
		slog.String("session_id", client.sessionID),
		slog.Int("session_clients", count),
		slog.String("remote_addr", client.remoteAddr))

	payload, err := encode(TypeConnection, map[string]interface{}{
		"status":    "connected",
		"client_id": client.id,
	})
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.WarnContext(ctx, "Failed to send connection message - client buffer full",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.sessions[client.sessionID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}

	h.logger.Info("Client unregistered",
		slog.String("client_id", client.id),
		slog.String("session_id", client.sessionID),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

func (h *Hub) deliver(msg envelope) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions[msg.sessionID]))
	for client := range h.sessions[msg.sessionID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- msg.payload:
			h.mu.Lock()
			h.messagesSent++
			h.mu.Unlock()
		default:
			// Client's send channel is full, drop it
			h.logger.Warn("Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
			h.removeClient(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.sessions {
		for client := range clients {
			close(client.send)
		}
		delete(h.sessions, id)
	}
}

// Stop signals Run to exit. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// BroadcastToSession sends a typed message to every client of sessionID.
// Messages are dropped when the hub is stopped or its queue is full.
func (h *Hub) BroadcastToSession(sessionID, msgType string, data interface{}) {
	payload, err := encode(msgType, data)
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", msgType))
		return
	}

	select {
	case h.broadcast <- envelope{sessionID: sessionID, payload: payload}:
	case <-h.quit:
	default:
		h.logger.Warn("Broadcast queue full, dropping message",
			slog.String("session_id", sessionID),
			slog.String("message_type", msgType))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.sessions {
		n += len(clients)
	}
	return n
}

// SessionClientCount returns the number of clients of one session
func (h *Hub) SessionClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// GetHubMetrics returns current hub metrics
func (h *Hub) GetHubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_sessions":   len(h.sessions),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
	}
}

func encode(msgType string, data interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
