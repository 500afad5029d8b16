package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	apperrors "gridrelay/pkg/errors"
	"gridrelay/pkg/logger"
	"gridrelay/pkg/protocol"
)

// sendTimeout bounds how long a direct delivery may block on a full queue
const sendTimeout = 5 * time.Second

// Client represents a connected WebSocket client
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan *protocol.Message

	mu     sync.Mutex
	closed bool // Track if Send channel is closed
}

// NewClient creates a client for a fresh connection
func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan *protocol.Message, 64),
	}
}

// close safely closes the client's Send channel
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// Hub manages connected clients and their session rooms. It implements
// session.Router: room membership lives only here and is rebuilt as
// connections join; the store holds the canonical member sets.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.clients[client.ID]; exists {
		// Duplicate connection id, close the old connection
		logger.Get().WarnWith("client id already registered, closing old connection", "connID", client.ID)
		existing.close()
		if existing.Conn != nil {
			existing.Conn.Close()
		}
		h.removeFromRoomsLocked(client.ID)
	}
	h.clients[client.ID] = client
}

// Unregister removes a client from the hub and from every room
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	client.close()
	delete(h.clients, connID)
	h.removeFromRoomsLocked(connID)
}

func (h *Hub) removeFromRoomsLocked(connID string) {
	for sessionID, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, sessionID)
		}
	}
}

// Join adds a connection to a session's broadcast room
func (h *Hub) Join(connID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	if h.rooms[sessionID] == nil {
		h.rooms[sessionID] = make(map[string]*Client)
	}
	h.rooms[sessionID][connID] = client
}

// SendTo delivers one event to exactly one connection
func (h *Hub) SendTo(connID string, msg *protocol.Message) error {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()

	if !ok {
		return apperrors.ErrClientNotFound
	}

	select {
	case client.Send <- msg:
		return nil
	case <-time.After(sendTimeout):
		return apperrors.ErrSendTimeout
	}
}

// Broadcast delivers one event to every connection in a session's room,
// the sender included. Slow consumers are dropped rather than blocking the
// rest of the room.
func (h *Hub) Broadcast(sessionID string, msg *protocol.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[sessionID]
	for connID, client := range members {
		select {
		case client.Send <- msg:
		default:
			// Queue full or closed, drop the client
			logger.Get().WarnWith("dropping slow client", "connID", connID, "sessionID", sessionID)
			client.close()
			delete(h.clients, connID)
			h.removeFromRoomsLocked(connID)
		}
	}
}

// GetClient returns a client by connection id
func (h *Hub) GetClient(connID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[connID]
	return client, ok
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of rooms with at least one member
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// RoomSize returns the number of connections in a session's room
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// CloseAll closes every client connection, used during shutdown
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for connID, client := range h.clients {
		client.close()
		if client.Conn != nil {
			client.Conn.Close()
		}
		delete(h.clients, connID)
	}
	h.rooms = make(map[string]map[string]*Client)
}
