package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gridrelay/pkg/logger"
	"gridrelay/pkg/protocol"
)

const (
	// pongWait is how long a connection may stay silent before it is dropped
	pongWait = 90 * time.Second

	// pingInterval must be shorter than pongWait
	pingInterval = 30 * time.Second

	// writeWait bounds a single outbound write
	writeWait = 10 * time.Second

	// dispatchTimeout bounds store I/O for one inbound event
	dispatchTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Cross-origin policy is enforced by the CORS middleware
		return true
	},
}

// handleWebSocket upgrades the connection and starts the read/write pumps
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Get().ErrorWithErr("websocket upgrade failed", err)
		return
	}

	client := NewClient(uuid.NewString(), conn)
	s.hub.Register(client)
	logger.Get().InfoWith("client connected", "connID", client.ID, "remote", conn.RemoteAddr().String())

	go s.writePump(client)
	go s.readPump(client)
}

// readPump reads events from the client and dispatches them. When the
// connection drops, membership cleanup runs before the pump exits so an
// emptied session never outlives its last member.
func (s *Server) readPump(client *Client) {
	defer func() {
		s.hub.Unregister(client.ID)

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		if err := s.registry.Leave(ctx, client.ID); err != nil {
			logger.Get().ErrorWithErr("disconnect cleanup failed", err, "connID", client.ID)
		}
		cancel()

		client.Conn.Close()
		logger.Get().InfoWith("client disconnected", "connID", client.ID)
	}()

	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Get().WarnWith("websocket read error", "connID", client.ID, "error", err)
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		if err := s.dispatcher.Dispatch(ctx, client.ID, &msg); err != nil {
			// Failures are scoped to the event; the connection stays up
			logger.Get().ErrorWithErr("event dispatch failed", err, "connID", client.ID, "type", msg.Type)
		}
		cancel()
	}
}

// writePump drains the client's send queue and keeps the connection alive
func (s *Server) writePump(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
