package session

import "gridrelay/pkg/protocol"

// Router delivers events to connected clients grouped by session. The
// transport hub implements it; tests use an in-memory fake so registry and
// handler logic runs without live WebSockets.
type Router interface {
	// Join adds a connection to a session's broadcast group
	Join(connID, sessionID string)

	// SendTo delivers one event to exactly one connection
	SendTo(connID string, msg *protocol.Message) error

	// Broadcast delivers one event to every connection in a session's
	// group, including the sender
	Broadcast(sessionID string, msg *protocol.Message)
}
