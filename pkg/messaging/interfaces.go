package messaging

import (
	"context"

	"gridrelay/pkg/protocol"
)

// Handler handles a specific event type
type Handler interface {
	// Handle processes an event from the given connection
	Handle(ctx context.Context, connID string, msg *protocol.Message) error
	// MessageType returns the type of event this handler processes
	MessageType() protocol.MessageType
}

// Dispatcher dispatches events to appropriate handlers
type Dispatcher interface {
	// Register registers a handler for an event type
	Register(handler Handler) error
	// Dispatch dispatches an event to the appropriate handler
	Dispatch(ctx context.Context, connID string, msg *protocol.Message) error
	// HasHandler checks if a handler exists for the event type
	HasHandler(msgType protocol.MessageType) bool
}

// SessionRegistry is the slice of the session registry the handlers need
type SessionRegistry interface {
	// CreateSession creates a session with the requester as first member
	CreateSession(ctx context.Context, connID string) (string, []bool, error)
	// JoinSession adds the requester to an existing session
	JoinSession(ctx context.Context, connID, sessionID string) ([]bool, error)
	// UpdateCell writes one cell of a session's grid
	UpdateCell(ctx context.Context, sessionID string, index int, value bool) error
}
