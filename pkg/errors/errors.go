package errors

import "errors"

// Session errors
var (
	// ErrSessionNotFound is returned when a session id does not exist in the store
	ErrSessionNotFound = errors.New("session not found")

	// ErrCellOutOfRange is returned when a grid update targets an invalid cell index
	ErrCellOutOfRange = errors.New("cell index out of range")

	// ErrSessionIDExhausted is returned when session id generation keeps colliding
	ErrSessionIDExhausted = errors.New("could not generate unique session id")
)

// Connection errors
var (
	// ErrClientNotFound is returned when a connection id is not registered with the hub
	ErrClientNotFound = errors.New("client not found")

	// ErrSendTimeout is returned when delivering to a client times out
	ErrSendTimeout = errors.New("send timeout")
)

// Message and protocol errors
var (
	// ErrInvalidMessage is returned when an inbound message cannot be parsed
	ErrInvalidMessage = errors.New("invalid message")

	// ErrUnknownMessageType is returned when no handler exists for a message type
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Storage errors
var (
	// ErrStoreUnavailable is returned when the shared store cannot be reached
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStoreNotInitialized is returned when the store is used before setup
	ErrStoreNotInitialized = errors.New("store not initialized")
)

// Configuration errors
var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")
)
