package messaging

import (
	"context"
	"fmt"
	"sync"

	apperrors "gridrelay/pkg/errors"
	"gridrelay/pkg/logger"
	"gridrelay/pkg/protocol"
)

// DispatcherImpl implements the Dispatcher interface
type DispatcherImpl struct {
	handlers map[protocol.MessageType]Handler
	mu       sync.RWMutex
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher() *DispatcherImpl {
	return &DispatcherImpl{
		handlers: make(map[protocol.MessageType]Handler),
	}
}

// Register registers a handler for an event type
func (d *DispatcherImpl) Register(handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	msgType := handler.MessageType()
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.handlers[msgType]; exists {
		return fmt.Errorf("handler already registered for event type: %s", msgType)
	}

	d.handlers[msgType] = handler
	logger.Get().DebugWith("registered event handler", "type", msgType)
	return nil
}

// Dispatch dispatches an event to the appropriate handler
func (d *DispatcherImpl) Dispatch(ctx context.Context, connID string, msg *protocol.Message) error {
	d.mu.RLock()
	handler, exists := d.handlers[msg.Type]
	d.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownMessageType, msg.Type)
	}

	return handler.Handle(ctx, connID, msg)
}

// HasHandler checks if a handler exists for the event type
func (d *DispatcherImpl) HasHandler(msgType protocol.MessageType) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, exists := d.handlers[msgType]
	return exists
}
