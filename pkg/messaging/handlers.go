package messaging

import (
	"context"
	"errors"
	"fmt"

	apperrors "gridrelay/pkg/errors"
	"gridrelay/pkg/logger"
	"gridrelay/pkg/protocol"
	"gridrelay/pkg/session"
)

// sessionNotFoundMessage is the user-facing text sent on a failed join
const sessionNotFoundMessage = "Session not found."

// CreateSessionHandler handles create_session events
type CreateSessionHandler struct {
	registry SessionRegistry
	router   session.Router
}

// NewCreateSessionHandler creates a create_session handler
func NewCreateSessionHandler(registry SessionRegistry, router session.Router) *CreateSessionHandler {
	return &CreateSessionHandler{registry: registry, router: router}
}

// MessageType returns the event type this handler processes
func (h *CreateSessionHandler) MessageType() protocol.MessageType {
	return protocol.MsgTypeCreateSession
}

// Handle creates a session and acknowledges it to the requester only
func (h *CreateSessionHandler) Handle(ctx context.Context, connID string, _ *protocol.Message) error {
	sessionID, grid, err := h.registry.CreateSession(ctx, connID)
	if err != nil {
		return fmt.Errorf("create_session from %s: %w", connID, err)
	}

	reply, err := protocol.NewMessage(protocol.MsgTypeSessionCreated, protocol.SessionCreatedPayload{
		SessionID: sessionID,
		Grid:      grid,
	})
	if err != nil {
		return err
	}
	return h.router.SendTo(connID, reply)
}

// JoinSessionHandler handles join_session events
type JoinSessionHandler struct {
	registry SessionRegistry
	router   session.Router
}

// NewJoinSessionHandler creates a join_session handler
func NewJoinSessionHandler(registry SessionRegistry, router session.Router) *JoinSessionHandler {
	return &JoinSessionHandler{registry: registry, router: router}
}

// MessageType returns the event type this handler processes
func (h *JoinSessionHandler) MessageType() protocol.MessageType {
	return protocol.MsgTypeJoinSession
}

// Handle joins the requester to a session, or sends an error event back
// when the session id is unknown
func (h *JoinSessionHandler) Handle(ctx context.Context, connID string, msg *protocol.Message) error {
	var payload protocol.JoinSessionPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return fmt.Errorf("%w: join_session payload: %v", apperrors.ErrInvalidMessage, err)
	}

	grid, err := h.registry.JoinSession(ctx, connID, payload.SessionID)
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		reply, merr := protocol.NewMessage(protocol.MsgTypeError, protocol.ErrorPayload{
			Message: sessionNotFoundMessage,
		})
		if merr != nil {
			return merr
		}
		return h.router.SendTo(connID, reply)
	}
	if err != nil {
		return fmt.Errorf("join_session from %s: %w", connID, err)
	}

	reply, err := protocol.NewMessage(protocol.MsgTypeSessionJoined, protocol.SessionJoinedPayload{
		SessionID: payload.SessionID,
		Grid:      grid,
	})
	if err != nil {
		return err
	}
	return h.router.SendTo(connID, reply)
}

// UpdateGridHandler handles update_grid events
type UpdateGridHandler struct {
	registry SessionRegistry
	router   session.Router
	log      *logger.Logger
}

// NewUpdateGridHandler creates an update_grid handler
func NewUpdateGridHandler(registry SessionRegistry, router session.Router) *UpdateGridHandler {
	return &UpdateGridHandler{
		registry: registry,
		router:   router,
		log:      logger.Get().With("component", "update_grid"),
	}
}

// MessageType returns the event type this handler processes
func (h *UpdateGridHandler) MessageType() protocol.MessageType {
	return protocol.MsgTypeUpdateGrid
}

// Handle applies a cell update and broadcasts it to the whole session,
// sender included. Updates against unknown sessions or invalid indices are
// dropped without a reply; the drop is only logged.
func (h *UpdateGridHandler) Handle(ctx context.Context, connID string, msg *protocol.Message) error {
	var payload protocol.UpdateGridPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return fmt.Errorf("%w: update_grid payload: %v", apperrors.ErrInvalidMessage, err)
	}

	err := h.registry.UpdateCell(ctx, payload.SessionID, payload.CellIndex, payload.Value)
	if errors.Is(err, apperrors.ErrSessionNotFound) || errors.Is(err, apperrors.ErrCellOutOfRange) {
		h.log.DebugWith("dropping invalid grid update",
			"connID", connID, "sessionID", payload.SessionID,
			"cellIndex", payload.CellIndex, "reason", err.Error())
		return nil
	}
	if err != nil {
		return fmt.Errorf("update_grid from %s: %w", connID, err)
	}

	event, err := protocol.NewMessage(protocol.MsgTypeGridUpdated, protocol.GridUpdatedPayload{
		CellIndex: payload.CellIndex,
		Value:     payload.Value,
	})
	if err != nil {
		return err
	}
	h.router.Broadcast(payload.SessionID, event)
	return nil
}
