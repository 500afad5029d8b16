package protocol

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"
)

// MessageType defines the type of event being sent
type MessageType string

const (
	// Client to server events
	MsgTypeCreateSession MessageType = "create_session"
	MsgTypeJoinSession   MessageType = "join_session"
	MsgTypeUpdateGrid    MessageType = "update_grid"

	// Server to client events
	MsgTypeSessionCreated MessageType = "session_created"
	MsgTypeSessionJoined  MessageType = "session_joined"
	MsgTypeGridUpdated    MessageType = "grid_updated"
	MsgTypeError          MessageType = "error"
)

// Message is the base structure for all events
type Message struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// JoinSessionPayload asks to join an existing session
type JoinSessionPayload struct {
	SessionID string `json:"session_id"`
}

// UpdateGridPayload sets a single cell of a session's grid
type UpdateGridPayload struct {
	SessionID string `json:"session_id"`
	CellIndex int    `json:"cell_index"`
	Value     bool   `json:"value"`
}

// SessionCreatedPayload acknowledges session creation to the requester
type SessionCreatedPayload struct {
	SessionID string `json:"session_id"`
	Grid      []bool `json:"grid"`
}

// SessionJoinedPayload returns the current grid to a joining client
type SessionJoinedPayload struct {
	SessionID string `json:"session_id"`
	Grid      []bool `json:"grid"`
}

// GridUpdatedPayload notifies session members of a cell change
type GridUpdatedPayload struct {
	CellIndex int  `json:"cell_index"`
	Value     bool `json:"value"`
}

// ErrorPayload carries a user-facing error message
type ErrorPayload struct {
	Message string `json:"message"`
}

// GenerateID generates a unique message ID
func GenerateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}

// NewMessage creates a message with the given type and payload
func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = encoded
	}

	return &Message{
		Type:      msgType,
		ID:        GenerateID(),
		Timestamp: time.Now(),
		Payload:   data,
	}, nil
}

// ParsePayload unmarshals the message payload into the given interface
func (m *Message) ParsePayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}
