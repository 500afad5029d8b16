package protocol

import (
	"encoding/json"
	"testing"
)

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage(MsgTypeUpdateGrid, UpdateGridPayload{SessionID: "abc12345", CellIndex: 7, Value: true})
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}

	if msg.Type != MsgTypeUpdateGrid {
		t.Errorf("Unexpected type: %s", msg.Type)
	}
	if msg.ID == "" {
		t.Error("Message id should be set")
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	var payload UpdateGridPayload
	if err := msg.ParsePayload(&payload); err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if payload.SessionID != "abc12345" || payload.CellIndex != 7 || !payload.Value {
		t.Errorf("Payload round trip mismatch: %+v", payload)
	}
}

func TestNewMessageNilPayload(t *testing.T) {
	msg, err := NewMessage(MsgTypeCreateSession, nil)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	if msg.Payload != nil {
		t.Error("Expected empty payload")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) == "" {
		t.Fatal("Empty encoding")
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID()
		if seen[id] {
			t.Fatalf("Duplicate id %s", id)
		}
		seen[id] = true
	}
}
