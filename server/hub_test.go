package server

import (
	"errors"
	"testing"

	apperrors "gridrelay/pkg/errors"
	"gridrelay/pkg/protocol"
)

func newTestClient(id string) *Client {
	return NewClient(id, nil)
}

func TestHubRegisterAndCount(t *testing.T) {
	hub := NewHub()
	hub.Register(newTestClient("conn-a"))
	hub.Register(newTestClient("conn-b"))

	if hub.ClientCount() != 2 {
		t.Errorf("Expected 2 clients, got %d", hub.ClientCount())
	}

	if _, ok := hub.GetClient("conn-a"); !ok {
		t.Error("conn-a should be registered")
	}
}

func TestHubSendTo(t *testing.T) {
	hub := NewHub()
	client := newTestClient("conn-a")
	hub.Register(client)

	msg, _ := protocol.NewMessage(protocol.MsgTypeSessionCreated, nil)
	if err := hub.SendTo("conn-a", msg); err != nil {
		t.Fatalf("SendTo failed: %v", err)
	}

	select {
	case got := <-client.Send:
		if got.Type != protocol.MsgTypeSessionCreated {
			t.Errorf("Unexpected message type: %s", got.Type)
		}
	default:
		t.Fatal("Message not queued")
	}
}

func TestHubSendToUnknownClient(t *testing.T) {
	hub := NewHub()

	msg, _ := protocol.NewMessage(protocol.MsgTypeSessionCreated, nil)
	if err := hub.SendTo("ghost", msg); !errors.Is(err, apperrors.ErrClientNotFound) {
		t.Errorf("Expected ErrClientNotFound, got %v", err)
	}
}

func TestHubBroadcastToRoom(t *testing.T) {
	hub := NewHub()
	a := newTestClient("conn-a")
	b := newTestClient("conn-b")
	c := newTestClient("conn-c")
	hub.Register(a)
	hub.Register(b)
	hub.Register(c)

	hub.Join("conn-a", "room1")
	hub.Join("conn-b", "room1")
	// conn-c stays out of the room

	msg, _ := protocol.NewMessage(protocol.MsgTypeGridUpdated, protocol.GridUpdatedPayload{CellIndex: 1, Value: true})
	hub.Broadcast("room1", msg)

	for _, client := range []*Client{a, b} {
		select {
		case <-client.Send:
		default:
			t.Errorf("Client %s should have received the broadcast", client.ID)
		}
	}
	select {
	case <-c.Send:
		t.Error("conn-c is not in the room and should receive nothing")
	default:
	}
}

func TestHubBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := newTestClient("conn-slow")
	hub.Register(slow)
	hub.Join("conn-slow", "room1")

	msg, _ := protocol.NewMessage(protocol.MsgTypeGridUpdated, nil)
	for i := 0; i < cap(slow.Send); i++ {
		slow.Send <- msg
	}

	// Queue is full; the broadcast must drop the client instead of blocking
	hub.Broadcast("room1", msg)

	if hub.ClientCount() != 0 {
		t.Error("Slow client should have been dropped")
	}
	if hub.RoomSize("room1") != 0 {
		t.Error("Slow client should be removed from the room")
	}
}

func TestHubUnregisterLeavesRooms(t *testing.T) {
	hub := NewHub()
	a := newTestClient("conn-a")
	b := newTestClient("conn-b")
	hub.Register(a)
	hub.Register(b)
	hub.Join("conn-a", "room1")
	hub.Join("conn-b", "room1")

	hub.Unregister("conn-a")

	if hub.RoomSize("room1") != 1 {
		t.Errorf("Expected 1 member left in room, got %d", hub.RoomSize("room1"))
	}

	hub.Unregister("conn-b")
	if hub.RoomCount() != 0 {
		t.Error("Empty room should be removed")
	}

	// Unregister of an unknown id is a no-op
	hub.Unregister("conn-a")
}
