package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gridrelay/pkg/config"
	"gridrelay/pkg/protocol"
	"gridrelay/pkg/session"
)

const readTimeout = 5 * time.Second

func startTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(func() {
		ts.Close()
		srv.hub.CloseAll()
		srv.store.Close()
	})
	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, msgType protocol.MessageType, payload interface{}) {
	t.Helper()
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn, want protocol.MessageType) *protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	var msg protocol.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON failed waiting for %s: %v", want, err)
	}
	if msg.Type != want {
		t.Fatalf("Expected event %s, got %s", want, msg.Type)
	}
	return &msg
}

func TestRelayEndToEnd(t *testing.T) {
	srv, ts := startTestServer(t)

	connA := dialWS(t, ts)
	defer connA.Close()

	// A creates a session and gets the blank grid back
	sendEvent(t, connA, protocol.MsgTypeCreateSession, nil)
	created := readEvent(t, connA, protocol.MsgTypeSessionCreated)

	var createdPayload protocol.SessionCreatedPayload
	if err := created.ParsePayload(&createdPayload); err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if len(createdPayload.SessionID) != 8 {
		t.Errorf("Expected 8-character session id, got %q", createdPayload.SessionID)
	}
	if len(createdPayload.Grid) != session.GridCells {
		t.Fatalf("Expected %d cells, got %d", session.GridCells, len(createdPayload.Grid))
	}
	for i, cell := range createdPayload.Grid {
		if cell {
			t.Fatalf("Cell %d should start false", i)
		}
	}

	// B joins and receives the same grid
	connB := dialWS(t, ts)
	defer connB.Close()

	sendEvent(t, connB, protocol.MsgTypeJoinSession, protocol.JoinSessionPayload{SessionID: createdPayload.SessionID})
	joined := readEvent(t, connB, protocol.MsgTypeSessionJoined)

	var joinedPayload protocol.SessionJoinedPayload
	if err := joined.ParsePayload(&joinedPayload); err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if joinedPayload.SessionID != createdPayload.SessionID {
		t.Errorf("Joined wrong session: %q", joinedPayload.SessionID)
	}
	if len(joinedPayload.Grid) != session.GridCells {
		t.Fatalf("Expected %d cells, got %d", session.GridCells, len(joinedPayload.Grid))
	}

	// A sets cell 5 and both members, the sender included, see the change
	sendEvent(t, connA, protocol.MsgTypeUpdateGrid, protocol.UpdateGridPayload{
		SessionID: createdPayload.SessionID,
		CellIndex: 5,
		Value:     true,
	})

	for _, conn := range []*websocket.Conn{connA, connB} {
		updated := readEvent(t, conn, protocol.MsgTypeGridUpdated)
		var updatedPayload protocol.GridUpdatedPayload
		if err := updated.ParsePayload(&updatedPayload); err != nil {
			t.Fatalf("ParsePayload failed: %v", err)
		}
		if updatedPayload.CellIndex != 5 || !updatedPayload.Value {
			t.Errorf("Unexpected update: cell=%d value=%v", updatedPayload.CellIndex, updatedPayload.Value)
		}
	}

	// Both members disconnect and the session is torn down
	connB.Close()
	connA.Close()

	deadline := time.Now().Add(readTimeout)
	for {
		ids, err := srv.registry.SessionIDs(context.Background())
		if err != nil {
			t.Fatalf("SessionIDs failed: %v", err)
		}
		if len(ids) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Session %s was not deleted after last member left", createdPayload.SessionID)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestRelayJoinUnknownSession(t *testing.T) {
	_, ts := startTestServer(t)

	conn := dialWS(t, ts)
	defer conn.Close()

	sendEvent(t, conn, protocol.MsgTypeJoinSession, protocol.JoinSessionPayload{SessionID: "deadbeef"})
	errMsg := readEvent(t, conn, protocol.MsgTypeError)

	var errPayload protocol.ErrorPayload
	if err := errMsg.ParsePayload(&errPayload); err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if errPayload.Message != "Session not found." {
		t.Errorf("Unexpected error message: %q", errPayload.Message)
	}
}

func TestRelayInvalidUpdateSilentlyDropped(t *testing.T) {
	_, ts := startTestServer(t)

	connA := dialWS(t, ts)
	defer connA.Close()

	sendEvent(t, connA, protocol.MsgTypeCreateSession, nil)
	created := readEvent(t, connA, protocol.MsgTypeSessionCreated)

	var createdPayload protocol.SessionCreatedPayload
	if err := created.ParsePayload(&createdPayload); err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}

	// Out-of-range index must produce no reply and no broadcast
	sendEvent(t, connA, protocol.MsgTypeUpdateGrid, protocol.UpdateGridPayload{
		SessionID: createdPayload.SessionID,
		CellIndex: session.GridCells,
		Value:     true,
	})

	// A valid update right behind it is the next event A sees
	sendEvent(t, connA, protocol.MsgTypeUpdateGrid, protocol.UpdateGridPayload{
		SessionID: createdPayload.SessionID,
		CellIndex: 0,
		Value:     true,
	})

	updated := readEvent(t, connA, protocol.MsgTypeGridUpdated)
	var updatedPayload protocol.GridUpdatedPayload
	if err := updated.ParsePayload(&updatedPayload); err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if updatedPayload.CellIndex != 0 {
		t.Errorf("Expected update for cell 0, got %d", updatedPayload.CellIndex)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := startTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}
