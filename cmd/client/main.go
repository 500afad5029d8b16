package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"gridrelay/pkg/protocol"
	"gridrelay/pkg/session"
)

// terminal client for the relay. Creates or joins a session, mirrors
// remote cell updates and accepts "set <index> <0|1>" commands on stdin.
type client struct {
	conn      *websocket.Conn
	mu        sync.Mutex
	sessionID string
	grid      []bool
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8000/ws", "Relay WebSocket URL")
	sessionID := flag.String("session", "", "Session id to join (empty creates a new session)")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", *serverURL, err)
		os.Exit(1)
	}
	defer conn.Close()

	c := &client{conn: conn}

	if *sessionID == "" {
		err = c.send(protocol.MsgTypeCreateSession, nil)
	} else {
		err = c.send(protocol.MsgTypeJoinSession, protocol.JoinSessionPayload{SessionID: *sessionID})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go c.readLoop(done)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-done:
			return
		default:
		}
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "quit" || line == "exit":
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			<-done
			return
		case line == "show":
			c.printGrid()
		case strings.HasPrefix(line, "set "):
			c.handleSet(line)
		case line == "":
		default:
			fmt.Println("commands: set <index> <0|1>, show, quit")
		}
	}
}

func (c *client) send(msgType protocol.MessageType, payload interface{}) error {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}

func (c *client) handleSet(line string) {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		fmt.Println("usage: set <index> <0|1>")
		return
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil || index < 0 || index >= session.GridCells {
		fmt.Printf("index must be 0..%d\n", session.GridCells-1)
		return
	}
	value := parts[2] == "1"

	c.mu.Lock()
	id := c.sessionID
	c.mu.Unlock()
	if id == "" {
		fmt.Println("not in a session yet")
		return
	}

	if err := c.send(protocol.MsgTypeUpdateGrid, protocol.UpdateGridPayload{
		SessionID: id,
		CellIndex: index,
		Value:     value,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
	}
}

func (c *client) readLoop(done chan struct{}) {
	defer close(done)

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				fmt.Fprintf(os.Stderr, "connection lost: %v\n", err)
			}
			return
		}

		switch msg.Type {
		case protocol.MsgTypeSessionCreated:
			var p protocol.SessionCreatedPayload
			if err := msg.ParsePayload(&p); err != nil {
				continue
			}
			c.setSession(p.SessionID, p.Grid)
			fmt.Printf("session created: %s\n", p.SessionID)
			c.printGrid()

		case protocol.MsgTypeSessionJoined:
			var p protocol.SessionJoinedPayload
			if err := msg.ParsePayload(&p); err != nil {
				continue
			}
			c.setSession(p.SessionID, p.Grid)
			fmt.Printf("joined session: %s\n", p.SessionID)
			c.printGrid()

		case protocol.MsgTypeGridUpdated:
			var p protocol.GridUpdatedPayload
			if err := msg.ParsePayload(&p); err != nil {
				continue
			}
			c.mu.Lock()
			if p.CellIndex >= 0 && p.CellIndex < len(c.grid) {
				c.grid[p.CellIndex] = p.Value
			}
			c.mu.Unlock()
			fmt.Printf("cell %d -> %v\n", p.CellIndex, p.Value)

		case protocol.MsgTypeError:
			var p protocol.ErrorPayload
			if err := msg.ParsePayload(&p); err != nil {
				continue
			}
			fmt.Fprintf(os.Stderr, "server error: %s\n", p.Message)
			return
		}
	}
}

func (c *client) setSession(id string, grid []bool) {
	c.mu.Lock()
	c.sessionID = id
	c.grid = grid
	c.mu.Unlock()
}

func (c *client) printGrid() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.grid) != session.GridCells {
		return
	}
	var b strings.Builder
	for row := 0; row < session.GridSize; row++ {
		for col := 0; col < session.GridSize; col++ {
			if c.grid[row*session.GridSize+col] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	fmt.Print(b.String())
}
