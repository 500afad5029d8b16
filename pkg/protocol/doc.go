// Package protocol defines the wire format for the grid relay.
// It contains the message envelope, the event types exchanged over the
// WebSocket connection, and their payload structures.
package protocol
