// Package messaging dispatches inbound connection events to their handlers.
// Each WebSocket event type (create_session, join_session, update_grid) has
// one Handler; the Dispatcher routes parsed messages to the right one. The
// handlers tie the session registry to the broadcast router and emit the
// reply events the protocol defines.
package messaging
