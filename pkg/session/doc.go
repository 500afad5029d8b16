// Package session implements the session registry, the core coordination
// layer of the relay. It translates connection events into store operations:
// session creation, joining, per-cell grid updates, and teardown when the
// last member disconnects. Delivery to connected members goes through the
// Router interface so the registry never touches the transport directly.
package session
