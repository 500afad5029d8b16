package storage

import "context"

// Store defines the interface for shared session state operations.
// Grid state is kept in hashes (one field per cell) and membership in sets,
// so a single cell write or member change never rewrites the whole session.
type Store interface {
	// Hash operations
	GetAllFields(ctx context.Context, key string) (map[string]string, error)
	SetField(ctx context.Context, key, field, value string) error
	SetFields(ctx context.Context, key string, fields map[string]string) error

	// Set operations
	AddToSet(ctx context.Context, key, member string) error
	RemoveFromSet(ctx context.Context, key, member string) error
	SetCardinality(ctx context.Context, key string) (int64, error)

	// Key operations
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)

	// Lifecycle
	Close() error
}
