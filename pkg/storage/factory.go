package storage

import (
	"fmt"

	"gridrelay/pkg/config"
)

// NewStore returns a concrete Store based on store configuration
func NewStore(cfg config.StoreConfig) (Store, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
