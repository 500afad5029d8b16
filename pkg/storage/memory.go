package storage

import (
	"context"
	"path"
	"sync"
)

// MemoryStore is an in-process Store implementation. It backs tests and
// single-node deployments where no external Redis is available.
type MemoryStore struct {
	mu     sync.RWMutex
	hashes map[string]map[string]string
	sets   map[string]map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes: make(map[string]map[string]string),
		sets:   make(map[string]map[string]struct{}),
	}
}

// GetAllFields returns a copy of all fields of a hash key
func (s *MemoryStore) GetAllFields(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields := make(map[string]string, len(s.hashes[key]))
	for field, value := range s.hashes[key] {
		fields[field] = value
	}
	return fields, nil
}

// SetField sets a single field of a hash key
func (s *MemoryStore) SetField(_ context.Context, key, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hashes[key] == nil {
		s.hashes[key] = make(map[string]string)
	}
	s.hashes[key][field] = value
	return nil
}

// SetFields sets multiple fields of a hash key at once
func (s *MemoryStore) SetFields(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hashes[key] == nil {
		s.hashes[key] = make(map[string]string, len(fields))
	}
	for field, value := range fields {
		s.hashes[key][field] = value
	}
	return nil
}

// AddToSet adds a member to a set key
func (s *MemoryStore) AddToSet(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sets[key] == nil {
		s.sets[key] = make(map[string]struct{})
	}
	s.sets[key][member] = struct{}{}
	return nil
}

// RemoveFromSet removes a member from a set key. Removing a member that is
// not present is not an error.
func (s *MemoryStore) RemoveFromSet(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if members, ok := s.sets[key]; ok {
		delete(members, member)
		if len(members) == 0 {
			delete(s.sets, key)
		}
	}
	return nil
}

// SetCardinality returns the number of members in a set key
func (s *MemoryStore) SetCardinality(_ context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.sets[key])), nil
}

// Exists reports whether a key exists as a hash or a set
func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.hashes[key]; ok {
		return true, nil
	}
	_, ok := s.sets[key]
	return ok, nil
}

// Delete removes the given keys
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.hashes, key)
		delete(s.sets, key)
	}
	return nil
}

// ScanKeys returns all keys matching the glob pattern
func (s *MemoryStore) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	seen := make(map[string]struct{})
	for key := range s.hashes {
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
			seen[key] = struct{}{}
		}
	}
	for key := range s.sets {
		if _, dup := seen[key]; dup {
			continue
		}
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}
