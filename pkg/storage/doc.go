// Package storage provides the shared state store used by the session
// registry. The Store interface exposes the hash, set and key operations the
// relay needs; implementations exist for Redis (shared across processes) and
// in-process memory (tests, single-node deployments).
package storage
