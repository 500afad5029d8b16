package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	apperrors "gridrelay/pkg/errors"
	"gridrelay/pkg/logger"
	"gridrelay/pkg/storage"
)

const (
	// GridSize is the fixed edge length of every session grid
	GridSize = 16

	// GridCells is the total number of cells in a session grid
	GridCells = GridSize * GridSize

	// sessionIDLength is the number of UUID characters kept as a session id
	sessionIDLength = 8

	// maxIDAttempts bounds id regeneration when a fresh id collides
	maxIDAttempts = 5
)

// Registry coordinates session lifecycle against the shared store.
// Membership mutation and the empty-check-then-delete in Leave are guarded
// by a per-session mutex so a join cannot race a concurrent teardown.
type Registry struct {
	store  storage.Store
	router Router
	locks  *keyedMutex
	log    *logger.Logger
}

// NewRegistry creates a registry over the given store and router
func NewRegistry(store storage.Store, router Router) *Registry {
	return &Registry{
		store:  store,
		router: router,
		locks:  newKeyedMutex(),
		log:    logger.Get().With("component", "registry"),
	}
}

func gridKey(sessionID string) string {
	return "session:" + sessionID + ":grid"
}

func membersKey(sessionID string) string {
	return "session:" + sessionID + ":members"
}

// membersKeyPattern matches every session membership key in the store
const membersKeyPattern = "session:*:members"

func sessionIDFromMembersKey(key string) string {
	id := strings.TrimPrefix(key, "session:")
	return strings.TrimSuffix(id, ":members")
}

func cellValue(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// CreateSession creates a fresh session, adds the requester as its first
// member and returns the new id together with the all-false initial grid
func (r *Registry) CreateSession(ctx context.Context, connID string) (string, []bool, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		sessionID := uuid.NewString()[:sessionIDLength]

		exists, err := r.store.Exists(ctx, gridKey(sessionID))
		if err != nil {
			return "", nil, fmt.Errorf("create session: %w", err)
		}
		if exists {
			r.log.WarnWith("session id collision, regenerating", "sessionID", sessionID)
			continue
		}

		unlock := r.locks.Lock(sessionID)

		fields := make(map[string]string, GridCells)
		for i := 0; i < GridCells; i++ {
			fields[strconv.Itoa(i)] = "0"
		}
		if err := r.store.SetFields(ctx, gridKey(sessionID), fields); err != nil {
			unlock()
			return "", nil, fmt.Errorf("create session %s: %w", sessionID, err)
		}
		if err := r.store.AddToSet(ctx, membersKey(sessionID), connID); err != nil {
			unlock()
			return "", nil, fmt.Errorf("create session %s: %w", sessionID, err)
		}
		unlock()

		r.router.Join(connID, sessionID)
		r.log.InfoWith("session created", "sessionID", sessionID, "connID", connID)

		return sessionID, make([]bool, GridCells), nil
	}

	return "", nil, apperrors.ErrSessionIDExhausted
}

// JoinSession adds the requester to an existing session and returns the
// current grid. A missing session id yields ErrSessionNotFound without
// mutating the store.
func (r *Registry) JoinSession(ctx context.Context, connID, sessionID string) ([]bool, error) {
	unlock := r.locks.Lock(sessionID)
	defer unlock()

	exists, err := r.store.Exists(ctx, gridKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("join session %s: %w", sessionID, err)
	}
	if !exists {
		return nil, apperrors.ErrSessionNotFound
	}

	if err := r.store.AddToSet(ctx, membersKey(sessionID), connID); err != nil {
		return nil, fmt.Errorf("join session %s: %w", sessionID, err)
	}

	grid, err := r.grid(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	r.router.Join(connID, sessionID)
	r.log.InfoWith("session joined", "sessionID", sessionID, "connID", connID)

	return grid, nil
}

// UpdateCell writes a single cell of a session's grid. Each cell is a
// separate store field, so concurrent updates to distinct cells never
// overwrite each other.
func (r *Registry) UpdateCell(ctx context.Context, sessionID string, index int, value bool) error {
	if index < 0 || index >= GridCells {
		return apperrors.ErrCellOutOfRange
	}

	unlock := r.locks.Lock(sessionID)
	defer unlock()

	exists, err := r.store.Exists(ctx, gridKey(sessionID))
	if err != nil {
		return fmt.Errorf("update session %s: %w", sessionID, err)
	}
	if !exists {
		return apperrors.ErrSessionNotFound
	}

	if err := r.store.SetField(ctx, gridKey(sessionID), strconv.Itoa(index), cellValue(value)); err != nil {
		return fmt.Errorf("update session %s: %w", sessionID, err)
	}

	return nil
}

// Grid returns the current grid of a session
func (r *Registry) Grid(ctx context.Context, sessionID string) ([]bool, error) {
	exists, err := r.store.Exists(ctx, gridKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	if !exists {
		return nil, apperrors.ErrSessionNotFound
	}
	return r.grid(ctx, sessionID)
}

func (r *Registry) grid(ctx context.Context, sessionID string) ([]bool, error) {
	fields, err := r.store.GetAllFields(ctx, gridKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	grid := make([]bool, GridCells)
	for field, value := range fields {
		i, err := strconv.Atoi(field)
		if err != nil || i < 0 || i >= GridCells {
			continue
		}
		grid[i] = value == "1"
	}
	return grid, nil
}

// SessionIDs lists the ids of all live sessions
func (r *Registry) SessionIDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.ScanKeys(ctx, membersKeyPattern)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, sessionIDFromMembersKey(key))
	}
	return ids, nil
}

// Leave removes a disconnecting connection from every session it belongs to
// and deletes sessions whose member set becomes empty. Calling it for a
// connection that belongs to no session is a no-op.
func (r *Registry) Leave(ctx context.Context, connID string) error {
	keys, err := r.store.ScanKeys(ctx, membersKeyPattern)
	if err != nil {
		return fmt.Errorf("leave %s: %w", connID, err)
	}

	var firstErr error
	for _, key := range keys {
		sessionID := sessionIDFromMembersKey(key)
		if err := r.leaveSession(ctx, connID, sessionID); err != nil {
			r.log.ErrorWithErr("leave failed", err, "sessionID", sessionID, "connID", connID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Registry) leaveSession(ctx context.Context, connID, sessionID string) error {
	unlock := r.locks.Lock(sessionID)
	defer unlock()

	if err := r.store.RemoveFromSet(ctx, membersKey(sessionID), connID); err != nil {
		return err
	}

	remaining, err := r.store.SetCardinality(ctx, membersKey(sessionID))
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}

	if err := r.store.Delete(ctx, gridKey(sessionID), membersKey(sessionID)); err != nil {
		return err
	}
	r.log.InfoWith("session deleted", "sessionID", sessionID)
	return nil
}
