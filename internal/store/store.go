// Package store provides the durable persistence gateway for sessions and turns.
package store

import (
	"context"
	"errors"

	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

// ErrNotFound reports that the requested record does not exist. It is distinct
// from transient I/O failures so callers can map it to their own taxonomy.
var ErrNotFound = errors.New("not found")

// Gateway is the narrow persistence interface the session core depends on.
// Implementations must report missing records as ErrNotFound.
type Gateway interface {
	// CreateSession persists a new session record.
	CreateSession(ctx context.Context, session *types.Session) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, sessionID string) (*types.Session, error)

	// UpdateSession replaces an existing session record.
	UpdateSession(ctx context.Context, session *types.Session) error

	// ListSessionsByOwner returns all sessions owned by ownerID, unordered.
	ListSessionsByOwner(ctx context.Context, ownerID string) ([]*types.Session, error)

	// CountActiveSessionsByOwner counts the owner's sessions in active status.
	CountActiveSessionsByOwner(ctx context.Context, ownerID string) (int, error)

	// ScanSessions iterates every stored session. Used by the idle sweep.
	ScanSessions(ctx context.Context, fn func(*types.Session) error) error

	// AppendTurn persists one turn. Turns are append-only.
	AppendTurn(ctx context.Context, turn *types.Turn) error

	// ListTurns returns a session's turns in creation order.
	ListTurns(ctx context.Context, sessionID string) ([]*types.Turn, error)
}
