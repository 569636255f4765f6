package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/tejedor/trama/pkg/engine"
	"github.com/tejedor/trama/pkg/state"
)

// HealthChecker defines basic health check capabilities.
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities.
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Storage is the full persistence surface: the engine's store plus
// lifecycle management. Authored content is read-only; sessions,
// snapshots and the decision log are the mutable side.
type Storage interface {
	HealthChecker
	Closer
	engine.Store

	// SaveVars writes a character's snapshot outside the decision path.
	// Session creation seeds declared initial values through it.
	SaveVars(ctx context.Context, sessionID, characterID uuid.UUID, vars state.Vars) error
}
