package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/tejedor/trama/pkg/state"
	"github.com/tejedor/trama/pkg/story"
)

// Store is the persistence surface the engine needs. Implementations
// live in internal/storage; the engine itself makes no assumption about
// where snapshots and events are kept, only that CommitDecision is
// atomic and the decision log preserves insertion order.
type Store interface {
	// Session loads a session record, or ErrSessionNotFound.
	Session(ctx context.Context, id uuid.UUID) (*state.Session, error)

	// SaveSession persists a session record (seat positions included).
	SaveSession(ctx context.Context, sess *state.Session) error

	// Story loads the authored content bundle a session plays through.
	Story(ctx context.Context, fileName string) (*story.Story, error)

	// Vars returns a character's materialized variable snapshot.
	Vars(ctx context.Context, sessionID, characterID uuid.UUID) (state.Vars, error)

	// CommitDecision persists the new snapshot, appends the event and
	// saves the updated session record in one atomic step. Returns
	// ErrDuplicateEvent when the event ID was already appended, without
	// re-applying anything.
	CommitDecision(ctx context.Context, vars state.Vars, evt *state.DecisionEvent, sess *state.Session) error

	// Decisions lists a character's events in log insertion order.
	Decisions(ctx context.Context, sessionID, characterID uuid.UUID) ([]state.DecisionEvent, error)

	// LatestDecisionAt returns a character's most recent event at the
	// given node, or nil when the character has not decided there.
	LatestDecisionAt(ctx context.Context, sessionID, characterID, nodeID uuid.UUID) (*state.DecisionEvent, error)
}
