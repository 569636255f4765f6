package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tejedor/trama/pkg/state"
)

// Controller orchestrates decision submission: capability check, effect
// application, atomic persistence, node resolution and seat updates.
// Decisions for a single character are strictly serialized by a
// per-character exclusive section held for the whole submission;
// unrelated characters progress independently (no session-wide lock).
type Controller struct {
	store  Store
	logger *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewController creates a controller over the given store.
func NewController(store Store, logger *slog.Logger) *Controller {
	return &Controller{
		store:  store,
		logger: logger,
		locks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

// SubmitRequest identifies one decision submission.
type SubmitRequest struct {
	SessionID   uuid.UUID `json:"session_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	CharacterID uuid.UUID `json:"character_id"`
	NodeID      uuid.UUID `json:"node_id"`
	OptionID    uuid.UUID `json:"option_id"`
}

// Outcome is the result of an accepted submission: the acting
// character's deltas plus a transition per affected character. A mix of
// resolved and unresolved transitions is a partial success, not an
// error.
type Outcome struct {
	Deltas      []state.Delta            `json:"deltas"`
	Transitions map[uuid.UUID]Transition `json:"transitions"`
}

// SubmitDecision validates, applies and records one decision, then
// resolves next-node outcomes for every character the origin node's
// decision table covers. Validation failures surface before any
// mutation; effects are either fully applied-and-logged or not applied
// at all.
func (c *Controller) SubmitDecision(ctx context.Context, req SubmitRequest) (*Outcome, error) {
	unlock := c.lockCharacter(req.CharacterID)
	defer unlock()

	sess, err := c.store.Session(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Controls(req.PlayerID, req.CharacterID) {
		return nil, ErrOwnershipViolation
	}

	s, err := c.store.Story(ctx, sess.StoryFile)
	if err != nil {
		return nil, fmt.Errorf("load story %q: %w", sess.StoryFile, err)
	}

	node := s.Node(req.NodeID)
	opt := s.Option(req.OptionID)
	if node == nil || opt == nil || opt.NodeID != req.NodeID {
		return nil, ErrInvalidOption
	}
	if node.CharacterID != req.CharacterID {
		// Joint nodes may be acted on by any table participant.
		table := s.TableFor(node.ID)
		if table == nil || !table.HasParticipant(req.CharacterID) {
			return nil, ErrInvalidOption
		}
	}

	vars, err := c.store.Vars(ctx, req.SessionID, req.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("load vars: %w", err)
	}

	next, deltas := ApplyEffects(opt.Effects, vars)

	evt := &state.DecisionEvent{
		ID:             uuid.New(),
		SessionID:      req.SessionID,
		PlayerID:       req.PlayerID,
		CharacterID:    req.CharacterID,
		NodeID:         req.NodeID,
		OptionID:       req.OptionID,
		Timestamp:      time.Now().UTC(),
		AppliedEffects: deltas,
	}
	transitions, err := resolveNext(ctx, c.store, s, node, opt, evt)
	if err != nil {
		return nil, err
	}

	c.applyTransitions(sess, transitions)
	sess.UpdatedAt = time.Now().UTC()

	// Snapshot, event and seat updates land in one atomic step. A failed
	// commit leaves no trace, so a client retry re-submits the whole
	// decision instead of double-applying it.
	if err := c.store.CommitDecision(ctx, next, evt, sess); err != nil {
		return nil, fmt.Errorf("commit decision: %w", err)
	}

	byChar := make(map[uuid.UUID]Transition, len(transitions))
	for _, t := range transitions {
		byChar[t.CharacterID] = t
	}

	c.logger.Info("decision recorded",
		"session_id", req.SessionID,
		"character_id", req.CharacterID,
		"option_id", req.OptionID,
		"deltas", len(deltas),
		"transitions", len(byChar))

	return &Outcome{Deltas: deltas, Transitions: byChar}, nil
}

// applyTransitions updates seat positions from resolution results.
// Unresolved characters keep their position so a corrected table can
// re-resolve them later.
func (c *Controller) applyTransitions(sess *state.Session, transitions []Transition) {
	for _, t := range transitions {
		seat := sess.Seat(t.CharacterID)
		if seat == nil {
			continue
		}
		switch t.Status {
		case TransitionNext:
			seat.NodeID = t.NodeID
			seat.Status = state.SeatPlaying
		case TransitionEnding:
			seat.NodeID = t.NodeID
			seat.Status = state.SeatEnded
			seat.Victory = t.Victory
		case TransitionPending:
			seat.Status = state.SeatPending
		}
	}
}

// CharacterState returns the materialized snapshot for a character.
func (c *Controller) CharacterState(ctx context.Context, sessionID, characterID uuid.UUID) (state.Vars, error) {
	if _, err := c.seat(ctx, sessionID, characterID); err != nil {
		return nil, err
	}
	return c.store.Vars(ctx, sessionID, characterID)
}

// ReconstructState rebuilds a character's snapshot from the decision
// log, bypassing the materialized cache. Audit and repair path; by the
// cache-coherence invariant its result equals CharacterState at all
// times.
func (c *Controller) ReconstructState(ctx context.Context, sessionID, characterID uuid.UUID) (state.Vars, error) {
	sess, err := c.store.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Seat(characterID) == nil {
		return nil, ErrCharacterNotSeated
	}
	s, err := c.store.Story(ctx, sess.StoryFile)
	if err != nil {
		return nil, fmt.Errorf("load story %q: %w", sess.StoryFile, err)
	}
	events, err := c.store.Decisions(ctx, sessionID, characterID)
	if err != nil {
		return nil, fmt.Errorf("load decisions: %w", err)
	}
	return ReconstructVars(s.DeclarationsFor(characterID), events), nil
}

// History lists a character's decision events in log order.
func (c *Controller) History(ctx context.Context, sessionID, characterID uuid.UUID) ([]state.DecisionEvent, error) {
	if _, err := c.seat(ctx, sessionID, characterID); err != nil {
		return nil, err
	}
	return c.store.Decisions(ctx, sessionID, characterID)
}

func (c *Controller) seat(ctx context.Context, sessionID, characterID uuid.UUID) (*state.Seat, error) {
	sess, err := c.store.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	seat := sess.Seat(characterID)
	if seat == nil {
		return nil, ErrCharacterNotSeated
	}
	return seat, nil
}

// lockCharacter acquires the character's exclusive section and returns
// its release func. Locks are never removed from the map; a session has
// a bounded cast.
func (c *Controller) lockCharacter(characterID uuid.UUID) func() {
	c.mu.Lock()
	l, ok := c.locks[characterID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[characterID] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}
