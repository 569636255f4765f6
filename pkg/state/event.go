package state

import (
	"time"

	"github.com/google/uuid"
)

// DecisionEvent is the immutable record of one accepted decision
// submission. Events are never edited or deleted; corrections are made
// by appending compensating events. Timestamps order a character's
// history, with log insertion order breaking ties.
type DecisionEvent struct {
	ID             uuid.UUID `json:"id"`
	SessionID      uuid.UUID `json:"session_id"`
	PlayerID       uuid.UUID `json:"player_id"`
	CharacterID    uuid.UUID `json:"character_id"`
	NodeID         uuid.UUID `json:"node_id"`
	OptionID       uuid.UUID `json:"option_id"`
	Timestamp      time.Time `json:"timestamp"`
	AppliedEffects []Delta   `json:"applied_effects,omitempty"`
}
