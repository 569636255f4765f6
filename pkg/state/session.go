package state

import (
	"time"

	"github.com/google/uuid"
)

// SeatStatus tracks a character's traversal state machine:
// Playing -> (submit option) -> Playing | Pending | Ended.
type SeatStatus string

const (
	SeatPlaying SeatStatus = "playing"
	SeatPending SeatStatus = "pending" // awaiting co-participants at a joint node
	SeatEnded   SeatStatus = "ended"
)

// Seat binds one player to one character within a session and tracks the
// character's current position in the node graph.
type Seat struct {
	CharacterID uuid.UUID  `json:"character_id"`
	PlayerID    uuid.UUID  `json:"player_id"`
	NodeID      uuid.UUID  `json:"node_id"`
	Status      SeatStatus `json:"status"`
	Victory     bool       `json:"victory,omitempty"`
}

// Session is one running playthrough of a story. Seats are keyed by
// character ID; each character belongs to exactly one session at a time.
type Session struct {
	ID        uuid.UUID           `json:"id"`
	StoryFile string              `json:"story_file"`
	Seats     map[uuid.UUID]*Seat `json:"seats"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// NewSession creates an empty session for the given story file.
func NewSession(storyFile string) *Session {
	return &Session{
		ID:        uuid.New(),
		StoryFile: storyFile,
		Seats:     make(map[uuid.UUID]*Seat),
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy, seats included. Stores hand out copies so
// a caller can stage seat updates without touching the stored record
// until they commit.
func (s *Session) Clone() *Session {
	out := *s
	out.Seats = make(map[uuid.UUID]*Seat, len(s.Seats))
	for id, seat := range s.Seats {
		c := *seat
		out.Seats[id] = &c
	}
	return &out
}

// Controls reports whether the player currently controls the character.
// This is the capability check behind OwnershipViolation.
func (s *Session) Controls(playerID, characterID uuid.UUID) bool {
	seat, ok := s.Seats[characterID]
	return ok && seat.PlayerID == playerID
}

// Seat returns the seat for a character, or nil if the character is not
// part of this session.
func (s *Session) Seat(characterID uuid.UUID) *Seat {
	return s.Seats[characterID]
}
