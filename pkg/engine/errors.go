package engine

import "errors"

// Validation failures are surfaced before any mutation; nothing in the
// engine is fatal to the process. UnresolvedMapping is deliberately not
// an error value: it is reported per character inside a Transition so
// the rest of the table can still resolve.
var (
	// ErrOwnershipViolation means the acting player does not control
	// the target character.
	ErrOwnershipViolation = errors.New("player does not control character")

	// ErrInvalidOption means the option does not belong to the given
	// node, or the node is not one the character may act on.
	ErrInvalidOption = errors.New("option does not belong to node")

	// ErrSessionNotFound means the session ID is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrCharacterNotSeated means the character has no seat in the
	// session.
	ErrCharacterNotSeated = errors.New("character not seated in session")

	// ErrDuplicateEvent is returned by stores when an event with the
	// same ID was already appended. The log is append-only and
	// idempotent on ID collision.
	ErrDuplicateEvent = errors.New("decision event already recorded")
)
