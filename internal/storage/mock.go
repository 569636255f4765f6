package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tejedor/trama/pkg/engine"
	"github.com/tejedor/trama/pkg/state"
	"github.com/tejedor/trama/pkg/story"
)

type varsKeyT struct {
	session   uuid.UUID
	character uuid.UUID
}

// Mock is an in-memory Storage for tests. Stories are registered
// directly rather than read from disk.
type Mock struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*state.Session
	vars      map[varsKeyT]state.Vars
	decisions map[varsKeyT][]state.DecisionEvent
	eventIDs  map[uuid.UUID]bool
	stories   map[string]*story.Story

	// CommitErr, when set, makes CommitDecision fail. Used to verify
	// that failed submissions leak no state.
	CommitErr error
}

var _ Storage = (*Mock)(nil)

// NewMock creates an empty in-memory storage.
func NewMock() *Mock {
	return &Mock{
		sessions:  make(map[uuid.UUID]*state.Session),
		vars:      make(map[varsKeyT]state.Vars),
		decisions: make(map[varsKeyT][]state.DecisionEvent),
		eventIDs:  make(map[uuid.UUID]bool),
		stories:   make(map[string]*story.Story),
	}
}

func (m *Mock) Ping(ctx context.Context) error { return nil }
func (m *Mock) Close() error                   { return nil }

// RegisterStory makes a story bundle loadable by file name.
func (m *Mock) RegisterStory(fileName string, s *story.Story) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[fileName] = s
}

func (m *Mock) Story(ctx context.Context, fileName string) (*story.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[fileName]
	if !ok {
		return nil, fmt.Errorf("story %q not registered", fileName)
	}
	return s, nil
}

func (m *Mock) Session(ctx context.Context, id uuid.UUID) (*state.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, engine.ErrSessionNotFound
	}
	// Copies on both sides keep staged seat updates invisible until a
	// commit, matching the Redis implementation's serialization boundary.
	return sess.Clone(), nil
}

func (m *Mock) SaveSession(ctx context.Context, sess *state.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess.Clone()
	return nil
}

func (m *Mock) Vars(ctx context.Context, sessionID, characterID uuid.UUID) (state.Vars, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.vars[varsKeyT{sessionID, characterID}]; ok {
		return v.Clone(), nil
	}
	return state.Vars{}, nil
}

func (m *Mock) SaveVars(ctx context.Context, sessionID, characterID uuid.UUID, vars state.Vars) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vars[varsKeyT{sessionID, characterID}] = vars.Clone()
	return nil
}

func (m *Mock) CommitDecision(ctx context.Context, vars state.Vars, evt *state.DecisionEvent, sess *state.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CommitErr != nil {
		return m.CommitErr
	}
	if m.eventIDs[evt.ID] {
		return engine.ErrDuplicateEvent
	}
	m.eventIDs[evt.ID] = true
	key := varsKeyT{evt.SessionID, evt.CharacterID}
	m.vars[key] = vars.Clone()
	m.decisions[key] = append(m.decisions[key], *evt)
	m.sessions[sess.ID] = sess.Clone()
	return nil
}

func (m *Mock) Decisions(ctx context.Context, sessionID, characterID uuid.UUID) ([]state.DecisionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.decisions[varsKeyT{sessionID, characterID}]
	out := make([]state.DecisionEvent, len(events))
	copy(out, events)
	return out, nil
}

func (m *Mock) LatestDecisionAt(ctx context.Context, sessionID, characterID, nodeID uuid.UUID) (*state.DecisionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.decisions[varsKeyT{sessionID, characterID}]
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].NodeID == nodeID {
			evt := events[i]
			return &evt, nil
		}
	}
	return nil, nil
}
