package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/tejedor/trama/pkg/state"
	"github.com/tejedor/trama/pkg/story"
)

// TransitionStatus is the outcome of resolution for one character.
type TransitionStatus string

const (
	// TransitionNext moves the character to a new node.
	TransitionNext TransitionStatus = "next"
	// TransitionEnding terminates the character's branch.
	TransitionEnding TransitionStatus = "ending"
	// TransitionPending means the joint combination key cannot be formed
	// yet because a co-participant has not decided. Not an error; the
	// caller re-resolves when the sibling decision arrives.
	TransitionPending TransitionStatus = "pending"
	// TransitionNone means the node has no direct link and no table:
	// a terminal, narrative-only situation.
	TransitionNone TransitionStatus = "none"
	// TransitionUnresolved means a table exists but neither its mappings
	// nor its default yields a destination for this character. Reported
	// per character; siblings in the same table may still resolve.
	TransitionUnresolved TransitionStatus = "unresolved"
)

// Transition is the per-character result of resolving a decision.
type Transition struct {
	CharacterID uuid.UUID        `json:"character_id"`
	Status      TransitionStatus `json:"status"`
	NodeID      uuid.UUID        `json:"node_id,omitempty"`
	Victory     bool             `json:"victory,omitempty"`
}

// CombinationKey builds the joint key for a decision table lookup from
// every participant's chosen option at the origin node, ordered by
// character ID. The key deliberately encodes the choices of all
// participants, not just the acting character: a single-option key would
// collapse the table into a per-option switch that direct links already
// cover.
func CombinationKey(choices map[uuid.UUID]uuid.UUID) string {
	chars := make([]uuid.UUID, 0, len(choices))
	for c := range choices {
		chars = append(chars, c)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i].String() < chars[j].String() })

	parts := make([]string, 0, len(chars))
	for _, c := range chars {
		parts = append(parts, c.String()+"="+choices[c].String())
	}
	return strings.Join(parts, "&")
}

// resolveNext computes next-node outcomes for every character affected
// by the decision carried in evt, before it is committed. Direct option
// links always win and affect only the acting character. Otherwise the
// node's decision table is consulted; with no table the node is terminal
// for the acting character.
func resolveNext(ctx context.Context, st Store, s *story.Story, node *story.Node, opt *story.Option, evt *state.DecisionEvent) ([]Transition, error) {
	if opt.DirectTarget != uuid.Nil {
		return []Transition{transitionTo(s, evt.CharacterID, opt.DirectTarget)}, nil
	}

	table := s.TableFor(node.ID)
	if table == nil {
		return []Transition{{CharacterID: evt.CharacterID, Status: TransitionNone}}, nil
	}

	// Gather every participant's most recent choice at the origin node.
	// The acting character's choice comes from the uncommitted event;
	// siblings come from the log. Resolution is a pure function of
	// currently-known decisions, so it can be recomputed each time any
	// sibling submits.
	choices := make(map[uuid.UUID]uuid.UUID, len(table.Participants))
	var decided []uuid.UUID
	for _, p := range table.Participants {
		if p == evt.CharacterID {
			choices[p] = evt.OptionID
			decided = append(decided, p)
			continue
		}
		prev, err := st.LatestDecisionAt(ctx, evt.SessionID, p, node.ID)
		if err != nil {
			return nil, fmt.Errorf("latest decision for %s at %s: %w", p, node.ID, err)
		}
		if prev == nil {
			continue
		}
		choices[p] = prev.OptionID
		decided = append(decided, p)
	}

	if len(choices) < len(table.Participants) {
		// The joint key is incomplete. Everyone who has decided waits.
		out := make([]Transition, 0, len(decided))
		for _, p := range decided {
			out = append(out, Transition{CharacterID: p, Status: TransitionPending})
		}
		return out, nil
	}

	dest := table.Mappings[CombinationKey(choices)]
	out := make([]Transition, 0, len(table.Participants))
	for _, p := range table.Participants {
		target, ok := dest[p]
		if !ok {
			target, ok = table.Default[p]
		}
		if !ok {
			out = append(out, Transition{CharacterID: p, Status: TransitionUnresolved})
			continue
		}
		out = append(out, transitionTo(s, p, target))
	}
	return out, nil
}

func transitionTo(s *story.Story, characterID, target uuid.UUID) Transition {
	if n := s.Node(target); n != nil && n.Kind == story.NodeEnding {
		return Transition{CharacterID: characterID, Status: TransitionEnding, NodeID: target, Victory: n.Victory}
	}
	return Transition{CharacterID: characterID, Status: TransitionNext, NodeID: target}
}
