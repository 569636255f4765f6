package story

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Validate checks the referential integrity the engine assumes at play
// time. The engine treats content as already validated, so this runs in
// the loader and in cmd/validate, never on the submission path.
func (s *Story) Validate() error {
	var errs []string
	addf := func(format string, args ...any) {
		errs = append(errs, "  - "+fmt.Sprintf(format, args...))
	}

	if s.Name == "" {
		addf("story name is required")
	}
	if len(s.Characters) == 0 {
		addf("story has no characters")
	}

	chars := make(map[uuid.UUID]bool, len(s.Characters))
	for _, c := range s.Characters {
		if c.ID == uuid.Nil {
			addf("character %q has no ID", c.Name)
			continue
		}
		if chars[c.ID] {
			addf("duplicate character ID %s", c.ID)
		}
		chars[c.ID] = true
	}

	declared := make(map[uuid.UUID]map[string]bool)
	for _, d := range s.Declarations {
		if !chars[d.CharacterID] {
			addf("variable %q declared for unknown character %s", d.Name, d.CharacterID)
			continue
		}
		if declared[d.CharacterID] == nil {
			declared[d.CharacterID] = make(map[string]bool)
		}
		if declared[d.CharacterID][d.Name] {
			addf("variable %q declared twice for character %s", d.Name, d.CharacterID)
		}
		declared[d.CharacterID][d.Name] = true
	}

	nodes := make(map[uuid.UUID]*Node, len(s.Nodes))
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.ID == uuid.Nil {
			addf("node %q has no ID", n.Title)
			continue
		}
		if nodes[n.ID] != nil {
			addf("duplicate node ID %s", n.ID)
		}
		nodes[n.ID] = n
		if !chars[n.CharacterID] {
			addf("node %q belongs to unknown character %s", n.Title, n.CharacterID)
		}
		switch n.Kind {
		case NodeNarrative, NodeDecision, NodeEvent, NodeEnding:
		default:
			addf("node %q has invalid kind %q", n.Title, n.Kind)
		}
		if n.Victory && n.Kind != NodeEnding {
			addf("node %q is marked victory but is not an ending", n.Title)
		}
	}

	tableAt := make(map[uuid.UUID]*DecisionTable, len(s.Tables))
	for i := range s.Tables {
		t := &s.Tables[i]
		if tableAt[t.OriginNodeID] == nil {
			tableAt[t.OriginNodeID] = t
		}
	}

	for _, o := range s.Options {
		node, ok := nodes[o.NodeID]
		if !ok {
			addf("option %q references unknown node %s", o.Text, o.NodeID)
			continue
		}
		if o.DirectTarget != uuid.Nil && nodes[o.DirectTarget] == nil {
			addf("option %q targets unknown node %s", o.Text, o.DirectTarget)
		}
		// Effects apply to whichever character picks the option. On a
		// joint node that is any table participant, so the variable must
		// be declared for all of them, not just the node's owner.
		actors := []uuid.UUID{node.CharacterID}
		if t := tableAt[o.NodeID]; t != nil {
			for _, p := range t.Participants {
				if p != node.CharacterID {
					actors = append(actors, p)
				}
			}
		}
		for _, e := range o.Effects {
			switch e.Op {
			case OpSet, OpAdd, OpSub, OpMul, OpDiv:
			default:
				addf("option %q has invalid effect operator %q", o.Text, e.Op)
			}
			for _, actor := range actors {
				if !declared[actor][e.Variable] {
					addf("option %q effect references undeclared variable %q for character %s",
						o.Text, e.Variable, actor)
				}
			}
		}
	}

	origins := make(map[uuid.UUID]bool)
	for _, t := range s.Tables {
		if nodes[t.OriginNodeID] == nil {
			addf("table %s anchored at unknown node %s", t.ID, t.OriginNodeID)
			continue
		}
		if origins[t.OriginNodeID] {
			addf("node %s has more than one decision table", t.OriginNodeID)
		}
		origins[t.OriginNodeID] = true
		if len(t.Participants) == 0 {
			addf("table %s has no participants", t.ID)
		}
		for _, p := range t.Participants {
			if !chars[p] {
				addf("table %s lists unknown participant %s", t.ID, p)
			}
		}
		for key, dest := range t.Mappings {
			for charID, target := range dest {
				if !t.HasParticipant(charID) {
					addf("table %s mapping %q covers non-participant %s", t.ID, key, charID)
				}
				if nodes[target] == nil {
					addf("table %s mapping %q targets unknown node %s", t.ID, key, target)
				}
			}
		}
		for charID, target := range t.Default {
			if !t.HasParticipant(charID) {
				addf("table %s default covers non-participant %s", t.ID, charID)
			}
			if nodes[target] == nil {
				addf("table %s default targets unknown node %s", t.ID, target)
			}
		}
	}

	for charID, opening := range s.Openings {
		if !chars[charID] {
			addf("opening declared for unknown character %s", charID)
		}
		if nodes[opening] == nil {
			addf("opening for character %s references unknown node %s", charID, opening)
		}
	}
	for id := range chars {
		if _, ok := s.Openings[id]; !ok {
			addf("character %s has no opening node", id)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("story validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}
