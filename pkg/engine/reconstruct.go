package engine

import (
	"sort"

	"github.com/tejedor/trama/pkg/state"
	"github.com/tejedor/trama/pkg/story"
)

// ReconstructVars rebuilds a character's variable snapshot by folding
// the decision log over declared initial values: state = f(events).
//
// Replay applies the recorded After values directly instead of
// re-running the effect applicator. That keeps historical reconstruction
// byte-identical to what was observed live even if effect-application
// semantics later change.
func ReconstructVars(decls []story.VariableDeclaration, events []state.DecisionEvent) state.Vars {
	vars := state.Vars{}
	for _, d := range decls {
		if d.Initial != nil {
			vars[d.Name] = d.Initial
		}
	}

	// Stable sort: timestamp order, ties broken by log insertion order.
	ordered := make([]state.DecisionEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	for _, evt := range ordered {
		for _, d := range evt.AppliedEffects {
			if d.After == nil {
				delete(vars, d.Variable)
			} else {
				vars[d.Variable] = d.After
			}
		}
	}
	return vars
}
