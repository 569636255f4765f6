package state

// Delta records one variable change produced by a single effect. Before
// is nil when the variable was absent. Deltas are what get persisted into
// a DecisionEvent; reconstruction replays the After values directly.
type Delta struct {
	Variable string `json:"variable"`
	Before   any    `json:"before"`
	After    any    `json:"after"`
}

// NoOp reports whether the effect left the variable untouched (division
// by zero, division of an absent variable, non-numeric arithmetic).
func (d Delta) NoOp() bool {
	return Equal(d.Before, d.After)
}
