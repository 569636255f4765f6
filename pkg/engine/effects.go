package engine

import (
	"github.com/tejedor/trama/pkg/state"
	"github.com/tejedor/trama/pkg/story"
)

// ApplyEffects applies an ordered effect list left-to-right against a
// working snapshot and returns the new snapshot plus one delta per
// effect. The input snapshot is never mutated.
//
// Arithmetic on an absent variable uses the operator's identity:
// add yields the operand, sub yields its negation, mul yields zero.
// These rules are load-bearing: they are how a variable gets initialized
// by effect rather than by declaration. Division by zero, division of an
// absent variable, and arithmetic on non-numeric values are defined as
// no-ops, never errors.
func ApplyEffects(effects []story.Effect, vars state.Vars) (state.Vars, []state.Delta) {
	next := vars.Clone()
	deltas := make([]state.Delta, 0, len(effects))

	for _, e := range effects {
		before, present := next[e.Variable]
		after := applyOne(e, before, present)
		if after == nil {
			delete(next, e.Variable)
		} else {
			next[e.Variable] = after
		}
		deltas = append(deltas, state.Delta{Variable: e.Variable, Before: before, After: after})
	}
	return next, deltas
}

func applyOne(e story.Effect, before any, present bool) any {
	switch e.Op {
	case story.OpSet:
		return e.Operand

	case story.OpAdd, story.OpSub, story.OpMul:
		operand, ok := state.AsNumber(e.Operand)
		if !ok {
			return before
		}
		if !present {
			switch e.Op {
			case story.OpAdd:
				return operand
			case story.OpSub:
				return -operand
			default: // mul
				return float64(0)
			}
		}
		cur, ok := state.AsNumber(before)
		if !ok {
			return before
		}
		switch e.Op {
		case story.OpAdd:
			return cur + operand
		case story.OpSub:
			return cur - operand
		default:
			return cur * operand
		}

	case story.OpDiv:
		if !present {
			return nil
		}
		operand, ok := state.AsNumber(e.Operand)
		if !ok || operand == 0 {
			return before
		}
		cur, ok := state.AsNumber(before)
		if !ok {
			return before
		}
		return cur / operand

	default:
		return before
	}
}
