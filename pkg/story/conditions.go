package story

import (
	"github.com/google/uuid"
	"github.com/tejedor/trama/pkg/state"
)

// Comparator is a comparison operator in a visibility or content
// condition. The JSON forms match the authoring tools.
type Comparator string

const (
	CmpEq Comparator = "=="
	CmpNe Comparator = "!="
	CmpGt Comparator = ">"
	CmpLt Comparator = "<"
	CmpGe Comparator = ">="
	CmpLe Comparator = "<="
)

// Condition compares one variable against a literal value. A list of
// conditions is a conjunction.
type Condition struct {
	Variable string     `json:"variable"`
	Op       Comparator `json:"op"`
	Value    any        `json:"value"`
}

// EvalConditions evaluates the AND of all conditions against a variable
// snapshot. A condition referencing an unset variable is false rather
// than an error, so content keeps degrading gracefully while authors add
// variables incrementally. Ordering comparators coerce both operands to
// numbers; a non-coercible value makes that single condition false.
func EvalConditions(conds []Condition, vars state.Vars) bool {
	for _, c := range conds {
		if !evalCondition(c, vars) {
			return false
		}
	}
	return true
}

func evalCondition(c Condition, vars state.Vars) bool {
	cur, ok := vars[c.Variable]
	if !ok {
		return false
	}

	switch c.Op {
	case CmpEq:
		return state.Equal(cur, c.Value)
	case CmpNe:
		return !state.Equal(cur, c.Value)
	case CmpGt, CmpLt, CmpGe, CmpLe:
		a, okA := state.AsNumber(cur)
		b, okB := state.AsNumber(c.Value)
		if !okA || !okB {
			return false
		}
		switch c.Op {
		case CmpGt:
			return a > b
		case CmpLt:
			return a < b
		case CmpGe:
			return a >= b
		default:
			return a <= b
		}
	default:
		return false
	}
}

// SelectContent returns the node content to show for the given snapshot:
// the first alternative whose conditions pass, else the base content.
func (n *Node) SelectContent(vars state.Vars) string {
	for _, alt := range n.Alternatives {
		if len(alt.When) > 0 && EvalConditions(alt.When, vars) {
			return alt.Content
		}
	}
	return n.Content
}

// VisibleOptions filters a node's options by their visibility
// conditions, preserving authored order.
func (s *Story) VisibleOptions(nodeID uuid.UUID, vars state.Vars) []Option {
	var out []Option
	for _, o := range s.OptionsFor(nodeID) {
		if len(o.Visibility) == 0 || EvalConditions(o.Visibility, vars) {
			out = append(out, o)
		}
	}
	return out
}
