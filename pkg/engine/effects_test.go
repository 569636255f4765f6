package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tejedor/trama/pkg/state"
	"github.com/tejedor/trama/pkg/story"
)

func effect(variable string, op story.EffectOp, operand any) story.Effect {
	return story.Effect{Variable: variable, Op: op, Operand: operand}
}

func TestApplyEffects_AddToPresent(t *testing.T) {
	vars := state.Vars{"coraje": float64(5)}
	next, deltas := ApplyEffects([]story.Effect{effect("coraje", story.OpAdd, 1)}, vars)

	if got := next["coraje"]; got != float64(6) {
		t.Errorf("expected coraje=6, got %v", got)
	}
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d", len(deltas))
	}
	d := deltas[0]
	if d.Variable != "coraje" || d.Before != float64(5) || d.After != float64(6) {
		t.Errorf("unexpected delta: %+v", d)
	}
}

func TestApplyEffects_ArithmeticOnAbsent(t *testing.T) {
	tests := []struct {
		name string
		op   story.EffectOp
		want any
	}{
		{"sub seeds negated operand", story.OpSub, float64(-1)},
		{"add seeds operand", story.OpAdd, float64(1)},
		{"mul seeds zero", story.OpMul, float64(0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, deltas := ApplyEffects([]story.Effect{effect("miedo", tc.op, 1)}, state.Vars{})
			if got := next["miedo"]; got != tc.want {
				t.Errorf("expected miedo=%v, got %v", tc.want, got)
			}
			if deltas[0].Before != nil {
				t.Errorf("expected nil Before for absent variable, got %v", deltas[0].Before)
			}
			if deltas[0].After != tc.want {
				t.Errorf("expected After=%v, got %v", tc.want, deltas[0].After)
			}
		})
	}
}

func TestApplyEffects_DivByZeroIsNoOp(t *testing.T) {
	vars := state.Vars{"poder": float64(8)}
	next, deltas := ApplyEffects([]story.Effect{effect("poder", story.OpDiv, 0)}, vars)

	if got := next["poder"]; got != float64(8) {
		t.Errorf("expected poder unchanged at 8, got %v", got)
	}
	// The no-op is still logged: one delta with Before == After.
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d", len(deltas))
	}
	if deltas[0].Before != float64(8) || deltas[0].After != float64(8) {
		t.Errorf("expected delta {poder, 8, 8}, got %+v", deltas[0])
	}
}

func TestApplyEffects_DivOnAbsentStaysAbsent(t *testing.T) {
	next, deltas := ApplyEffects([]story.Effect{effect("poder", story.OpDiv, 2)}, state.Vars{})

	if _, ok := next["poder"]; ok {
		t.Errorf("expected poder to stay absent, got %v", next["poder"])
	}
	if deltas[0].Before != nil || deltas[0].After != nil {
		t.Errorf("expected nil-to-nil delta, got %+v", deltas[0])
	}
}

func TestApplyEffects_Div(t *testing.T) {
	next, _ := ApplyEffects([]story.Effect{effect("poder", story.OpDiv, 2)}, state.Vars{"poder": float64(8)})
	if got := next["poder"]; got != float64(4) {
		t.Errorf("expected poder=4, got %v", got)
	}
}

func TestApplyEffects_SetAnyValue(t *testing.T) {
	next, _ := ApplyEffects([]story.Effect{
		effect("nombre", story.OpSet, "Ismael"),
		effect("coraje", story.OpSet, 3),
	}, state.Vars{"coraje": float64(5)})

	assert.Equal(t, "Ismael", next["nombre"])
	assert.Equal(t, 3, next["coraje"])
}

func TestApplyEffects_ArithmeticOnNonNumericIsNoOp(t *testing.T) {
	vars := state.Vars{"nombre": "Ismael"}
	next, deltas := ApplyEffects([]story.Effect{effect("nombre", story.OpAdd, 1)}, vars)

	if got := next["nombre"]; got != "Ismael" {
		t.Errorf("expected nombre unchanged, got %v", got)
	}
	if deltas[0].Before != "Ismael" || deltas[0].After != "Ismael" {
		t.Errorf("expected identity delta, got %+v", deltas[0])
	}
}

func TestApplyEffects_NonNumericOperandIsNoOp(t *testing.T) {
	vars := state.Vars{"coraje": float64(5)}
	next, _ := ApplyEffects([]story.Effect{effect("coraje", story.OpMul, "mucho")}, vars)
	if got := next["coraje"]; got != float64(5) {
		t.Errorf("expected coraje unchanged, got %v", got)
	}
}

func TestApplyEffects_NumericStringCoerces(t *testing.T) {
	vars := state.Vars{"coraje": "5"}
	next, _ := ApplyEffects([]story.Effect{effect("coraje", story.OpAdd, 1)}, vars)
	if got := next["coraje"]; got != float64(6) {
		t.Errorf("expected coraje=6 from string coercion, got %v", got)
	}
}

func TestApplyEffects_LeftToRightChaining(t *testing.T) {
	next, deltas := ApplyEffects([]story.Effect{
		effect("oro", story.OpAdd, 10),
		effect("oro", story.OpMul, 3),
		effect("oro", story.OpSub, 5),
	}, state.Vars{})

	if got := next["oro"]; got != float64(25) {
		t.Errorf("expected oro=25, got %v", got)
	}
	// Each step's Before is the previous step's After.
	if deltas[1].Before != float64(10) || deltas[2].Before != float64(30) {
		t.Errorf("deltas do not chain: %+v", deltas)
	}
}

func TestApplyEffects_InputNotMutated(t *testing.T) {
	vars := state.Vars{"coraje": float64(5)}
	_, _ = ApplyEffects([]story.Effect{effect("coraje", story.OpAdd, 1)}, vars)
	if got := vars["coraje"]; got != float64(5) {
		t.Errorf("input snapshot mutated: coraje=%v", got)
	}
}

func TestApplyEffects_Deterministic(t *testing.T) {
	effects := []story.Effect{
		effect("coraje", story.OpAdd, 2),
		effect("miedo", story.OpSub, 1),
		effect("poder", story.OpDiv, 0),
	}
	vars := state.Vars{"coraje": float64(5), "poder": float64(8)}

	first, firstDeltas := ApplyEffects(effects, vars)
	second, secondDeltas := ApplyEffects(effects, vars)

	assert.Equal(t, first, second)
	assert.Equal(t, firstDeltas, secondDeltas)
}
