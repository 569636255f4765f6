package story

import (
	"testing"

	"github.com/google/uuid"
	"github.com/tejedor/trama/pkg/state"
)

func TestEvalConditions(t *testing.T) {
	vars := state.Vars{
		"coraje": float64(5),
		"nombre": "Ismael",
		"vivo":   true,
	}

	tests := []struct {
		name  string
		conds []Condition
		want  bool
	}{
		{"empty conjunction is true", nil, true},
		{"numeric equality", []Condition{{Variable: "coraje", Op: CmpEq, Value: 5}}, true},
		{"numeric inequality", []Condition{{Variable: "coraje", Op: CmpNe, Value: 4}}, true},
		{"greater", []Condition{{Variable: "coraje", Op: CmpGt, Value: 4}}, true},
		{"greater or equal boundary", []Condition{{Variable: "coraje", Op: CmpGe, Value: 5}}, true},
		{"less fails", []Condition{{Variable: "coraje", Op: CmpLt, Value: 5}}, false},
		{"string equality", []Condition{{Variable: "nombre", Op: CmpEq, Value: "Ismael"}}, true},
		{"boolean equality", []Condition{{Variable: "vivo", Op: CmpEq, Value: true}}, true},
		{"unset variable is false", []Condition{{Variable: "miedo", Op: CmpEq, Value: 0}}, false},
		{"unset variable under !=", []Condition{{Variable: "miedo", Op: CmpNe, Value: 0}}, false},
		{"ordering on non-numeric is false", []Condition{{Variable: "nombre", Op: CmpGt, Value: 1}}, false},
		{"conjunction all pass", []Condition{
			{Variable: "coraje", Op: CmpGe, Value: 5},
			{Variable: "vivo", Op: CmpEq, Value: true},
		}, true},
		{"conjunction one fails", []Condition{
			{Variable: "coraje", Op: CmpGe, Value: 5},
			{Variable: "coraje", Op: CmpLt, Value: 0},
		}, false},
		{"unknown operator is false", []Condition{{Variable: "coraje", Op: "~", Value: 5}}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvalConditions(tc.conds, vars); got != tc.want {
				t.Errorf("EvalConditions(%v) = %v, want %v", tc.conds, got, tc.want)
			}
		})
	}
}

func TestEvalConditions_NumericStringCoercion(t *testing.T) {
	vars := state.Vars{"coraje": "5"}
	if !EvalConditions([]Condition{{Variable: "coraje", Op: CmpGe, Value: float64(5)}}, vars) {
		t.Error("expected numeric string to coerce in ordering comparison")
	}
	if !EvalConditions([]Condition{{Variable: "coraje", Op: CmpEq, Value: 5}}, vars) {
		t.Error("expected numeric string to compare equal to number")
	}
}

func TestSelectContent(t *testing.T) {
	n := &Node{
		Content: "base",
		Alternatives: []AltContent{
			{Content: "fuerte", When: []Condition{{Variable: "poder", Op: CmpGe, Value: 8}}},
			{Content: "debil", When: []Condition{{Variable: "poder", Op: CmpLt, Value: 8}}},
		},
	}

	if got := n.SelectContent(state.Vars{"poder": float64(9)}); got != "fuerte" {
		t.Errorf("expected first matching alternative, got %q", got)
	}
	if got := n.SelectContent(state.Vars{"poder": float64(3)}); got != "debil" {
		t.Errorf("expected second alternative, got %q", got)
	}
	if got := n.SelectContent(state.Vars{}); got != "base" {
		t.Errorf("expected base content when nothing matches, got %q", got)
	}
}

func TestVisibleOptions(t *testing.T) {
	nodeID := uuid.New()
	s := &Story{
		Options: []Option{
			{ID: uuid.New(), NodeID: nodeID, Text: "segunda", Order: 2},
			{ID: uuid.New(), NodeID: nodeID, Text: "primera", Order: 1},
			{ID: uuid.New(), NodeID: nodeID, Text: "oculta", Order: 3,
				Visibility: []Condition{{Variable: "coraje", Op: CmpGe, Value: 10}}},
			{ID: uuid.New(), NodeID: uuid.New(), Text: "otro nodo", Order: 0},
		},
	}

	opts := s.VisibleOptions(nodeID, state.Vars{"coraje": float64(5)})
	if len(opts) != 2 {
		t.Fatalf("expected 2 visible options, got %d", len(opts))
	}
	if opts[0].Text != "primera" || opts[1].Text != "segunda" {
		t.Errorf("expected authored order, got %q then %q", opts[0].Text, opts[1].Text)
	}

	opts = s.VisibleOptions(nodeID, state.Vars{"coraje": float64(12)})
	if len(opts) != 3 {
		t.Errorf("expected hidden option to appear at coraje=12, got %d options", len(opts))
	}
}
