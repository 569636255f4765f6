package state

import (
	"encoding/json"
	"maps"
	"reflect"
	"strconv"
)

// Kind is the declared type of a character variable.
type Kind string

const (
	KindNumber  Kind = "number"
	KindText    Kind = "text"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
)

// Vars is one character's variable snapshot: variable name to JSON-typed
// value. A missing key means the variable has never been set.
type Vars map[string]any

// Clone returns a shallow copy. Effect application never mutates its
// input snapshot, so a shallow copy is enough for scalar values; object
// values are replaced wholesale by "set" rather than mutated in place.
func (v Vars) Clone() Vars {
	if v == nil {
		return Vars{}
	}
	out := make(Vars, len(v))
	maps.Copy(out, v)
	return out
}

// AsNumber coerces a JSON-typed value to float64. Numeric strings count;
// booleans and objects do not.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Equal compares two values the way conditions do: numerically when both
// sides coerce to numbers, structurally otherwise.
func Equal(a, b any) bool {
	if na, ok := AsNumber(a); ok {
		if nb, ok := AsNumber(b); ok {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}
