package predicate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/unigraph/internal/ir"
)

// Op is a comparison operator.
type Op string

const (
	OpEq         Op = "eq"
	OpNeq        Op = "neq"
	OpLt         Op = "lt"
	OpLte        Op = "lte"
	OpGt         Op = "gt"
	OpGte        Op = "gte"
	OpWithin     Op = "within"
	OpWithout    Op = "without"
	OpBetween    Op = "between" // Values[0] <= x < Values[1]
	OpExists     Op = "exists"
	OpMissing    Op = "missing"
	OpStartsWith Op = "startsWith"
)

// Ops lists every supported operator.
var Ops = []Op{
	OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte,
	OpWithin, OpWithout, OpBetween,
	OpExists, OpMissing, OpStartsWith,
}

// ParseOp resolves an operator name.
func ParseOp(s string) (Op, error) {
	for _, op := range Ops {
		if string(op) == s {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

// Special keys.
const (
	KeyID       = "~id"
	KeyLabel    = "~label"
	KeyOutID    = "~out.id"
	KeyInID     = "~in.id"
	KeyOutLabel = "~out.label"
	KeyInLabel  = "~in.label"
)

// IsSpecialKey reports whether key addresses element metadata.
func IsSpecialKey(key string) bool {
	return strings.HasPrefix(key, "~")
}

// Has is an atomic comparison against one key.
//
// Scalar operators (eq, neq, lt, lte, gt, gte, startsWith) use Value.
// within, without and between use Values. exists and missing use neither.
type Has struct {
	Key    string
	Op     Op
	Value  ir.IRValue
	Values []ir.IRValue

	// Multi marks a key whose stored value is a list. The comparison holds
	// when some element satisfies it; neq and without hold when none
	// matches. Set by schema translation, never by callers.
	Multi bool
}

// WithKey returns a copy of h comparing a different key.
func (h Has) WithKey(key string) Has {
	h.Key = key
	return h
}

// Test evaluates the comparison against a single value in memory.
// present is false when the element has no value for the key.
func (h Has) Test(v ir.IRValue, present bool) bool {
	if !present || ir.IsNull(v) {
		return h.Op == OpMissing
	}
	if arr, ok := v.(ir.IRArray); ok && h.Multi {
		return h.testElements(arr)
	}

	switch h.Op {
	case OpExists:
		return true
	case OpMissing:
		return false
	case OpEq:
		return ir.Equal(v, h.Value)
	case OpNeq:
		return !ir.Equal(v, h.Value)
	case OpLt, OpLte, OpGt, OpGte:
		c, ok := ir.Compare(v, h.Value)
		if !ok {
			return false
		}
		switch h.Op {
		case OpLt:
			return c < 0
		case OpLte:
			return c <= 0
		case OpGt:
			return c > 0
		default:
			return c >= 0
		}
	case OpWithin:
		return containsValue(h.Values, v)
	case OpWithout:
		return !containsValue(h.Values, v)
	case OpBetween:
		if len(h.Values) != 2 {
			return false
		}
		lo, okLo := ir.Compare(v, h.Values[0])
		hi, okHi := ir.Compare(v, h.Values[1])
		return okLo && okHi && lo >= 0 && hi < 0
	case OpStartsWith:
		s, ok := v.(ir.IRString)
		prefix, okPrefix := h.Value.(ir.IRString)
		return ok && okPrefix && strings.HasPrefix(string(s), string(prefix))
	}
	return false
}

// testElements evaluates a multi-valued comparison against the elements
// of a stored list.
func (h Has) testElements(arr ir.IRArray) bool {
	elem := h
	elem.Multi = false
	switch h.Op {
	case OpExists, OpMissing:
		return h.Op == OpExists
	case OpNeq:
		elem.Op = OpEq
	case OpWithout:
		elem.Op = OpWithin
	}

	found := slices.ContainsFunc(arr, func(v ir.IRValue) bool {
		return elem.Test(v, true)
	})
	if h.Op == OpNeq || h.Op == OpWithout {
		return !found
	}
	return found
}

// String renders the comparison, e.g. name eq "marko".
func (h Has) String() string {
	switch h.Op {
	case OpExists, OpMissing:
		return fmt.Sprintf("%s %s", h.Key, h.Op)
	case OpWithin, OpWithout, OpBetween:
		parts := make([]string, len(h.Values))
		for i, v := range h.Values {
			parts[i] = literal(v)
		}
		return fmt.Sprintf("%s %s [%s]", h.Key, h.Op, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("%s %s %s", h.Key, h.Op, literal(h.Value))
	}
}

func literal(v ir.IRValue) string {
	if s, ok := v.(ir.IRString); ok {
		return fmt.Sprintf("%q", string(s))
	}
	if ir.IsNull(v) {
		return "null"
	}
	return ir.Format(v)
}

func containsValue(values []ir.IRValue, v ir.IRValue) bool {
	for _, candidate := range values {
		if ir.Equal(candidate, v) {
			return true
		}
	}
	return false
}
