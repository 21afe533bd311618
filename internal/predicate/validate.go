package predicate

import (
	"errors"
	"fmt"

	"github.com/roach88/unigraph/internal/ir"
)

// Validate checks that every comparison in the tree is well formed:
// a non-empty key, a known operator and operands of the right shape.
// All problems are reported, joined into one error.
func Validate(h *Holder) error {
	if h == nil {
		return errors.New("nil predicate holder")
	}

	var errs []error
	h.Walk(func(has Has) {
		if err := validateHas(has); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", has.Key, err))
		}
	})
	return errors.Join(errs...)
}

func validateHas(h Has) error {
	if h.Key == "" {
		return errors.New("empty key")
	}

	switch h.Op {
	case OpExists, OpMissing:
		return nil
	case OpEq, OpNeq:
		if ir.IsNull(h.Value) {
			return fmt.Errorf("%s requires a value (use %s or %s for nulls)", h.Op, OpExists, OpMissing)
		}
	case OpLt, OpLte, OpGt, OpGte:
		if !isScalar(h.Value) {
			return fmt.Errorf("%s requires a string, number or bool", h.Op)
		}
	case OpStartsWith:
		if _, ok := h.Value.(ir.IRString); !ok {
			return fmt.Errorf("%s requires a string prefix", h.Op)
		}
	case OpWithin, OpWithout:
		for i, v := range h.Values {
			if ir.IsNull(v) {
				return fmt.Errorf("%s value %d is null", h.Op, i)
			}
		}
	case OpBetween:
		if len(h.Values) != 2 {
			return fmt.Errorf("%s requires exactly 2 values, got %d", h.Op, len(h.Values))
		}
		if _, ok := ir.Compare(h.Values[0], h.Values[1]); !ok {
			return fmt.Errorf("%s bounds are not comparable", h.Op)
		}
	default:
		return fmt.Errorf("unknown operator %q", h.Op)
	}
	return nil
}

func isScalar(v ir.IRValue) bool {
	switch v.(type) {
	case ir.IRString, ir.IRInt, ir.IRFloat, ir.IRBool:
		return true
	}
	return false
}
