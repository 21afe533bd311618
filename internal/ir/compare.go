package ir

import "strings"

// Compare orders two scalar values. Numbers compare across IRInt and
// IRFloat; strings compare bytewise; false sorts before true.
// The second result is false when the values are not comparable
// (different families, null, arrays or objects).
func Compare(a, b IRValue) (int, bool) {
	if IsNumeric(a) && IsNumeric(b) {
		ai, aInt := a.(IRInt)
		bi, bInt := b.(IRInt)
		if aInt && bInt {
			return cmpOrdered(ai, bi), true
		}
		af, _ := AsFloat(a)
		bf, _ := AsFloat(b)
		return cmpOrdered(af, bf), true
	}

	switch av := a.(type) {
	case IRString:
		if bv, ok := b.(IRString); ok {
			return strings.Compare(string(av), string(bv)), true
		}
	case IRBool:
		if bv, ok := b.(IRBool); ok {
			switch {
			case av == bv:
				return 0, true
			case !bool(av):
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return 0, false
}

// Equal reports whether two values are equal. Numbers are equal across
// IRInt and IRFloat when they denote the same quantity. IRNull equals
// only IRNull.
func Equal(a, b IRValue) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	if c, ok := Compare(a, b); ok {
		return c == 0
	}

	switch av := a.(type) {
	case IRArray:
		bv, ok := b.(IRArray)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case IRObject:
		bv, ok := b.(IRObject)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if other, ok := bv[k]; !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	}
	return false
}

func cmpOrdered[T ~int64 | ~float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
