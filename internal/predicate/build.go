package predicate

import "github.com/roach88/unigraph/internal/ir"

// Eq builds key = value.
func Eq(key string, value ir.IRValue) *Holder {
	return Leaf(Has{Key: key, Op: OpEq, Value: value})
}

// Neq builds key != value. The key must be present.
func Neq(key string, value ir.IRValue) *Holder {
	return Leaf(Has{Key: key, Op: OpNeq, Value: value})
}

// Lt builds key < value.
func Lt(key string, value ir.IRValue) *Holder {
	return Leaf(Has{Key: key, Op: OpLt, Value: value})
}

// Lte builds key <= value.
func Lte(key string, value ir.IRValue) *Holder {
	return Leaf(Has{Key: key, Op: OpLte, Value: value})
}

// Gt builds key > value.
func Gt(key string, value ir.IRValue) *Holder {
	return Leaf(Has{Key: key, Op: OpGt, Value: value})
}

// Gte builds key >= value.
func Gte(key string, value ir.IRValue) *Holder {
	return Leaf(Has{Key: key, Op: OpGte, Value: value})
}

// Within builds key IN values.
func Within(key string, values ...ir.IRValue) *Holder {
	return Leaf(Has{Key: key, Op: OpWithin, Values: values})
}

// Without builds key NOT IN values. The key must be present.
func Without(key string, values ...ir.IRValue) *Holder {
	return Leaf(Has{Key: key, Op: OpWithout, Values: values})
}

// Between builds lo <= key < hi.
func Between(key string, lo, hi ir.IRValue) *Holder {
	return Leaf(Has{Key: key, Op: OpBetween, Values: []ir.IRValue{lo, hi}})
}

// Exists builds "key has a value".
func Exists(key string) *Holder {
	return Leaf(Has{Key: key, Op: OpExists})
}

// Missing builds "key has no value".
func Missing(key string) *Holder {
	return Leaf(Has{Key: key, Op: OpMissing})
}

// StartsWith builds a string prefix match.
func StartsWith(key, prefix string) *Holder {
	return Leaf(Has{Key: key, Op: OpStartsWith, Value: ir.IRString(prefix)})
}

// IDs builds ~id within ids.
func IDs(ids ...string) *Holder {
	values := make([]ir.IRValue, len(ids))
	for i, id := range ids {
		values[i] = ir.IRString(id)
	}
	return Within(KeyID, values...)
}

// Label builds ~label = label.
func Label(label string) *Holder {
	return Eq(KeyLabel, ir.IRString(label))
}
