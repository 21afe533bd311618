package predicate

import (
	"slices"
	"strings"

	"github.com/roach88/unigraph/internal/ir"
)

// Clause is the connective of a Holder.
type Clause int

const (
	ClauseAnd Clause = iota
	ClauseOr
	ClauseAbort
)

func (c Clause) String() string {
	switch c {
	case ClauseAnd:
		return "and"
	case ClauseOr:
		return "or"
	default:
		return "abort"
	}
}

// Holder is an immutable predicate tree node.
//
// An AND holder is satisfied when all of its leaves and children are.
// An OR holder is satisfied when any of them is. An AND holder with no
// leaves and no children matches everything; an aborted holder matches
// nothing.
//
// Build holders with the factory functions (And, Or, Leaf, Abort, Empty).
// They keep the tree in simplified form, so IsAborted and IsEmpty are
// reliable after any composition.
type Holder struct {
	clause   Clause
	leaves   []Has
	children []*Holder
}

var (
	emptyHolder   = &Holder{clause: ClauseAnd}
	abortedHolder = &Holder{clause: ClauseAbort}
)

// Empty returns the holder that matches everything.
func Empty() *Holder { return emptyHolder }

// Abort returns the holder that matches nothing.
func Abort() *Holder { return abortedHolder }

// Leaf wraps a single comparison. A within with no values can never match
// and yields Abort.
func Leaf(h Has) *Holder {
	if h.Op == OpWithin && len(h.Values) == 0 {
		return Abort()
	}
	return &Holder{clause: ClauseAnd, leaves: []Has{h}}
}

// And combines holders so that all must hold.
//
// Nil and empty holders are ignored. Any aborted input aborts the result.
// Nested AND holders are flattened into the result.
func And(holders ...*Holder) *Holder {
	out := &Holder{clause: ClauseAnd}
	for _, h := range holders {
		switch {
		case h == nil || h.IsEmpty():
			continue
		case h.IsAborted():
			return Abort()
		case h.clause == ClauseAnd:
			out.leaves = append(out.leaves, h.leaves...)
			out.children = append(out.children, h.children...)
		default:
			out.children = append(out.children, h)
		}
	}
	return out.simplify()
}

// Or combines holders so that at least one must hold.
//
// Nil and aborted inputs are dropped. If none remain the result is
// aborted; if any input matches everything, so does the result.
// Single-leaf inputs become leaves and nested OR holders are flattened.
func Or(holders ...*Holder) *Holder {
	out := &Holder{clause: ClauseOr}
	for _, h := range holders {
		switch {
		case h == nil || h.IsAborted():
			continue
		case h.IsEmpty():
			return Empty()
		case h.clause == ClauseOr:
			out.leaves = append(out.leaves, h.leaves...)
			out.children = append(out.children, h.children...)
		case len(h.leaves) == 1 && len(h.children) == 0:
			out.leaves = append(out.leaves, h.leaves[0])
		default:
			out.children = append(out.children, h)
		}
	}
	if len(out.leaves) == 0 && len(out.children) == 0 {
		return Abort()
	}
	return out.simplify()
}

// simplify collapses a connective with a single operand into that operand.
func (h *Holder) simplify() *Holder {
	switch {
	case len(h.leaves) == 0 && len(h.children) == 0:
		return Empty()
	case len(h.leaves) == 0 && len(h.children) == 1:
		return h.children[0]
	case len(h.leaves) == 1 && len(h.children) == 0 && h.clause == ClauseOr:
		return &Holder{clause: ClauseAnd, leaves: h.leaves}
	}
	return h
}

// Clause returns the connective.
func (h *Holder) Clause() Clause { return h.clause }

// Leaves returns a copy of the direct comparisons.
func (h *Holder) Leaves() []Has { return slices.Clone(h.leaves) }

// Children returns the direct child holders.
func (h *Holder) Children() []*Holder { return slices.Clone(h.children) }

// IsAborted reports whether the holder provably matches nothing.
func (h *Holder) IsAborted() bool { return h.clause == ClauseAbort }

// IsEmpty reports whether the holder matches everything.
func (h *Holder) IsEmpty() bool {
	return h.clause == ClauseAnd && len(h.leaves) == 0 && len(h.children) == 0
}

// Map rebuilds the tree with every leaf replaced by fn's result, combining
// the replacements with the same connectives through And and Or. This is
// how a schema rewrites property keys to its own field names: returning
// Abort for an unmapped key drops that alternative, or aborts the
// enclosing conjunct.
func (h *Holder) Map(fn func(Has) *Holder) *Holder {
	if h.IsAborted() {
		return h
	}

	parts := make([]*Holder, 0, len(h.leaves)+len(h.children))
	for _, leaf := range h.leaves {
		parts = append(parts, fn(leaf))
	}
	for _, child := range h.children {
		parts = append(parts, child.Map(fn))
	}

	if h.clause == ClauseOr {
		return Or(parts...)
	}
	return And(parts...)
}

// Keys returns every key referenced by the tree, sorted and deduplicated.
func (h *Holder) Keys() []string {
	var keys []string
	h.Walk(func(has Has) {
		keys = append(keys, has.Key)
	})
	slices.Sort(keys)
	return slices.Compact(keys)
}

// Walk visits every leaf in tree order.
func (h *Holder) Walk(fn func(Has)) {
	for _, leaf := range h.leaves {
		fn(leaf)
	}
	for _, child := range h.children {
		child.Walk(fn)
	}
}

// Test evaluates the tree in memory. lookup returns the value of a key and
// whether it is present.
func (h *Holder) Test(lookup func(key string) (ir.IRValue, bool)) bool {
	switch h.clause {
	case ClauseAbort:
		return false
	case ClauseOr:
		for _, leaf := range h.leaves {
			if leaf.Test(lookup(leaf.Key)) {
				return true
			}
		}
		for _, child := range h.children {
			if child.Test(lookup) {
				return true
			}
		}
		return false
	default:
		for _, leaf := range h.leaves {
			if !leaf.Test(lookup(leaf.Key)) {
				return false
			}
		}
		for _, child := range h.children {
			if !child.Test(lookup) {
				return false
			}
		}
		return true
	}
}

// String renders the tree, e.g. and(name eq "marko", or(age gt 30, age lt 10)).
func (h *Holder) String() string {
	switch {
	case h.IsAborted():
		return "abort()"
	case h.IsEmpty():
		return "all()"
	case len(h.leaves) == 1 && len(h.children) == 0:
		return h.leaves[0].String()
	}

	parts := make([]string, 0, len(h.leaves)+len(h.children))
	for _, leaf := range h.leaves {
		parts = append(parts, leaf.String())
	}
	for _, child := range h.children {
		parts = append(parts, child.String())
	}
	return h.clause.String() + "(" + strings.Join(parts, ", ") + ")"
}
