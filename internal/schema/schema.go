package schema

import (
	"errors"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
)

// ErrDuplicate is returned (wrapped) by backends when a create collides
// with an existing identity.
var ErrDuplicate = errors.New("duplicate identity")

// Record is one backend row or document: field name to value.
// Multi-valued fields hold an ir.IRArray.
type Record map[string]ir.IRValue

// ElementSchema is the capability interface the query layer routes on.
type ElementSchema interface {
	// Name identifies the schema in logs, metrics and reports.
	Name() string

	// Kind is the element kind the schema stores.
	Kind() graph.Kind

	// Location is the backend table or index.
	Location() string

	// IDField is the field holding the element identity, or "" when the
	// identity is derived from the record contents.
	IDField() string

	// Priority orders schemas for write routing. Lower runs first.
	Priority() int

	// Fields lists the backend fields a read must fetch to materialize the
	// given property keys. nil keys means every property. A nil result
	// means every field of the record.
	Fields(keys []string) []string

	// Translate rewrites a graph predicate into backend field names.
	// An aborted result means the schema can hold no matching element.
	Translate(h *predicate.Holder) *predicate.Holder

	// Parse materializes a backend record.
	Parse(rec Record) (graph.Element, error)

	// Owns reports whether the element's kind and label belong here.
	Owns(e graph.Element) bool

	// Accepts reports whether a new element may be created here.
	Accepts(e graph.Element) bool

	// Serialize converts an element into a backend record.
	Serialize(e graph.Element) (Record, error)

	// DeleteFilter returns the filter selecting the element's record, or
	// nil when the element is not represented here.
	DeleteFilter(e graph.Element) *predicate.Holder
}
