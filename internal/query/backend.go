package query

import (
	"context"

	"github.com/roach88/unigraph/internal/predicate"
	"github.com/roach88/unigraph/internal/schema"
)

// Plan is one native sub-query: a schema and the filter it produced.
type Plan struct {
	// Schema produced Filter and parses the returned records.
	Schema schema.ElementSchema

	// Filter is in backend field names. Never aborted.
	Filter *predicate.Holder

	// Fields to fetch, or nil for every field.
	Fields []string

	// Limit caps the rows returned. Zero or negative means unlimited.
	Limit int
}

// Outcome is the result of one plan in a batch.
type Outcome struct {
	Records []schema.Record
	Err     error
}

// Searcher executes one plan.
type Searcher interface {
	Search(ctx context.Context, plan Plan) ([]schema.Record, error)
}

// BatchSearcher executes several plans in one round trip. Outcomes line up
// with plans; a failing plan reports its error without failing the others.
type BatchSearcher interface {
	SearchBatch(ctx context.Context, plans []Plan) []Outcome
}

// Writer persists records.
type Writer interface {
	// Insert creates rec. A collision on the schema's identity returns an
	// error wrapping schema.ErrDuplicate.
	Insert(ctx context.Context, s schema.ElementSchema, rec schema.Record) error

	// Upsert creates or patches the record keyed by the schema's id field.
	Upsert(ctx context.Context, s schema.ElementSchema, rec schema.Record) error

	// Delete removes every record matching filter and returns the count.
	Delete(ctx context.Context, s schema.ElementSchema, filter *predicate.Holder) (int, error)
}

// Backend is a store the controller routes queries to.
type Backend interface {
	Searcher
	Writer

	// Name identifies the backend in logs and metrics.
	Name() string
}
