package query

import (
	"log/slog"
	"slices"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/schema"
)

// DefaultConcurrency is the default number of sub-queries run at once
// against a backend without batch support.
const DefaultConcurrency = 4

// Controller routes queries over the schemas of one backend.
//
// Thread-safety: the schema set is fixed at construction, so concurrent
// calls are safe.
type Controller struct {
	backend     Backend
	schemas     []schema.ElementSchema // declaration order
	writeOrder  []schema.ElementSchema // ascending priority, stable
	concurrency int
	logger      *slog.Logger
	ids         graph.IDGenerator
}

// Option configures a Controller.
type Option func(*Controller)

// WithConcurrency bounds the sub-queries in flight per call. Values below
// one are ignored.
func WithConcurrency(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithIDGenerator sets the generator for new element identities.
// Defaults to UUIDv7Generator.
func WithIDGenerator(ids graph.IDGenerator) Option {
	return func(c *Controller) {
		c.ids = ids
	}
}

// New creates a controller for backend. The schemas slice is copied.
func New(backend Backend, schemas []schema.ElementSchema, opts ...Option) *Controller {
	c := &Controller{
		backend:     backend,
		schemas:     slices.Clone(schemas),
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
		ids:         graph.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.writeOrder = slices.Clone(c.schemas)
	slices.SortStableFunc(c.writeOrder, func(a, b schema.ElementSchema) int {
		return a.Priority() - b.Priority()
	})
	return c
}

// Backend returns the controller's backend.
func (c *Controller) Backend() Backend { return c.backend }

// Schemas returns the schemas in declaration order.
func (c *Controller) Schemas() []schema.ElementSchema { return slices.Clone(c.schemas) }

// WriteOrder returns the schemas in the order writes try them.
func (c *Controller) WriteOrder() []schema.ElementSchema { return slices.Clone(c.writeOrder) }

// schemasOf returns the schemas of kind in declaration order.
func (c *Controller) schemasOf(kind graph.Kind) []schema.ElementSchema {
	var out []schema.ElementSchema
	for _, s := range c.schemas {
		if s.Kind() == kind {
			out = append(out, s)
		}
	}
	return out
}
