package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/query"
)

// Graph dispatches queries over several controllers.
//
// Thread-safety: the controller list is fixed at construction, so
// concurrent calls are safe when the backends are.
type Graph struct {
	controllers []*query.Controller
	logger      *slog.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// New creates a graph over controllers. The order is kept for reads and
// for write routing.
func New(controllers []*query.Controller, opts ...Option) *Graph {
	g := &Graph{
		controllers: slices.Clone(controllers),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Controllers returns the controllers in order.
func (g *Graph) Controllers() []*query.Controller { return slices.Clone(g.controllers) }

// Search returns the elements matching q across every backend.
func (g *Graph) Search(ctx context.Context, q query.SearchQuery) iter.Seq[graph.Element] {
	seq, _ := g.SearchWithReport(ctx, q)
	return seq
}

// SearchWithReport is Search plus one report per controller.
func (g *Graph) SearchWithReport(ctx context.Context, q query.SearchQuery) (iter.Seq[graph.Element], []*query.Report) {
	return g.union(q.Limit, func(c *query.Controller) (iter.Seq[graph.Element], *query.Report) {
		return c.SearchWithReport(ctx, q)
	})
}

// SearchVertex returns the edges incident to q.Vertices across every backend.
func (g *Graph) SearchVertex(ctx context.Context, q query.SearchVertexQuery) iter.Seq[graph.Element] {
	seq, _ := g.SearchVertexWithReport(ctx, q)
	return seq
}

// SearchVertexWithReport is SearchVertex plus one report per controller.
func (g *Graph) SearchVertexWithReport(ctx context.Context, q query.SearchVertexQuery) (iter.Seq[graph.Element], []*query.Report) {
	return g.union(q.Limit, func(c *query.Controller) (iter.Seq[graph.Element], *query.Report) {
		return c.SearchVertexWithReport(ctx, q)
	})
}

// union runs fn on every controller and concatenates the sequences.
// An element already yielded by an earlier backend is skipped. A positive
// limit caps the total.
func (g *Graph) union(limit int, fn func(*query.Controller) (iter.Seq[graph.Element], *query.Report)) (iter.Seq[graph.Element], []*query.Report) {
	seqs := make([]iter.Seq[graph.Element], len(g.controllers))
	reports := make([]*query.Report, len(g.controllers))
	for i, c := range g.controllers {
		seqs[i], reports[i] = fn(c)
	}

	return func(yield func(graph.Element) bool) {
		type key struct {
			kind graph.Kind
			id   string
		}
		seen := make(map[key]bool)
		n := 0
		for _, seq := range seqs {
			for e := range seq {
				k := key{e.Kind(), e.ID()}
				if seen[k] {
					continue
				}
				seen[k] = true
				if !yield(e) {
					return
				}
				n++
				if limit > 0 && n >= limit {
					return
				}
			}
		}
	}, reports
}

// FetchProperties hydrates the stubs in q, asking each backend in turn for
// the stubs still unresolved. Returns the number of stubs hydrated.
func (g *Graph) FetchProperties(ctx context.Context, q query.DeferredVertexQuery) int {
	total := 0
	pending := unresolved(q.Vertices)
	for _, c := range g.controllers {
		if len(pending) == 0 {
			break
		}
		total += c.FetchProperties(ctx, query.DeferredVertexQuery{
			Vertices:   pending,
			Predicates: q.Predicates,
			Step:       q.Step,
		})
		pending = unresolved(pending)
	}
	if len(pending) > 0 {
		g.logger.Debug("vertices not found in any backend",
			"step", q.Step,
			"count", len(pending),
		)
	}
	return total
}

func unresolved(stubs []*graph.DeferredVertex) []*graph.DeferredVertex {
	var out []*graph.DeferredVertex
	for _, d := range stubs {
		if d != nil && !d.Resolved() {
			out = append(out, d)
		}
	}
	return out
}

// AddVertex creates a vertex in the first backend that routes it.
func (g *Graph) AddVertex(ctx context.Context, q query.AddVertexQuery) (graph.Element, error) {
	return g.dispatch(graph.KindVertex, "", q.Label, func(c *query.Controller) (graph.Element, error) {
		return c.AddVertex(ctx, q)
	})
}

// AddEdge creates an edge in the first backend that routes it.
func (g *Graph) AddEdge(ctx context.Context, q query.AddEdgeQuery) (graph.Element, error) {
	return g.dispatch(graph.KindEdge, "", q.Label, func(c *query.Controller) (graph.Element, error) {
		return c.AddEdge(ctx, q)
	})
}

// Property updates the element in the first backend that owns it.
func (g *Graph) Property(ctx context.Context, q query.PropertyQuery) (graph.Element, error) {
	if q.Element == nil {
		return nil, errors.New("property update: no element")
	}
	e := q.Element
	return g.dispatch(e.Kind(), e.ID(), e.Label(), func(c *query.Controller) (graph.Element, error) {
		return c.Property(ctx, q)
	})
}

// dispatch tries controllers in order until one does not answer
// UNROUTABLE.
func (g *Graph) dispatch(kind graph.Kind, id, label string, fn func(*query.Controller) (graph.Element, error)) (graph.Element, error) {
	for _, c := range g.controllers {
		e, err := fn(c)
		if graph.IsUnroutable(err) {
			continue
		}
		if err == nil {
			g.logger.Debug("write routed",
				"backend", c.Backend().Name(),
				"kind", kind,
				"id", e.ID(),
			)
		}
		return e, err
	}
	g.logger.Warn("no backend routes element",
		"kind", kind,
		"label", label,
	)
	return nil, graph.NewUnroutableError(kind, id, label)
}

// Remove deletes the elements from every backend. Backend failures are
// joined after every backend was tried.
func (g *Graph) Remove(ctx context.Context, q query.RemoveQuery) (int, error) {
	var (
		total int
		errs  []error
	)
	for _, c := range g.controllers {
		n, err := c.Remove(ctx, q)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// Close closes every backend that holds resources.
func (g *Graph) Close() error {
	var errs []error
	for _, c := range g.controllers {
		closer, ok := c.Backend().(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.Backend().Name(), err))
		}
	}
	return errors.Join(errs...)
}
