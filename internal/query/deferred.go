package query

import (
	"context"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/predicate"
)

// FetchProperties hydrates the unresolved stubs of q with one routed
// identity search over the vertex schemas and returns how many stubs it
// resolved. Several stubs may share an identity; each is hydrated. Stubs
// without a matching record stay unresolved, which marks an endpoint
// whose vertex is not stored.
func (c *Controller) FetchProperties(ctx context.Context, q DeferredVertexQuery) int {
	pending := make(map[string][]*graph.DeferredVertex)
	var ids []string
	for _, d := range q.Vertices {
		if d == nil || d.Resolved() {
			continue
		}
		if _, ok := pending[d.ID()]; !ok {
			ids = append(ids, d.ID())
		}
		pending[d.ID()] = append(pending[d.ID()], d)
	}
	if len(ids) == 0 {
		return 0
	}

	filter := predicate.And(predicate.IDs(ids...), q.Predicates)
	seq, _ := c.search(ctx, graph.KindVertex, filter, nil, 0, q.Step)

	hydrated := 0
	for e := range seq {
		v, ok := e.(*graph.Vertex)
		if !ok {
			continue
		}
		for _, d := range pending[v.ID()] {
			if d.Hydrate(v) {
				hydrated++
			}
		}
		delete(pending, v.ID())
	}

	c.logger.Debug("fetched deferred vertices",
		"requested", len(ids),
		"hydrated", hydrated,
		"unresolved", len(pending),
		"step", q.Step,
	)
	return hydrated
}
