package query

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/predicate"
)

// Search returns the elements matching q. It never fails: backend errors
// yield fewer (possibly zero) elements and are logged.
func (c *Controller) Search(ctx context.Context, q SearchQuery) iter.Seq[graph.Element] {
	seq, _ := c.SearchWithReport(ctx, q)
	return seq
}

// SearchWithReport is Search plus a per-schema account of the call.
// Sub-queries have completed when it returns; the sequence only parses.
func (c *Controller) SearchWithReport(ctx context.Context, q SearchQuery) (iter.Seq[graph.Element], *Report) {
	return c.search(ctx, q.Kind, q.Predicates, q.PropertyKeys, q.Limit, q.Step)
}

// SearchVertex returns the edges incident to q.Vertices in q.Direction.
func (c *Controller) SearchVertex(ctx context.Context, q SearchVertexQuery) iter.Seq[graph.Element] {
	seq, _ := c.SearchVertexWithReport(ctx, q)
	return seq
}

// SearchVertexWithReport is SearchVertex plus a per-schema report.
func (c *Controller) SearchVertexWithReport(ctx context.Context, q SearchVertexQuery) (iter.Seq[graph.Element], *Report) {
	filter := predicate.And(q.Predicates, Adjacent(q.Vertices, q.Direction))
	return c.search(ctx, graph.KindEdge, filter, nil, q.Limit, q.Step)
}

// Adjacent builds the edge predicate "incident to one of refs". Refs with
// a known label also constrain the endpoint label, which lets edge schemas
// with a fixed endpoint label drop refs that cannot be theirs. A zero or
// unknown direction matches either endpoint.
func Adjacent(refs []graph.VertexRef, dir graph.Direction) *predicate.Holder {
	if dir != graph.DirectionOut && dir != graph.DirectionIn {
		dir = graph.DirectionBoth
	}

	var sides []*predicate.Holder
	if dir == graph.DirectionOut || dir == graph.DirectionBoth {
		sides = append(sides, endpointIn(predicate.KeyOutID, predicate.KeyOutLabel, refs))
	}
	if dir == graph.DirectionIn || dir == graph.DirectionBoth {
		sides = append(sides, endpointIn(predicate.KeyInID, predicate.KeyInLabel, refs))
	}
	return predicate.Or(sides...)
}

func endpointIn(idKey, labelKey string, refs []graph.VertexRef) *predicate.Holder {
	var labels []string
	ids := make(map[string][]string)
	for _, ref := range refs {
		if _, ok := ids[ref.Label]; !ok {
			labels = append(labels, ref.Label)
		}
		ids[ref.Label] = append(ids[ref.Label], ref.ID)
	}

	groups := make([]*predicate.Holder, 0, len(labels))
	for _, label := range labels {
		within := predicate.Within(idKey, stringValues(ids[label])...)
		if label == "" {
			groups = append(groups, within)
			continue
		}
		groups = append(groups, predicate.And(predicate.Eq(labelKey, stringValue(label)), within))
	}
	return predicate.Or(groups...)
}

// search routes, executes and materializes one read.
func (c *Controller) search(ctx context.Context, kind graph.Kind, filter *predicate.Holder, keys []string, limit int, step string) (iter.Seq[graph.Element], *Report) {
	plans, entries, report := c.route(kind, filter, keys, limit, step)
	if len(plans) == 0 {
		return func(func(graph.Element) bool) {}, report
	}

	outcomes := c.execute(ctx, plans, step)
	c.record(plans, entries, outcomes, report)
	return c.materialize(plans, outcomes, limit, step), report
}

// execute runs the plans, batched when the backend supports it. Outcomes
// line up with plans.
func (c *Controller) execute(ctx context.Context, plans []Plan, step string) []Outcome {
	if batcher, ok := c.backend.(BatchSearcher); ok {
		outcomes := batcher.SearchBatch(ctx, plans)
		if len(outcomes) == len(plans) {
			return outcomes
		}
		c.logger.Error("batch search returned wrong number of outcomes",
			"backend", c.backend.Name(),
			"plans", len(plans),
			"outcomes", len(outcomes),
			"step", step,
		)
	}

	outcomes := make([]Outcome, len(plans))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, plan := range plans {
		g.Go(func() error {
			records, err := c.backend.Search(ctx, plan)
			outcomes[i] = Outcome{Records: records, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// record logs failures and fills the report and metrics. entries maps
// each plan to its report entry.
func (c *Controller) record(plans []Plan, entries []int, outcomes []Outcome, report *Report) {
	for i, plan := range plans {
		entry := &report.Schemas[entries[i]]
		out := outcomes[i]

		outcome := "ok"
		switch {
		case out.Err != nil:
			outcome = "failed"
			entry.Outcome = OutcomeFailed
			entry.Err = out.Err
			c.logger.Error("sub-query failed",
				"backend", c.backend.Name(),
				"schema", plan.Schema.Name(),
				"location", plan.Schema.Location(),
				"error", out.Err,
			)
		case len(out.Records) == 0:
			outcome = "empty"
			entry.Outcome = OutcomeOK
		default:
			entry.Outcome = OutcomeOK
			entry.Records = len(out.Records)
		}
		SubqueriesTotal.WithLabelValues(c.backend.Name(), plan.Schema.Location(), outcome).Inc()
	}
}

// materialize parses records lazily, schema by schema in plan order.
// An identity already yielded is skipped, and the sequence stops at limit.
func (c *Controller) materialize(plans []Plan, outcomes []Outcome, limit int, step string) iter.Seq[graph.Element] {
	return func(yield func(graph.Element) bool) {
		seen := make(map[string]bool)
		n := 0
		for i, plan := range plans {
			if outcomes[i].Err != nil {
				continue
			}
			for _, rec := range outcomes[i].Records {
				e, err := plan.Schema.Parse(rec)
				if err != nil {
					c.logger.Warn("skipping unparseable record",
						"schema", plan.Schema.Name(),
						"step", step,
						"error", err,
					)
					continue
				}
				if seen[e.ID()] {
					continue
				}
				seen[e.ID()] = true

				if !yield(e) {
					return
				}
				n++
				if limit > 0 && n >= limit {
					return
				}
			}
		}
	}
}
