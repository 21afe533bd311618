package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/schema"
)

// AddVertex creates a vertex with a fresh identity in the first schema, in
// write order, that accepts it. Returns an UNROUTABLE error when none
// does and ALREADY_EXISTS when the backend reports the identity as taken.
func (c *Controller) AddVertex(ctx context.Context, q AddVertexQuery) (graph.Element, error) {
	return c.add(ctx, func(id string) graph.Element {
		return graph.NewVertex(id, q.Label, q.Properties)
	})
}

// AddEdge creates an edge like AddVertex creates a vertex. The endpoint
// labels, when known, take part in schema acceptance.
func (c *Controller) AddEdge(ctx context.Context, q AddEdgeQuery) (graph.Element, error) {
	return c.add(ctx, func(id string) graph.Element {
		return graph.NewEdge(id, q.Label, q.Properties,
			graph.NewDeferredVertex(q.Out.ID, q.Out.Label),
			graph.NewDeferredVertex(q.In.ID, q.In.Label),
		)
	})
}

// add builds the element once to pick a schema and again with a fresh
// identity, so an unroutable element consumes no identity.
func (c *Controller) add(ctx context.Context, build func(id string) graph.Element) (graph.Element, error) {
	draft := build("")
	for _, s := range c.writeOrder {
		if !s.Accepts(draft) {
			continue
		}

		e := build(c.ids.Generate())

		rec, err := s.Serialize(e)
		if err != nil {
			return nil, graph.NewInvalidElementError(e.Kind(), e.ID(), e.Label(), err)
		}

		err = c.backend.Insert(ctx, s, rec)
		WritesTotal.WithLabelValues(c.backend.Name(), "insert", writeOutcome(err)).Inc()
		if err != nil {
			if errors.Is(err, schema.ErrDuplicate) {
				id := e.ID()
				if stored, perr := s.Parse(rec); perr == nil {
					id = stored.ID()
				}
				c.logger.Warn("duplicate identity",
					"schema", s.Name(),
					"kind", e.Kind(),
					"id", id,
				)
				return nil, graph.NewAlreadyExistsError(e.Kind(), id, e.Label(), err)
			}
			return nil, fmt.Errorf("add %s to %s: %w", e.Kind(), s.Name(), err)
		}

		created, err := s.Parse(rec)
		if err != nil {
			return nil, fmt.Errorf("add %s to %s: %w", e.Kind(), s.Name(), err)
		}
		c.logger.Debug("element added",
			"schema", s.Name(),
			"kind", e.Kind(),
			"id", created.ID(),
		)
		return created, nil
	}

	c.logger.Debug("no schema accepts element",
		"backend", c.backend.Name(),
		"kind", draft.Kind(),
		"label", draft.Label(),
	)
	return nil, graph.NewUnroutableError(draft.Kind(), "", draft.Label())
}

// Property writes q.Properties onto the element, keeping its other
// properties, in the schema that holds the element's record. An unresolved
// deferred vertex is loaded first so no stored property is lost; one that
// cannot be loaded is INVALID_ELEMENT when its label is owned here and
// UNROUTABLE otherwise. An element no schema here holds is UNROUTABLE, so
// the update never creates a second copy in another location.
//
// Elements of derived-identity schemas are immutable: changing a property
// would change the identity, so the update is refused as INVALID_ELEMENT.
func (c *Controller) Property(ctx context.Context, q PropertyQuery) (graph.Element, error) {
	e := q.Element
	if e == nil {
		return nil, errors.New("property update: no element")
	}

	if d, ok := e.(*graph.DeferredVertex); ok && !d.Resolved() {
		if d.Label() != "" && !c.owns(d) {
			return nil, graph.NewUnroutableError(e.Kind(), e.ID(), e.Label())
		}
		c.FetchProperties(ctx, DeferredVertexQuery{Vertices: []*graph.DeferredVertex{d}})
		switch {
		case d.Resolved():
		case d.Label() == "":
			// Unknown here; another backend may hold it.
			return nil, graph.NewUnroutableError(e.Kind(), e.ID(), e.Label())
		default:
			return nil, graph.NewInvalidElementError(e.Kind(), e.ID(), e.Label(),
				errors.New("vertex could not be loaded"))
		}
	}

	s, err := c.locate(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", e.Kind(), e.ID(), err)
	}
	if s == nil {
		c.logger.Debug("no schema holds element",
			"backend", c.backend.Name(),
			"kind", e.Kind(),
			"id", e.ID(),
		)
		return nil, graph.NewUnroutableError(e.Kind(), e.ID(), e.Label())
	}
	if s.IDField() == "" {
		return nil, graph.NewInvalidElementError(e.Kind(), e.ID(), e.Label(),
			fmt.Errorf("schema %s derives identities from content", s.Name()))
	}

	updated := withProperties(e, e.Properties().Merge(q.Properties))
	rec, err := s.Serialize(updated)
	if err != nil {
		return nil, graph.NewInvalidElementError(e.Kind(), e.ID(), e.Label(), err)
	}

	err = c.backend.Upsert(ctx, s, rec)
	WritesTotal.WithLabelValues(c.backend.Name(), "upsert", writeOutcome(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("update %s %s in %s: %w", e.Kind(), e.ID(), s.Name(), err)
	}

	c.logger.Debug("properties updated",
		"schema", s.Name(),
		"kind", e.Kind(),
		"id", e.ID(),
		"keys", q.Properties.Keys(),
	)
	return s.Parse(rec)
}

// locate returns the first schema, in write order, that accepts e and
// holds its record, or nil when none does. Owning the label is not
// enough: a label-field schema owns every label, and upserting there would
// duplicate an element stored by a later schema.
func (c *Controller) locate(ctx context.Context, e graph.Element) (schema.ElementSchema, error) {
	for _, s := range c.writeOrder {
		if !s.Accepts(e) {
			continue
		}
		filter := s.DeleteFilter(e)
		if filter == nil {
			continue
		}

		var fields []string
		if s.IDField() != "" {
			fields = []string{s.IDField()}
		}
		recs, err := c.backend.Search(ctx, Plan{Schema: s, Filter: filter, Fields: fields, Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("locate in %s: %w", s.Name(), err)
		}
		if len(recs) > 0 {
			return s, nil
		}
	}
	return nil, nil
}

// owns reports whether any schema owns e.
func (c *Controller) owns(e graph.Element) bool {
	for _, s := range c.schemas {
		if s.Owns(e) {
			return true
		}
	}
	return false
}

// withProperties copies e with props.
func withProperties(e graph.Element, props graph.Properties) graph.Element {
	if edge, ok := e.(*graph.Edge); ok {
		return graph.NewEdge(edge.ID(), edge.Label(), props, edge.OutVertex(), edge.InVertex())
	}
	return graph.NewVertex(e.ID(), e.Label(), props)
}

// Remove deletes each element from every schema that can locate it and
// returns the number of records removed. A missing record is not an
// error; backend failures are joined and returned after every delete was
// attempted.
func (c *Controller) Remove(ctx context.Context, q RemoveQuery) (int, error) {
	var (
		total int
		errs  []error
	)
	for _, e := range q.Elements {
		if e == nil {
			continue
		}
		for _, s := range c.writeOrder {
			if s.Kind() != e.Kind() {
				continue
			}
			filter := s.DeleteFilter(e)
			if filter == nil {
				continue
			}

			n, err := c.backend.Delete(ctx, s, filter)
			WritesTotal.WithLabelValues(c.backend.Name(), "delete", writeOutcome(err)).Inc()
			if err != nil {
				errs = append(errs, fmt.Errorf("remove %s %s from %s: %w", e.Kind(), e.ID(), s.Name(), err))
				continue
			}
			c.logger.Debug("element removed",
				"schema", s.Name(),
				"kind", e.Kind(),
				"id", e.ID(),
				"records", n,
			)
			total += n
		}
	}
	return total, errors.Join(errs...)
}
