package query

import (
	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
)

// route selects the schemas of kind and translates filter for each. It
// returns one plan per schema that did not abort, the report entry of
// each plan, and a report listing every schema of kind.
//
// An invalid filter is logged and aborts every schema.
func (c *Controller) route(kind graph.Kind, filter *predicate.Holder, keys []string, limit int, step string) ([]Plan, []int, *Report) {
	if filter == nil {
		filter = predicate.Empty()
	}
	schemas := c.schemasOf(kind)
	report := &Report{Backend: c.backend.Name(), Schemas: make([]SchemaReport, len(schemas))}

	invalid := predicate.Validate(filter)
	if invalid != nil {
		c.logger.Warn("invalid predicate, returning no elements",
			"backend", c.backend.Name(),
			"step", step,
			"error", invalid,
		)
	}

	var (
		plans   []Plan
		entries []int
	)
	for i, s := range schemas {
		report.Schemas[i] = SchemaReport{Schema: s.Name(), Location: s.Location(), Outcome: OutcomeAborted}
		if invalid != nil {
			report.Schemas[i].Err = invalid
			continue
		}

		translated := s.Translate(filter)
		if translated.IsAborted() {
			SchemasAbortedTotal.WithLabelValues(c.backend.Name(), s.Location()).Inc()
			c.logger.Debug("schema cannot match, skipping",
				"schema", s.Name(),
				"location", s.Location(),
				"step", step,
			)
			continue
		}

		plans = append(plans, Plan{
			Schema: s,
			Filter: translated,
			Fields: s.Fields(keys),
			Limit:  limit,
		})
		entries = append(entries, i)
	}

	c.logger.Debug("routed search",
		"backend", c.backend.Name(),
		"kind", kind,
		"schemas", len(schemas),
		"plans", len(plans),
		"step", step,
	)
	return plans, entries, report
}

func stringValue(s string) ir.IRValue { return ir.IRString(s) }

func stringValues(ss []string) []ir.IRValue {
	out := make([]ir.IRValue, len(ss))
	for i, s := range ss {
		out[i] = ir.IRString(s)
	}
	return out
}
