package querydoc

import (
	"fmt"
	"math"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
)

// Translator lowers predicate holders (in document field names) into
// bleve queries.
type Translator struct {
	// idField is answered from the document id instead of a field.
	idField string
}

// NewTranslator creates a Translator. Equality and membership tests on
// idField are answered with document id lookups.
func NewTranslator(idField string) *Translator {
	return &Translator{idField: idField}
}

// Translate converts h into a bleve query. An empty holder matches every
// document and an aborted one none.
func (t *Translator) Translate(h *predicate.Holder) (query.Query, error) {
	if h == nil || h.IsEmpty() {
		return query.NewMatchAllQuery(), nil
	}
	if h.IsAborted() {
		return query.NewMatchNoneQuery(), nil
	}

	var parts []query.Query
	for _, leaf := range h.Leaves() {
		q, err := t.translateHas(leaf)
		if err != nil {
			return nil, err
		}
		parts = append(parts, q)
	}
	for _, child := range h.Children() {
		q, err := t.Translate(child)
		if err != nil {
			return nil, err
		}
		parts = append(parts, q)
	}

	if len(parts) == 1 {
		return parts[0], nil
	}
	if h.Clause() == predicate.ClauseOr {
		return query.NewDisjunctionQuery(parts), nil
	}
	return query.NewConjunctionQuery(parts), nil
}

func (t *Translator) translateHas(h predicate.Has) (query.Query, error) {
	field := h.Key

	switch h.Op {
	case predicate.OpExists:
		return exists(field), nil
	case predicate.OpMissing:
		return not(query.NewMatchAllQuery(), exists(field)), nil
	case predicate.OpEq:
		return t.equals(field, h.Value)
	case predicate.OpNeq:
		eq, err := t.equals(field, h.Value)
		if err != nil {
			return nil, err
		}
		return not(exists(field), eq), nil
	case predicate.OpWithin:
		return t.within(field, h.Values)
	case predicate.OpWithout:
		if len(h.Values) == 0 {
			return exists(field), nil
		}
		in, err := t.within(field, h.Values)
		if err != nil {
			return nil, err
		}
		return not(exists(field), in), nil
	case predicate.OpLt:
		return rangeQuery(field, nil, h.Value, false, false)
	case predicate.OpLte:
		return rangeQuery(field, nil, h.Value, false, true)
	case predicate.OpGt:
		return rangeQuery(field, h.Value, nil, false, false)
	case predicate.OpGte:
		return rangeQuery(field, h.Value, nil, true, false)
	case predicate.OpBetween:
		if len(h.Values) != 2 {
			return nil, fmt.Errorf("%s: between requires 2 values, got %d", field, len(h.Values))
		}
		return rangeQuery(field, h.Values[0], h.Values[1], true, false)
	case predicate.OpStartsWith:
		prefix, ok := h.Value.(ir.IRString)
		if !ok {
			return nil, fmt.Errorf("%s: startsWith requires a string prefix", field)
		}
		q := query.NewPrefixQuery(string(prefix))
		q.SetField(field)
		return q, nil
	default:
		return nil, fmt.Errorf("%s: unsupported operator %q", field, h.Op)
	}
}

// equals builds the exact-match query for one value.
func (t *Translator) equals(field string, v ir.IRValue) (query.Query, error) {
	if field == t.idField && field != "" {
		return query.NewDocIDQuery([]string{ir.Format(v)}), nil
	}

	switch val := v.(type) {
	case ir.IRString:
		q := query.NewTermQuery(string(val))
		q.SetField(field)
		return q, nil
	case ir.IRInt, ir.IRFloat:
		f, _ := ir.AsFloat(val)
		return numericRange(field, &f, &f, true, true), nil
	case ir.IRBool:
		q := query.NewBoolFieldQuery(bool(val))
		q.SetField(field)
		return q, nil
	default:
		return nil, fmt.Errorf("%s: cannot match value of type %T", field, v)
	}
}

func (t *Translator) within(field string, values []ir.IRValue) (query.Query, error) {
	if len(values) == 0 {
		return query.NewMatchNoneQuery(), nil
	}

	if field == t.idField && field != "" {
		ids := make([]string, len(values))
		for i, v := range values {
			ids[i] = ir.Format(v)
		}
		return query.NewDocIDQuery(ids), nil
	}

	disjuncts := make([]query.Query, 0, len(values))
	for _, v := range values {
		q, err := t.equals(field, v)
		if err != nil {
			return nil, err
		}
		disjuncts = append(disjuncts, q)
	}
	if len(disjuncts) == 1 {
		return disjuncts[0], nil
	}
	return query.NewDisjunctionQuery(disjuncts), nil
}

// rangeQuery builds a numeric or term range. A nil bound is open.
func rangeQuery(field string, lo, hi ir.IRValue, loInclusive, hiInclusive bool) (query.Query, error) {
	bound := lo
	if bound == nil {
		bound = hi
	}

	switch bound.(type) {
	case ir.IRInt, ir.IRFloat:
		var lower, upper *float64
		if lo != nil {
			f, ok := ir.AsFloat(lo)
			if !ok {
				return nil, fmt.Errorf("%s: range bounds must both be numbers", field)
			}
			lower = &f
		}
		if hi != nil {
			f, ok := ir.AsFloat(hi)
			if !ok {
				return nil, fmt.Errorf("%s: range bounds must both be numbers", field)
			}
			upper = &f
		}
		return numericRange(field, lower, upper, loInclusive, hiInclusive), nil

	case ir.IRString:
		var lower, upper string
		if lo != nil {
			s, ok := lo.(ir.IRString)
			if !ok {
				return nil, fmt.Errorf("%s: range bounds must both be strings", field)
			}
			lower = string(s)
		}
		if hi != nil {
			s, ok := hi.(ir.IRString)
			if !ok {
				return nil, fmt.Errorf("%s: range bounds must both be strings", field)
			}
			upper = string(s)
		}
		if lower == "" && upper == "" {
			// "" sorts first: every indexed string is above it, none below.
			if lo != nil {
				return stringExists(field), nil
			}
			return query.NewMatchNoneQuery(), nil
		}
		q := query.NewTermRangeInclusiveQuery(lower, upper, &loInclusive, &hiInclusive)
		q.SetField(field)
		return q, nil

	default:
		return nil, fmt.Errorf("%s: range over %T is not supported", field, bound)
	}
}

func numericRange(field string, lower, upper *float64, lowerInclusive, upperInclusive bool) query.Query {
	q := query.NewNumericRangeInclusiveQuery(lower, upper, &lowerInclusive, &upperInclusive)
	q.SetField(field)
	return q
}

// exists matches documents with any string, number or boolean in field.
func exists(field string) query.Query {
	lo, hi := -math.MaxFloat64, math.MaxFloat64
	yes := query.NewBoolFieldQuery(true)
	yes.SetField(field)
	no := query.NewBoolFieldQuery(false)
	no.SetField(field)

	return query.NewDisjunctionQuery([]query.Query{
		stringExists(field),
		numericRange(field, &lo, &hi, true, true),
		yes,
		no,
	})
}

func stringExists(field string) query.Query {
	q := query.NewWildcardQuery("*")
	q.SetField(field)
	return q
}

// not matches documents matched by base but not by excluded.
func not(base, excluded query.Query) query.Query {
	return query.NewBooleanQuery([]query.Query{base}, nil, []query.Query{excluded})
}
