package docstore

import (
	"context"
	"fmt"
	"math"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/roach88/unigraph/internal/ir"
	unigraphquery "github.com/roach88/unigraph/internal/query"
	"github.com/roach88/unigraph/internal/querydoc"
	"github.com/roach88/unigraph/internal/schema"
)

// maxHits is the request size for unlimited reads. bleve needs a concrete
// size; it does not preallocate for large ones.
const maxHits = math.MaxInt32

// Search runs one plan against the schema's index. Hits are ordered by
// document id.
func (s *Store) Search(ctx context.Context, plan unigraphquery.Plan) ([]schema.Record, error) {
	idField := plan.Schema.IDField()
	q, err := querydoc.NewTranslator(idField).Translate(plan.Filter)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", plan.Schema.Location(), err)
	}

	fields := plan.Fields
	if fields == nil {
		fields = []string{"*"}
	}

	hits, err := s.search(ctx, plan.Schema.Location(), q, plan.Limit, fields)
	if err != nil {
		return nil, err
	}

	records := make([]schema.Record, 0, len(hits))
	for _, hit := range hits {
		rec, err := decodeFields(hit.fields)
		if err != nil {
			return nil, fmt.Errorf("search %s: document %s: %w", plan.Schema.Location(), hit.id, err)
		}
		if idField != "" {
			rec[idField] = ir.IRString(hit.id)
		}
		records = append(records, rec)
	}
	return records, nil
}

type hit struct {
	id     string
	fields map[string]any
}

// search runs q against location. A limit of zero or less is unlimited.
func (s *Store) search(ctx context.Context, location string, q query.Query, limit int, fields []string) ([]hit, error) {
	idx, err := s.Index(location)
	if err != nil {
		return nil, err
	}

	size := limit
	if size <= 0 {
		size = maxHits
	}
	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	req.Fields = fields
	req.SortBy([]string{"_id"})

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", location, err)
	}

	hits := make([]hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, hit{id: h.ID, fields: h.Fields})
	}
	return hits, nil
}

// decodeFields converts stored bleve fields into a record. Numbers come
// back as float64; schemas coerce them to their declared types.
func decodeFields(fields map[string]any) (schema.Record, error) {
	rec := make(schema.Record, len(fields))
	for name, v := range fields {
		irv, err := ir.FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		rec[name] = irv
	}
	return rec, nil
}
