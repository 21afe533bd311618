package docstore

import (
	"context"
	"fmt"

	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
	"github.com/roach88/unigraph/internal/querydoc"
	"github.com/roach88/unigraph/internal/schema"
)

// Insert indexes rec as a new document. An existing document with the
// same identity wraps schema.ErrDuplicate.
func (s *Store) Insert(ctx context.Context, sch schema.ElementSchema, rec schema.Record) error {
	id, err := documentID(sch, rec)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", sch.Location(), err)
	}

	idx, err := s.Index(sch.Location())
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := idx.Document(id)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", sch.Location(), err)
	}
	if doc != nil {
		return fmt.Errorf("insert into %s: document %s: %w", sch.Location(), id, schema.ErrDuplicate)
	}

	return s.index(sch.Location(), id, rec)
}

// Upsert indexes rec, replacing any document with the same id.
func (s *Store) Upsert(ctx context.Context, sch schema.ElementSchema, rec schema.Record) error {
	if sch.IDField() == "" {
		return fmt.Errorf("upsert into %s: schema %s has no id field", sch.Location(), sch.Name())
	}
	id, err := documentID(sch, rec)
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", sch.Location(), err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.index(sch.Location(), id, rec)
}

// Delete removes every document matching filter in one batch.
func (s *Store) Delete(ctx context.Context, sch schema.ElementSchema, filter *predicate.Holder) (int, error) {
	if filter == nil || filter.IsEmpty() {
		return 0, fmt.Errorf("delete from %s: refusing unfiltered delete", sch.Location())
	}

	q, err := querydoc.NewTranslator(sch.IDField()).Translate(filter)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", sch.Location(), err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	hits, err := s.search(ctx, sch.Location(), q, 0, nil)
	if err != nil {
		return 0, err
	}
	if len(hits) == 0 {
		return 0, nil
	}

	idx, err := s.Index(sch.Location())
	if err != nil {
		return 0, err
	}
	batch := idx.NewBatch()
	for _, h := range hits {
		batch.Delete(h.id)
	}
	if err := idx.Batch(batch); err != nil {
		return 0, fmt.Errorf("delete from %s: %w", sch.Location(), err)
	}
	return len(hits), nil
}

// index writes one document through a batch. Callers hold writeMu.
func (s *Store) index(location, id string, rec schema.Record) error {
	idx, err := s.Index(location)
	if err != nil {
		return err
	}

	batch := idx.NewBatch()
	if err := batch.Index(id, document(rec)); err != nil {
		return fmt.Errorf("index %s into %s: %w", id, location, err)
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("index %s into %s: %w", id, location, err)
	}
	return nil
}

// documentID is the id field value, or the identity the schema derives
// from the record.
func documentID(sch schema.ElementSchema, rec schema.Record) (string, error) {
	if field := sch.IDField(); field != "" {
		v, ok := rec[field]
		if !ok || ir.IsNull(v) {
			return "", fmt.Errorf("record has no id field %q", field)
		}
		return ir.Format(v), nil
	}

	e, err := sch.Parse(rec)
	if err != nil {
		return "", err
	}
	return e.ID(), nil
}

// document converts a record into the native map bleve indexes. Null
// fields are left out.
func document(rec schema.Record) map[string]any {
	doc := make(map[string]any, len(rec))
	for field, v := range rec {
		if ir.IsNull(v) {
			continue
		}
		doc[field] = ir.ToNative(v)
	}
	return doc
}
