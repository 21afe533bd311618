package query

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
	"github.com/roach88/unigraph/internal/schema"
)

// memBackend keeps records in memory and evaluates filters with
// Holder.Test. It records every call for assertions.
type memBackend struct {
	name string

	mu      sync.Mutex
	tables  map[string][]schema.Record
	failing map[string]error
	plans   []Plan
	writes  []string // "op location"

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newMemBackend(name string) *memBackend {
	return &memBackend{
		name:    name,
		tables:  make(map[string][]schema.Record),
		failing: make(map[string]error),
	}
}

func (b *memBackend) Name() string { return b.name }

func (b *memBackend) fail(location string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing[location] = err
}

func (b *memBackend) put(location string, rec schema.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tables[location] = append(b.tables[location], rec)
}

func (b *memBackend) rows(location string) []schema.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.tables[location])
}

func (b *memBackend) searched() []Plan {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.plans)
}

func (b *memBackend) written() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.writes)
}

func (b *memBackend) Search(ctx context.Context, plan Plan) ([]schema.Record, error) {
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		prev := b.maxInFlight.Load()
		if n <= prev || b.maxInFlight.CompareAndSwap(prev, n) {
			break
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.plans = append(b.plans, plan)

	location := plan.Schema.Location()
	if err := b.failing[location]; err != nil {
		return nil, err
	}

	var out []schema.Record
	for _, rec := range b.tables[location] {
		if !matches(plan.Filter, rec) {
			continue
		}
		out = append(out, maps.Clone(rec))
		if plan.Limit > 0 && len(out) >= plan.Limit {
			break
		}
	}
	return out, nil
}

func (b *memBackend) Insert(ctx context.Context, s schema.ElementSchema, rec schema.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, "insert "+s.Location())

	if err := b.failing[s.Location()]; err != nil {
		return err
	}
	for _, existing := range b.tables[s.Location()] {
		if sameIdentity(s, existing, rec) {
			return fmt.Errorf("insert into %s: %w", s.Location(), schema.ErrDuplicate)
		}
	}
	b.tables[s.Location()] = append(b.tables[s.Location()], maps.Clone(rec))
	return nil
}

func (b *memBackend) Upsert(ctx context.Context, s schema.ElementSchema, rec schema.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, "upsert "+s.Location())

	rows := b.tables[s.Location()]
	for i, existing := range rows {
		if sameIdentity(s, existing, rec) {
			merged := maps.Clone(existing)
			maps.Copy(merged, rec)
			rows[i] = merged
			return nil
		}
	}
	b.tables[s.Location()] = append(rows, maps.Clone(rec))
	return nil
}

func (b *memBackend) Delete(ctx context.Context, s schema.ElementSchema, filter *predicate.Holder) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, "delete "+s.Location())

	if err := b.failing[s.Location()]; err != nil {
		return 0, err
	}
	kept := b.tables[s.Location()][:0]
	removed := 0
	for _, rec := range b.tables[s.Location()] {
		if matches(filter, rec) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	b.tables[s.Location()] = kept
	return removed, nil
}

func matches(filter *predicate.Holder, rec schema.Record) bool {
	return filter.Test(func(key string) (ir.IRValue, bool) {
		v, ok := rec[key]
		return v, ok
	})
}

func sameIdentity(s schema.ElementSchema, a, b schema.Record) bool {
	if f := s.IDField(); f != "" {
		return ir.Equal(a[f], b[f])
	}
	return ir.Equal(ir.IRObject(a), ir.IRObject(b))
}

// batchBackend answers every batch in one call.
type batchBackend struct {
	*memBackend
	batches atomic.Int32
}

func (b *batchBackend) SearchBatch(ctx context.Context, plans []Plan) []Outcome {
	b.batches.Add(1)
	out := make([]Outcome, len(plans))
	for i, plan := range plans {
		recs, err := b.Search(ctx, plan)
		out[i] = Outcome{Records: recs, Err: err}
	}
	return out
}

var errBackendDown = errors.New("backend down")

func personSchema() *schema.Mapping {
	return schema.MustNew(schema.Config{
		Name:     "person",
		Kind:     "vertex",
		Location: "person",
		IDField:  "id",
		Properties: map[string]schema.FieldConfig{
			"name": {Field: "nm", Type: ir.TypeString, Required: true},
			"age":  {Field: "age", Type: ir.TypeInt},
		},
	})
}

func softwareSchema() *schema.Mapping {
	return schema.MustNew(schema.Config{
		Name:     "software",
		Kind:     "vertex",
		Location: "software",
		IDField:  "id",
		Properties: map[string]schema.FieldConfig{
			"lang": {Field: "lang"},
		},
	})
}

func knowsSchema() *schema.Mapping {
	return schema.MustNew(schema.Config{
		Name:     "knows",
		Kind:     "edge",
		Location: "knows",
		Out:      &schema.EndpointConfig{Field: "src", Label: "person"},
		In:       &schema.EndpointConfig{Field: "dst", Label: "person"},
		Properties: map[string]schema.FieldConfig{
			"weight": {Field: "w", Type: ir.TypeFloat},
		},
	})
}

func createdSchema() *schema.Mapping {
	return schema.MustNew(schema.Config{
		Name:     "created",
		Kind:     "edge",
		Location: "created",
		IDField:  "id",
		Out:      &schema.EndpointConfig{Field: "src", Label: "person"},
		In:       &schema.EndpointConfig{Field: "dst", Label: "software"},
	})
}

func allSchemas() []schema.ElementSchema {
	return []schema.ElementSchema{personSchema(), softwareSchema(), knowsSchema(), createdSchema()}
}

// seed loads a small graph: marko and vadas know each other, marko
// created lop.
func seed(b *memBackend) {
	b.put("person", schema.Record{"id": ir.IRString("marko"), "nm": ir.IRString("marko"), "age": ir.IRInt(29)})
	b.put("person", schema.Record{"id": ir.IRString("vadas"), "nm": ir.IRString("vadas"), "age": ir.IRInt(27)})
	b.put("software", schema.Record{"id": ir.IRString("lop"), "lang": ir.IRString("java")})
	b.put("knows", schema.Record{"src": ir.IRString("marko"), "dst": ir.IRString("vadas"), "w": ir.IRFloat(0.5)})
	b.put("created", schema.Record{"id": ir.IRString("e1"), "src": ir.IRString("marko"), "dst": ir.IRString("lop")})
}

func newTestController(t *testing.T, b Backend, opts ...Option) *Controller {
	t.Helper()
	return New(b, allSchemas(), opts...)
}

func elementIDs(t *testing.T, elements []graph.Element) []string {
	t.Helper()
	out := make([]string, len(elements))
	for i, e := range elements {
		require.NotNil(t, e)
		out[i] = e.ID()
	}
	return out
}
