package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
	"github.com/roach88/unigraph/internal/query"
	"github.com/roach88/unigraph/internal/schema"
)

func TestSearch_FiltersAndDecodesRecords(t *testing.T) {
	s := createTestStore(t)
	insertPerson(t, s, "p1", "Alice", 30)
	insertPerson(t, s, "p2", "Bob", 40)

	m := personSchema()
	recs, err := s.Search(context.Background(), query.Plan{
		Schema: m,
		Filter: predicate.Eq("nm", ir.IRString("Alice")),
		Fields: m.Fields(nil),
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, schema.Record{
		"id":   ir.IRString("p1"),
		"nm":   ir.IRString("Alice"),
		"age":  ir.IRInt(30),
		"tags": ir.IRNull{},
	}, recs[0])
}

func TestSearch_NilFieldsReadsEveryColumn(t *testing.T) {
	s := createTestStore(t)
	insertPerson(t, s, "p1", "Alice", 30)

	recs, err := s.Search(context.Background(), query.Plan{
		Schema: personSchema(),
		Filter: predicate.Empty(),
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Len(t, recs[0], 4)
}

func TestSearch_OrdersByIDAndHonoursLimit(t *testing.T) {
	s := createTestStore(t)
	insertPerson(t, s, "p3", "Carol", 50)
	insertPerson(t, s, "p1", "Alice", 30)
	insertPerson(t, s, "p2", "Bob", 40)

	m := personSchema()
	ids := func(limit int) []string {
		recs, err := s.Search(context.Background(), query.Plan{
			Schema: m,
			Filter: predicate.Empty(),
			Fields: []string{"id"},
			Limit:  limit,
		})
		require.NoError(t, err)
		out := make([]string, len(recs))
		for i, rec := range recs {
			out[i] = ir.Format(rec["id"])
		}
		return out
	}

	assert.Equal(t, []string{"p1", "p2"}, ids(2))
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(0))
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(-1))
}

func TestSearch_MultiValuedFieldMatchesElements(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	m := personSchema()

	for id, tags := range map[string][]string{"p1": {"a", "b"}, "p2": {"c"}, "p3": nil} {
		props := graph.Single(map[string]any{"name": id})
		for _, tag := range tags {
			props["tags"] = append(props["tags"], ir.IRString(tag))
		}
		rec, err := m.Serialize(graph.NewVertex(id, "person", props))
		require.NoError(t, err)
		require.NoError(t, s.Insert(ctx, m, rec))
	}

	ids := func(filter *predicate.Holder) []string {
		recs, err := s.Search(ctx, query.Plan{
			Schema: m,
			Filter: m.Translate(filter),
			Fields: []string{"id"},
		})
		require.NoError(t, err)
		out := make([]string, len(recs))
		for i, rec := range recs {
			out[i] = ir.Format(rec["id"])
		}
		return out
	}

	assert.Equal(t, []string{"p1"}, ids(predicate.Eq("tags", ir.IRString("a"))))
	assert.Equal(t, []string{"p1"}, ids(predicate.Eq("tags", ir.IRString("b"))))
	assert.Empty(t, ids(predicate.Eq("tags", ir.IRString("z"))))
	assert.Equal(t, []string{"p1", "p2"}, ids(predicate.Within("tags", ir.IRString("b"), ir.IRString("c"))))
	assert.Equal(t, []string{"p2"}, ids(predicate.Neq("tags", ir.IRString("a"))))
	assert.Equal(t, []string{"p2"}, ids(predicate.Without("tags", ir.IRString("a"), ir.IRString("b"))))
	assert.Equal(t, []string{"p1", "p2"}, ids(predicate.Exists("tags")))
	assert.Equal(t, []string{"p3"}, ids(predicate.Missing("tags")))
}

func TestSearch_MissingTable(t *testing.T) {
	s := createTestStore(t)

	ghost := schema.MustNew(schema.Config{Name: "ghost", Kind: "vertex", Location: "ghost", IDField: "id"})
	_, err := s.Search(context.Background(), query.Plan{Schema: ghost, Filter: predicate.Empty()})
	assert.ErrorContains(t, err, "ghost does not exist")
}

func TestSearchBatch_PairsRecordsWithPlans(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	insertPerson(t, s, "p1", "Alice", 30)
	insertPerson(t, s, "p2", "Bob", 40)

	k := knowsSchema()
	rec, err := k.Serialize(knowsEdge("p1", "p2", 0.5))
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, k, rec))

	p := personSchema()
	outcomes := s.SearchBatch(ctx, []query.Plan{
		{Schema: k, Filter: predicate.Empty(), Fields: k.Fields(nil)},
		{Schema: p, Filter: predicate.Gte("age", ir.IRInt(35)), Fields: p.Fields(nil)},
	})
	require.Len(t, outcomes, 2)

	require.NoError(t, outcomes[0].Err)
	require.Len(t, outcomes[0].Records, 1)
	assert.Equal(t, ir.IRFloat(0.5), outcomes[0].Records[0]["w"])

	require.NoError(t, outcomes[1].Err)
	require.Len(t, outcomes[1].Records, 1)
	assert.Equal(t, ir.IRString("p2"), outcomes[1].Records[0]["id"])
}

func TestSearchBatch_FailingArmDoesNotHideOthers(t *testing.T) {
	s := createTestStore(t)
	insertPerson(t, s, "p1", "Alice", 30)

	ghost := schema.MustNew(schema.Config{Name: "ghost", Kind: "vertex", Location: "ghost", IDField: "id"})
	p := personSchema()

	outcomes := s.SearchBatch(context.Background(), []query.Plan{
		// Explicit fields skip introspection, so the union itself fails.
		{Schema: ghost, Filter: predicate.Empty(), Fields: []string{"id"}},
		{Schema: p, Filter: predicate.Empty(), Fields: p.Fields(nil)},
	})
	require.Len(t, outcomes, 2)

	assert.Error(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)
	assert.Len(t, outcomes[1].Records, 1)
}

func TestSearchBatch_UncompilableArm(t *testing.T) {
	s := createTestStore(t)
	insertPerson(t, s, "p1", "Alice", 30)
	p := personSchema()

	bad := predicate.Leaf(predicate.Has{Key: "nm", Op: predicate.OpStartsWith, Value: ir.IRInt(1)})
	outcomes := s.SearchBatch(context.Background(), []query.Plan{
		{Schema: p, Filter: bad, Fields: p.Fields(nil)},
		{Schema: p, Filter: predicate.Empty(), Fields: p.Fields(nil)},
	})

	assert.ErrorContains(t, outcomes[0].Err, "startsWith requires a string prefix")
	require.NoError(t, outcomes[1].Err)
	assert.Len(t, outcomes[1].Records, 1)
}

func TestSearchBatch_Empty(t *testing.T) {
	s := createTestStore(t)
	assert.Empty(t, s.SearchBatch(context.Background(), nil))
}
