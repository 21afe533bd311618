package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/schema"
)

// createTestStore opens a store in a temp dir with the person and knows
// tables provisioned.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Exec(ctx, `CREATE TABLE person (id TEXT PRIMARY KEY, nm TEXT NOT NULL, age INTEGER, tags TEXT)`))
	require.NoError(t, s.Exec(ctx, `CREATE TABLE knows (src TEXT NOT NULL, dst TEXT NOT NULL, w REAL)`))
	return s
}

func personSchema() *schema.Mapping {
	return schema.MustNew(schema.Config{
		Name:     "person",
		Kind:     "vertex",
		Location: "person",
		IDField:  "id",
		Properties: map[string]schema.FieldConfig{
			"name": {Field: "nm", Type: ir.TypeString, Required: true},
			"age":  {Field: "age", Type: ir.TypeInt},
			"tags": {Field: "tags", Multi: true},
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

// insertPerson serializes and inserts a person vertex.
func insertPerson(t *testing.T, s *Store, id, name string, age int) {
	t.Helper()
	m := personSchema()
	rec, err := m.Serialize(graph.NewVertex(id, "person", graph.Single(map[string]any{
		"name": name,
		"age":  age,
	})))
	require.NoError(t, err)
	require.NoError(t, s.Insert(context.Background(), m, rec))
}

func knowsEdge(out, in string, weight float64) *graph.Edge {
	return graph.NewEdge("", "knows", graph.Single(map[string]any{"weight": weight}),
		graph.NewDeferredVertex(out, "person"),
		graph.NewDeferredVertex(in, "person"),
	)
}
