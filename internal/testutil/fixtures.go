package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/unigraph/internal/docstore"
	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/schema"
	"github.com/roach88/unigraph/internal/store"
)

// DDL for the tables behind ModernSQLSchemas.
const (
	PersonDDL = `CREATE TABLE person (id TEXT PRIMARY KEY, nm TEXT NOT NULL, age INTEGER)`
	KnowsDDL  = `CREATE TABLE knows (src TEXT NOT NULL, dst TEXT NOT NULL, w REAL)`
)

// OpenStore opens a SQLite store under t.TempDir() and runs each ddl
// statement. The store is closed when the test ends.
func OpenStore(t testing.TB, ddl ...string) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	for _, stmt := range ddl {
		require.NoError(t, s.Exec(context.Background(), stmt))
	}
	return s
}

// NewDocStore creates an in-memory document store closed when the test ends.
func NewDocStore(t testing.TB) *docstore.Store {
	t.Helper()
	s := docstore.New("")
	t.Cleanup(func() { s.Close() })
	return s
}

// ModernSQLSchemas returns the person and knows schemas of the row backend.
// knows derives its identity from content.
func ModernSQLSchemas() []schema.ElementSchema {
	return []schema.ElementSchema{
		schema.MustNew(schema.Config{
			Name:     "person",
			Kind:     "vertex",
			Location: "person",
			Label:    "person",
			IDField:  "id",
			Properties: map[string]schema.FieldConfig{
				"name": {Field: "nm", Type: ir.TypeString, Required: true},
				"age":  {Field: "age", Type: ir.TypeInt},
			},
		}),
		schema.MustNew(schema.Config{
			Name:     "knows",
			Kind:     "edge",
			Location: "knows",
			Label:    "knows",
			Out:      &schema.EndpointConfig{Field: "src", Label: "person"},
			In:       &schema.EndpointConfig{Field: "dst", Label: "person"},
			Properties: map[string]schema.FieldConfig{
				"weight": {Field: "w", Type: ir.TypeFloat},
			},
		}),
	}
}

// ModernSearchSchemas returns the software and created schemas of the
// document backend.
func ModernSearchSchemas() []schema.ElementSchema {
	return []schema.ElementSchema{
		schema.MustNew(schema.Config{
			Name:     "software",
			Kind:     "vertex",
			Location: "software",
			Label:    "software",
			IDField:  "id",
			Properties: map[string]schema.FieldConfig{
				"name": {Field: "name", Type: ir.TypeString, Required: true},
				"lang": {Field: "lang", Type: ir.TypeString},
			},
		}),
		schema.MustNew(schema.Config{
			Name:     "created",
			Kind:     "edge",
			Location: "created",
			Label:    "created",
			IDField:  "id",
			Out:      &schema.EndpointConfig{Field: "src", Label: "person"},
			In:       &schema.EndpointConfig{Field: "dst", Label: "software"},
			Properties: map[string]schema.FieldConfig{
				"weight": {Field: "weight", Type: ir.TypeFloat},
			},
		}),
	}
}
