package engine

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unigraph/internal/config"
	"github.com/roach88/unigraph/internal/docstore"
	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/query"
	"github.com/roach88/unigraph/internal/store"
	"github.com/roach88/unigraph/internal/testutil"
)

func loadModern(t *testing.T) *config.Graph {
	t.Helper()
	cfg, err := config.LoadFile("../config/testdata/modern.cue")
	require.NoError(t, err)
	return cfg
}

func TestOpen_BuildsOneControllerPerBackend(t *testing.T) {
	g, err := Open(context.Background(), loadModern(t), OpenOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	controllers := g.Controllers()
	require.Len(t, controllers, 2)
	assert.Equal(t, store.BackendName, controllers[0].Backend().Name())
	assert.Equal(t, docstore.BackendName, controllers[1].Backend().Name())
	assert.Len(t, controllers[0].Schemas(), 2)

	// created has priority -1, so it is tried first.
	assert.Equal(t, "created", controllers[1].WriteOrder()[0].Name())
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	opts := OpenOptions{
		DBPath:   filepath.Join(dir, "graph.db"),
		IndexDir: dir,
		IDs:      testutil.NewSequenceGenerator("p"),
	}
	ctx := context.Background()

	g, err := Open(ctx, loadModern(t), opts)
	require.NoError(t, err)
	_, err = g.AddVertex(ctx, query.AddVertexQuery{Label: "person", Properties: graph.Single(map[string]any{"name": "marko"})})
	require.NoError(t, err)
	_, err = g.AddVertex(ctx, query.AddVertexQuery{Label: "software", Properties: graph.Single(map[string]any{"name": "lop"})})
	require.NoError(t, err)
	require.NoError(t, g.Close())

	// Setup statements are idempotent.
	g, err = Open(ctx, loadModern(t), opts)
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	got := slices.Collect(g.Search(ctx, query.SearchQuery{Kind: graph.KindVertex}))
	require.Len(t, got, 2)
	assert.Equal(t, "p-1", got[0].ID())
	assert.Equal(t, "p-2", got[1].ID())
}

func TestOpen_FailingSetup(t *testing.T) {
	cfg := loadModern(t)
	cfg.Setup = append(cfg.Setup, "CREATE TABLE")

	_, err := Open(context.Background(), cfg, OpenOptions{})
	assert.ErrorContains(t, err, "setup")
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), &config.Graph{}, OpenOptions{})
	assert.ErrorContains(t, err, "no schemas defined")
}
