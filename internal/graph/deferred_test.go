package graph

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/unigraph/internal/ir"
)

func TestDeferredVertexStartsUnresolved(t *testing.T) {
	d := NewDeferredVertex("1", "person")

	assert.Equal(t, Unresolved, d.State())
	assert.False(t, d.Resolved())
	assert.Nil(t, d.Properties())
	assert.Equal(t, "unresolved", d.State().String())
}

func TestDeferredVertexHydrateOnce(t *testing.T) {
	d := NewDeferredVertex("1", "")

	first := NewVertex("1", "person", Single(map[string]any{"name": "marko"}))
	assert.True(t, d.Hydrate(first))
	assert.Equal(t, Resolved, d.State())
	assert.Equal(t, "person", d.Label(), "hydration fills in the label")
	assert.Equal(t, ir.IRString("marko"), d.Properties()["name"][0])

	second := NewVertex("1", "person", Single(map[string]any{"name": "other"}))
	assert.False(t, d.Hydrate(second), "second hydration is a no-op")
	assert.Equal(t, ir.IRString("marko"), d.Properties()["name"][0])
}

func TestDeferredVertexRejectsForeignVertex(t *testing.T) {
	d := NewDeferredVertex("1", "person")

	assert.False(t, d.Hydrate(NewVertex("2", "person", nil)))
	assert.False(t, d.Hydrate(nil))
	assert.Equal(t, Unresolved, d.State())
}

func TestDeferredVertexHydrateEmptyProperties(t *testing.T) {
	d := NewDeferredVertex("1", "person")

	assert.True(t, d.Hydrate(NewVertex("1", "", nil)))
	assert.NotNil(t, d.Properties(), "resolved stubs expose an empty, non-nil map")
	assert.Equal(t, "person", d.Label(), "an empty loaded label keeps the stub label")
}

func TestDeferredVertexConcurrentHydrate(t *testing.T) {
	d := NewDeferredVertex("1", "person")
	v := NewVertex("1", "person", Single(map[string]any{"name": "marko"}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.Hydrate(v) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load(), "exactly one caller performs the transition")
}
