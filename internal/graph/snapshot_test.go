package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/unigraph/internal/ir"
)

func TestSnapshot_Vertex(t *testing.T) {
	v := NewVertex("v1", "person", Properties{
		"name":  {ir.IRString("marko")},
		"alias": {ir.IRString("m"), ir.IRString("mk")},
	})

	assert.Equal(t, ir.IRObject{
		"id":    ir.IRString("v1"),
		"kind":  ir.IRString("vertex"),
		"label": ir.IRString("person"),
		"properties": ir.IRObject{
			"name":  ir.IRString("marko"),
			"alias": ir.IRArray{ir.IRString("m"), ir.IRString("mk")},
		},
	}, Snapshot(v))
}

func TestSnapshot_EdgeWithoutProperties(t *testing.T) {
	e := NewEdge("e1", "knows", nil, NewDeferredVertex("a", "person"), NewDeferredVertex("b", "person"))

	snap := Snapshot(e)
	assert.Equal(t, ir.IRString("edge"), snap["kind"])
	assert.Equal(t, ir.IRString("a"), snap["out"])
	assert.Equal(t, ir.IRString("b"), snap["in"])
	assert.NotContains(t, snap, "properties")
}
