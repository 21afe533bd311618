package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
)

func TestParseVertex(t *testing.T) {
	m := personSchema()

	e, err := m.Parse(Record{
		"id":    ir.IRInt(1),
		"nm":    ir.IRString("marko"),
		"age":   ir.IRString("29"),
		"tags":  ir.IRString(`["a","b"]`),
		"other": ir.IRString("ignored"),
	})
	require.NoError(t, err)

	assert.Equal(t, graph.KindVertex, e.Kind())
	assert.Equal(t, "1", e.ID())
	assert.Equal(t, "person", e.Label())
	assert.Equal(t, graph.Properties{
		"name": {ir.IRString("marko")},
		"age":  {ir.IRInt(29)},
		"tags": {ir.IRString("a"), ir.IRString("b")},
	}, e.Properties())
}

func TestParseSkipsNulls(t *testing.T) {
	m := personSchema()

	e, err := m.Parse(Record{"id": ir.IRString("1"), "nm": ir.IRString("marko"), "age": ir.IRNull{}})
	require.NoError(t, err)

	assert.False(t, e.Properties().Has("age"))
}

func TestParseRequiresIdentity(t *testing.T) {
	_, err := personSchema().Parse(Record{"nm": ir.IRString("marko")})
	assert.ErrorContains(t, err, `missing field "id"`)
}

func TestParseEdge(t *testing.T) {
	m := knowsSchema()

	e, err := m.Parse(Record{"src": ir.IRInt(1), "dst": ir.IRString("2"), "w": ir.IRInt(1)})
	require.NoError(t, err)

	edge, ok := e.(*graph.Edge)
	require.True(t, ok)
	assert.Equal(t, "knows", edge.Label())
	assert.Equal(t, "1", edge.OutVertex().ID())
	assert.Equal(t, "person", edge.OutVertex().Label())
	assert.Equal(t, "2", edge.InVertex().ID())
	assert.Equal(t, graph.Unresolved, edge.InVertex().State())
	assert.Equal(t, ir.IRFloat(1), edge.Properties()["weight"][0])
	assert.Len(t, edge.ID(), 64, "derived identity is a SHA-256 hex digest")

	_, err = m.Parse(Record{"src": ir.IRInt(1)})
	assert.ErrorContains(t, err, `missing field "dst"`)
}

func TestDerivedIdentityIsStableAcrossShapes(t *testing.T) {
	m := knowsSchema()

	written, err := m.Parse(Record{"src": ir.IRString("1"), "dst": ir.IRString("2"), "w": ir.IRFloat(0.5)})
	require.NoError(t, err)
	read, err := m.Parse(Record{"src": ir.IRInt(1), "dst": ir.IRInt(2), "w": ir.IRFloat(0.5)})
	require.NoError(t, err)
	other, err := m.Parse(Record{"src": ir.IRInt(1), "dst": ir.IRInt(2), "w": ir.IRFloat(0.7)})
	require.NoError(t, err)

	assert.Equal(t, written.ID(), read.ID())
	assert.NotEqual(t, written.ID(), other.ID())
}

func TestParseLabelField(t *testing.T) {
	m := MustNew(Config{Name: "things", Kind: "vertex", Location: "things", LabelField: "kind", IDField: "id"})

	e, err := m.Parse(Record{"id": ir.IRString("w1"), "kind": ir.IRString("widget")})
	require.NoError(t, err)
	assert.Equal(t, "widget", e.Label())

	_, err = m.Parse(Record{"id": ir.IRString("w1")})
	assert.ErrorContains(t, err, `no label field "kind"`)
}

func TestParseDynamic(t *testing.T) {
	m := MustNew(Config{Name: "docs", Kind: "vertex", Location: "docs", IDField: "_id", Dynamic: true})

	e, err := m.Parse(Record{"_id": ir.IRString("d1"), "color": ir.IRString("red"), "sizes": ir.IRArray{ir.IRInt(1), ir.IRInt(2)}})
	require.NoError(t, err)

	assert.Equal(t, graph.Properties{
		"color": {ir.IRString("red")},
		"sizes": {ir.IRInt(1), ir.IRInt(2)},
	}, e.Properties())
}

func TestSerializeVertex(t *testing.T) {
	m := personSchema()
	v := graph.NewVertex("1", "person", graph.Properties{
		"name": {ir.IRString("marko")},
		"age":  {ir.IRString("29")},
		"tags": {ir.IRString("a")},
	})

	rec, err := m.Serialize(v)
	require.NoError(t, err)

	assert.Equal(t, Record{
		"id":   ir.IRString("1"),
		"nm":   ir.IRString("marko"),
		"age":  ir.IRInt(29),
		"tags": ir.IRArray{ir.IRString("a")},
	}, rec)
}

func TestSerializeRejects(t *testing.T) {
	m := personSchema()

	tests := []struct {
		name    string
		props   graph.Properties
		message string
	}{
		{"unmapped", graph.Properties{"name": {ir.IRString("a")}, "salary": {ir.IRInt(1)}}, `"salary" is not mapped`},
		{"required", graph.Properties{"age": {ir.IRInt(1)}}, `missing required property "name"`},
		{"single valued", graph.Properties{"name": {ir.IRString("a"), ir.IRString("b")}}, "single-valued"},
		{"bad type", graph.Properties{"name": {ir.IRString("a")}, "age": {ir.IRString("old")}}, `property "age"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Serialize(graph.NewVertex("1", "person", tt.props))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	_, err := m.Serialize(graph.NewEdge("e", "person", nil, graph.NewDeferredVertex("1", ""), graph.NewDeferredVertex("2", "")))
	assert.ErrorContains(t, err, "stores vertex, got edge")
}

func TestSerializeEdgeRoundTrip(t *testing.T) {
	m := knowsSchema()
	edge := graph.NewEdge("pending", "knows", graph.Properties{"weight": {ir.IRFloat(0.5)}},
		graph.NewDeferredVertex("1", "person"), graph.NewDeferredVertex("2", "person"))

	rec, err := m.Serialize(edge)
	require.NoError(t, err)
	assert.Equal(t, Record{"src": ir.IRString("1"), "dst": ir.IRString("2"), "w": ir.IRFloat(0.5)}, rec)

	parsed, err := m.Parse(rec)
	require.NoError(t, err)
	assert.Equal(t, edge.Properties(), parsed.Properties())
	assert.NotEqual(t, "pending", parsed.ID(), "derived identity replaces the provisional one")
}

func TestDeleteFilter(t *testing.T) {
	people := personSchema()

	f := people.DeleteFilter(graph.NewVertex("1", "person", nil))
	require.NotNil(t, f)
	assert.Equal(t, `id eq "1"`, f.String())

	assert.Nil(t, people.DeleteFilter(graph.NewVertex("3", "software", nil)), "not represented here")
}

func TestDeleteFilterDerivedIdentity(t *testing.T) {
	m := knowsSchema()

	e, err := m.Parse(Record{"src": ir.IRString("1"), "dst": ir.IRString("2"), "w": ir.IRFloat(0.5)})
	require.NoError(t, err)

	f := m.DeleteFilter(e)
	require.NotNil(t, f)
	assert.Equal(t, `and(dst eq "2", src eq "1", w eq 0.5)`, f.String())

	stranger := graph.NewEdge("not-a-hash", "knows", nil, graph.NewDeferredVertex("1", ""), graph.NewDeferredVertex("2", ""))
	assert.Nil(t, m.DeleteFilter(stranger), "identity does not match this schema's derivation")
}
