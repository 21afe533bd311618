package query

import (
	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/predicate"
)

// SearchQuery asks for elements of one kind matching a predicate.
type SearchQuery struct {
	// Kind is the element kind to return.
	Kind graph.Kind

	// Predicates filters the result. nil matches everything.
	Predicates *predicate.Holder

	// PropertyKeys limits the properties fetched. nil fetches all.
	PropertyKeys []string

	// Limit caps the result. Zero or negative means unlimited.
	Limit int

	// Step names the traversal step that issued the query, for logs.
	Step string
}

// SearchVertexQuery asks for the edges incident to a set of vertices.
type SearchVertexQuery struct {
	Vertices []graph.VertexRef

	// Direction picks the matched endpoint. The zero value means both.
	Direction graph.Direction

	// Predicates further filters the edges. nil matches everything.
	Predicates *predicate.Holder

	Limit int
	Step  string
}

// DeferredVertexQuery asks for the properties of vertex stubs.
type DeferredVertexQuery struct {
	Vertices []*graph.DeferredVertex

	// Predicates further restricts which stubs are hydrated.
	Predicates *predicate.Holder

	Step string
}

// AddVertexQuery creates a vertex. The identity is assigned by the
// controller.
type AddVertexQuery struct {
	Label      string
	Properties graph.Properties
}

// AddEdgeQuery creates an edge between two existing vertices.
type AddEdgeQuery struct {
	Label      string
	Properties graph.Properties
	Out        graph.VertexRef
	In         graph.VertexRef
}

// PropertyQuery sets properties on an existing element. Keys not named in
// Properties keep their current values.
type PropertyQuery struct {
	Element    graph.Element
	Properties graph.Properties
}

// RemoveQuery deletes elements.
type RemoveQuery struct {
	Elements []graph.Element
}
