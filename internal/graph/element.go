package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/unigraph/internal/ir"
)

// Kind distinguishes vertices from edges.
type Kind int

const (
	KindVertex Kind = iota + 1
	KindEdge
)

// String returns "vertex" or "edge".
func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses "vertex" or "edge".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "vertex":
		return KindVertex, nil
	case "edge":
		return KindEdge, nil
	default:
		return 0, fmt.Errorf("unknown element kind %q (want vertex or edge)", s)
	}
}

// Properties maps a property key to one or more values.
// A key with an empty slice is treated as absent.
type Properties map[string][]ir.IRValue

// Value returns the first value for key.
func (p Properties) Value(key string) (ir.IRValue, bool) {
	vals := p[key]
	if len(vals) == 0 {
		return nil, false
	}
	return vals[0], true
}

// Has reports whether key carries at least one value.
func (p Properties) Has(key string) bool {
	return len(p[key]) > 0
}

// Keys returns property keys in sorted order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k, v := range p {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Clone returns a deep copy of the property map.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = slices.Clone(v)
	}
	return out
}

// Merge returns a copy of p with every key in other replacing p's values.
func (p Properties) Merge(other Properties) Properties {
	out := p.Clone()
	if out == nil {
		out = make(Properties, len(other))
	}
	maps.Copy(out, other.Clone())
	return out
}

// Single builds a Properties value from single-valued native pairs.
// Panics on values FromNative rejects; intended for tests and literals.
func Single(kv map[string]any) Properties {
	out := make(Properties, len(kv))
	for k, v := range kv {
		out[k] = []ir.IRValue{ir.MustFromNative(v)}
	}
	return out
}

// Element is a vertex or an edge.
type Element interface {
	ID() string
	Label() string
	Kind() Kind
	Properties() Properties
}

// VertexRef identifies a vertex by identity and, when known, label.
type VertexRef struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// Vertex is a fully materialized vertex.
type Vertex struct {
	id    string
	label string
	props Properties
}

// NewVertex constructs a vertex. The property map is copied.
func NewVertex(id, label string, props Properties) *Vertex {
	return &Vertex{id: id, label: label, props: props.Clone()}
}

func (v *Vertex) ID() string    { return v.id }
func (v *Vertex) Label() string { return v.label }
func (v *Vertex) Kind() Kind    { return KindVertex }

// Properties returns a copy of the vertex properties.
func (v *Vertex) Properties() Properties { return v.props.Clone() }

// Ref returns the vertex identity and label.
func (v *Vertex) Ref() VertexRef { return VertexRef{ID: v.id, Label: v.label} }

// Edge is a materialized edge. Its endpoints are stubs that a
// DeferredLoader can hydrate.
type Edge struct {
	id    string
	label string
	props Properties
	out   *DeferredVertex
	in    *DeferredVertex
}

// NewEdge constructs an edge between out and in. The property map is copied.
func NewEdge(id, label string, props Properties, out, in *DeferredVertex) *Edge {
	return &Edge{id: id, label: label, props: props.Clone(), out: out, in: in}
}

func (e *Edge) ID() string    { return e.id }
func (e *Edge) Label() string { return e.label }
func (e *Edge) Kind() Kind    { return KindEdge }

// Properties returns a copy of the edge properties.
func (e *Edge) Properties() Properties { return e.props.Clone() }

// OutVertex returns the stub for the edge's source vertex.
func (e *Edge) OutVertex() *DeferredVertex { return e.out }

// InVertex returns the stub for the edge's target vertex.
func (e *Edge) InVertex() *DeferredVertex { return e.in }

// Same reports whether a and b denote the same logical element.
func Same(a, b Element) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Kind() == b.Kind() && a.ID() == b.ID()
}

// Direction selects which endpoint of an edge is matched against a set of
// vertices in an adjacency search.
type Direction int

const (
	DirectionOut  Direction = iota + 1 // edges leaving the vertices
	DirectionIn                        // edges arriving at the vertices
	DirectionBoth                      // either endpoint
)

func (d Direction) String() string {
	switch d {
	case DirectionOut:
		return "out"
	case DirectionIn:
		return "in"
	case DirectionBoth:
		return "both"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection parses "out", "in" or "both".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "out":
		return DirectionOut, nil
	case "in":
		return DirectionIn, nil
	case "both":
		return DirectionBoth, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want out, in or both)", s)
	}
}
