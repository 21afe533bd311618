package graph

import "sync"

// HydrationState is the lifecycle tag of a DeferredVertex.
type HydrationState int

const (
	// Unresolved means only the identity (and possibly the label) is known.
	Unresolved HydrationState = iota
	// Resolved means properties were loaded. Terminal.
	Resolved
)

func (s HydrationState) String() string {
	if s == Resolved {
		return "resolved"
	}
	return "unresolved"
}

// DeferredVertex is a vertex stub whose properties are loaded later.
//
// A stub starts Unresolved. Hydrate moves it to Resolved exactly once;
// later calls are no-ops. A stub that is never matched by a load stays
// Unresolved, which signals that the endpoint is unavailable.
//
// Thread-safety: safe for concurrent use. Callers should still read
// Properties only after the loader call that owns the stub has returned.
type DeferredVertex struct {
	mu    sync.Mutex
	id    string
	label string
	state HydrationState
	props Properties
}

// NewDeferredVertex creates an unresolved stub.
func NewDeferredVertex(id, label string) *DeferredVertex {
	return &DeferredVertex{id: id, label: label}
}

func (d *DeferredVertex) ID() string { return d.id }
func (d *DeferredVertex) Kind() Kind { return KindVertex }

// Label returns the label known for the stub. Hydration may fill it in.
func (d *DeferredVertex) Label() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.label
}

// State returns the current hydration state.
func (d *DeferredVertex) State() HydrationState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Resolved reports whether the stub has been hydrated.
func (d *DeferredVertex) Resolved() bool {
	return d.State() == Resolved
}

// Properties returns a copy of the loaded properties, or nil while unresolved.
func (d *DeferredVertex) Properties() Properties {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.props.Clone()
}

// Hydrate copies the properties of a loaded vertex into the stub.
// Returns true if this call performed the transition. A vertex with a
// different identity is rejected.
func (d *DeferredVertex) Hydrate(v *Vertex) bool {
	if v == nil || v.id != d.id {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Resolved {
		return false
	}
	d.props = v.props.Clone()
	if d.props == nil {
		d.props = Properties{}
	}
	if v.label != "" {
		d.label = v.label
	}
	d.state = Resolved
	return true
}
