package schema

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
)

// Mapping is a configuration-driven ElementSchema.
//
// Property keys map to fields one to one. The label is either fixed for
// the whole location (Label) or read from a field (LabelField); with
// neither set the location name is used as a fixed label. Without an
// IDField the identity is a content hash of the record, which makes such
// elements immutable: they can be created and removed but not patched.
type Mapping struct {
	name       string
	kind       graph.Kind
	location   string
	label      string
	labelField string
	idField    string
	dynamic    bool
	priority   int
	props      map[string]FieldConfig
	out        EndpointConfig
	in         EndpointConfig

	// fieldKeys is the reverse of props: field name to property key.
	fieldKeys map[string]string
}

var _ ElementSchema = (*Mapping)(nil)

// New builds a Mapping from a validated configuration.
func New(cfg Config) (*Mapping, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kind, _ := graph.ParseKind(cfg.Kind)
	m := &Mapping{
		name:       cfg.Name,
		kind:       kind,
		location:   cfg.Location,
		label:      cfg.Label,
		labelField: cfg.LabelField,
		idField:    cfg.IDField,
		dynamic:    cfg.Dynamic,
		priority:   cfg.Priority,
		props:      maps.Clone(cfg.Properties),
		fieldKeys:  make(map[string]string, len(cfg.Properties)),
	}
	if m.props == nil {
		m.props = map[string]FieldConfig{}
	}
	if m.label == "" && m.labelField == "" {
		m.label = cfg.Location
	}
	if cfg.Out != nil {
		m.out = *cfg.Out
	}
	if cfg.In != nil {
		m.in = *cfg.In
	}

	for key, f := range m.props {
		if m.reserved(f.Field) {
			return nil, fmt.Errorf("schema %q: property %q maps onto reserved field %q", cfg.Name, key, f.Field)
		}
		if other, dup := m.fieldKeys[f.Field]; dup {
			return nil, fmt.Errorf("schema %q: properties %q and %q share field %q", cfg.Name, other, key, f.Field)
		}
		m.fieldKeys[f.Field] = key
	}
	return m, nil
}

// MustNew is like New but panics on error. Intended for tests.
func MustNew(cfg Config) *Mapping {
	m, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Mapping) Name() string        { return m.name }
func (m *Mapping) Kind() graph.Kind    { return m.kind }
func (m *Mapping) Location() string    { return m.location }
func (m *Mapping) IDField() string     { return m.idField }
func (m *Mapping) Priority() int       { return m.priority }
func (m *Mapping) StaticLabel() string { return m.label }

// Fields returns the sorted field list needed for keys. Identity, label
// and endpoint fields are always included. Derived-identity schemas always
// fetch every mapped field so the identity hash is stable.
func (m *Mapping) Fields(keys []string) []string {
	if m.dynamic {
		return nil
	}
	if keys == nil || m.idField == "" {
		keys = slices.Collect(maps.Keys(m.props))
	}

	set := make(map[string]bool)
	for _, f := range []string{m.idField, m.labelField, m.out.Field, m.in.Field} {
		if f != "" {
			set[f] = true
		}
	}
	for _, key := range keys {
		if f, ok := m.props[key]; ok {
			set[f.Field] = true
		}
	}

	fields := slices.Collect(maps.Keys(set))
	slices.Sort(fields)
	return fields
}

// Translate rewrites h into field names. See translateHas for the per-key
// rules.
func (m *Mapping) Translate(h *predicate.Holder) *predicate.Holder {
	return h.Map(m.translateHas)
}

func (m *Mapping) translateHas(has predicate.Has) *predicate.Holder {
	switch has.Key {
	case predicate.KeyID:
		if m.idField == "" {
			// Derived identities are not stored, so only existence is known.
			return constant(has.Op == predicate.OpExists)
		}
		return predicate.Leaf(has.WithKey(m.idField))

	case predicate.KeyLabel:
		if m.labelField != "" {
			return predicate.Leaf(has.WithKey(m.labelField))
		}
		return constant(has.Test(ir.IRString(m.label), true))

	case predicate.KeyOutID, predicate.KeyInID:
		if m.kind != graph.KindEdge {
			return predicate.Abort()
		}
		ep := m.endpoint(has.Key == predicate.KeyOutID)
		return predicate.Leaf(has.WithKey(ep.Field))

	case predicate.KeyOutLabel, predicate.KeyInLabel:
		if m.kind != graph.KindEdge {
			return predicate.Abort()
		}
		ep := m.endpoint(has.Key == predicate.KeyOutLabel)
		if ep.Label == "" {
			return predicate.Empty()
		}
		return constant(has.Test(ir.IRString(ep.Label), true))
	}

	if predicate.IsSpecialKey(has.Key) {
		return predicate.Abort()
	}

	f, ok := m.props[has.Key]
	if !ok {
		if !m.dynamic {
			// An unmapped key is never present here.
			return constant(has.Op == predicate.OpMissing)
		}
		f = FieldConfig{Field: has.Key}
	}
	has = has.WithKey(f.Field)
	has.Multi = f.Multi
	return coerceHas(has, f.Type)
}

func (m *Mapping) endpoint(out bool) EndpointConfig {
	if out {
		return m.out
	}
	return m.in
}

func constant(match bool) *predicate.Holder {
	if match {
		return predicate.Empty()
	}
	return predicate.Abort()
}

// coerceHas converts comparison operands to the field type. An operand
// that cannot be represented in the field type can never be equal to a
// stored value: eq and range leaves abort, list members are dropped and
// neq degrades to exists.
func coerceHas(has predicate.Has, typ string) *predicate.Holder {
	if typ == "" {
		return predicate.Leaf(has)
	}

	switch has.Op {
	case predicate.OpExists, predicate.OpMissing:
		return predicate.Leaf(has)
	case predicate.OpWithin, predicate.OpWithout:
		kept := make([]ir.IRValue, 0, len(has.Values))
		for _, v := range has.Values {
			if cv, err := ir.Coerce(v, typ); err == nil {
				kept = append(kept, cv)
			}
		}
		has.Values = kept
		if has.Op == predicate.OpWithout && len(kept) == 0 {
			return predicate.Leaf(predicate.Has{Key: has.Key, Op: predicate.OpExists})
		}
		return predicate.Leaf(has)
	case predicate.OpBetween:
		vals := make([]ir.IRValue, len(has.Values))
		for i, v := range has.Values {
			cv, err := ir.Coerce(v, typ)
			if err != nil {
				return predicate.Abort()
			}
			vals[i] = cv
		}
		has.Values = vals
		return predicate.Leaf(has)
	case predicate.OpStartsWith:
		if typ != ir.TypeString {
			return predicate.Abort()
		}
		return predicate.Leaf(has)
	}

	cv, err := ir.Coerce(has.Value, typ)
	if err != nil {
		if has.Op == predicate.OpNeq {
			return predicate.Leaf(predicate.Has{Key: has.Key, Op: predicate.OpExists})
		}
		return predicate.Abort()
	}
	has.Value = cv
	return predicate.Leaf(has)
}

// Owns reports whether e has this schema's kind and label.
func (m *Mapping) Owns(e graph.Element) bool {
	if e == nil || e.Kind() != m.kind {
		return false
	}
	return m.labelField != "" || e.Label() == m.label
}

// Accepts extends Owns with endpoint label checks for edges: an edge whose
// endpoint is known to carry a different label than the schema declares
// is refused.
func (m *Mapping) Accepts(e graph.Element) bool {
	if !m.Owns(e) {
		return false
	}
	edge, ok := e.(*graph.Edge)
	if !ok {
		return true
	}
	return endpointCompatible(m.out, edge.OutVertex()) && endpointCompatible(m.in, edge.InVertex())
}

func endpointCompatible(ep EndpointConfig, v *graph.DeferredVertex) bool {
	if v == nil {
		return false
	}
	label := v.Label()
	return ep.Label == "" || label == "" || label == ep.Label
}

// String returns the schema name and location, e.g. person@people.
func (m *Mapping) String() string {
	return m.name + "@" + m.location
}
