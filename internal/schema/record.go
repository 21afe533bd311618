package schema

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/ir"
	"github.com/roach88/unigraph/internal/predicate"
)

// Parse materializes a record produced by a read against this schema.
func (m *Mapping) Parse(rec Record) (graph.Element, error) {
	props, err := m.parseProperties(rec)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", m.name, err)
	}

	id, err := m.identity(rec)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", m.name, err)
	}

	label := m.label
	if m.labelField != "" {
		v, ok := rec[m.labelField]
		if !ok || ir.IsNull(v) {
			return nil, fmt.Errorf("schema %s: record %s has no label field %q", m.name, id, m.labelField)
		}
		label = ir.Format(v)
	}

	if m.kind == graph.KindVertex {
		return graph.NewVertex(id, label, props), nil
	}

	outID, err := requiredString(rec, m.out.Field)
	if err != nil {
		return nil, fmt.Errorf("schema %s: edge %s: %w", m.name, id, err)
	}
	inID, err := requiredString(rec, m.in.Field)
	if err != nil {
		return nil, fmt.Errorf("schema %s: edge %s: %w", m.name, id, err)
	}

	return graph.NewEdge(id, label, props,
		graph.NewDeferredVertex(outID, m.out.Label),
		graph.NewDeferredVertex(inID, m.in.Label),
	), nil
}

func (m *Mapping) parseProperties(rec Record) (graph.Properties, error) {
	props := make(graph.Properties)
	for field, v := range rec {
		key, ok := m.fieldKeys[field]
		if !ok {
			if !m.dynamic || m.reserved(field) {
				continue
			}
			key = field
		}
		if ir.IsNull(v) {
			continue
		}

		f := m.props[key]
		values, err := expandValues(v, f)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key, err)
		}
		if len(values) > 0 {
			props[key] = values
		}
	}
	return props, nil
}

// expandValues turns a stored field value into property values. Relational
// backends store multi-valued fields as JSON array text.
func expandValues(v ir.IRValue, f FieldConfig) ([]ir.IRValue, error) {
	var raw []ir.IRValue
	switch val := v.(type) {
	case ir.IRArray:
		raw = val
	case ir.IRString:
		if f.Multi && len(val) > 0 && val[0] == '[' {
			decoded, err := ir.DecodeJSON([]byte(val))
			if err != nil {
				return nil, fmt.Errorf("decode multi-valued field: %w", err)
			}
			if arr, ok := decoded.(ir.IRArray); ok {
				raw = arr
				break
			}
		}
		raw = []ir.IRValue{val}
	default:
		raw = []ir.IRValue{val}
	}

	out := make([]ir.IRValue, 0, len(raw))
	for _, item := range raw {
		if ir.IsNull(item) {
			continue
		}
		cv, err := ir.Coerce(item, f.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, nil
}

// reserved reports whether field stores element metadata.
func (m *Mapping) reserved(field string) bool {
	switch field {
	case m.idField, m.labelField, m.out.Field, m.in.Field:
		return field != ""
	}
	return false
}

// identity reads the id field, or derives the identity from the record.
// Derived identities hash normalized values so that a record hashes the
// same when written and when read back from a backend that stores it in
// a different shape (numbers as text, arrays as JSON).
func (m *Mapping) identity(rec Record) (string, error) {
	if m.idField != "" {
		return requiredString(rec, m.idField)
	}

	content := make(ir.IRObject, len(rec))
	for field, v := range rec {
		if ir.IsNull(v) {
			continue
		}

		key, mapped := m.fieldKeys[field]
		switch {
		case m.reserved(field):
			content[field] = ir.IRString(ir.Format(v))
		case mapped || m.dynamic:
			f := m.props[key]
			values, err := expandValues(v, f)
			if err != nil {
				return "", fmt.Errorf("field %q: %w", field, err)
			}
			switch {
			case len(values) == 0:
			case f.Multi || len(values) > 1:
				content[field] = ir.IRArray(values)
			default:
				content[field] = values[0]
			}
		}
	}
	return ir.ElementID(m.location, content)
}

func requiredString(rec Record, field string) (string, error) {
	v, ok := rec[field]
	if !ok || ir.IsNull(v) {
		return "", fmt.Errorf("missing field %q", field)
	}
	return ir.Format(v), nil
}

// Serialize converts e into a record. Unmapped properties are an error on
// non-dynamic schemas, as are missing required properties and multiple
// values for a single-valued property.
func (m *Mapping) Serialize(e graph.Element) (Record, error) {
	if e.Kind() != m.kind {
		return nil, fmt.Errorf("schema %s stores %s, got %s", m.name, m.kind, e.Kind())
	}

	rec := make(Record)
	if m.idField != "" {
		rec[m.idField] = ir.IRString(e.ID())
	}
	if m.labelField != "" {
		rec[m.labelField] = ir.IRString(e.Label())
	}

	if edge, ok := e.(*graph.Edge); ok {
		if edge.OutVertex() == nil || edge.InVertex() == nil {
			return nil, errors.New("edge is missing an endpoint")
		}
		rec[m.out.Field] = ir.IRString(edge.OutVertex().ID())
		rec[m.in.Field] = ir.IRString(edge.InVertex().ID())
	}

	props := e.Properties()
	for _, key := range props.Keys() {
		f, ok := m.props[key]
		if !ok {
			if !m.dynamic {
				return nil, fmt.Errorf("property %q is not mapped by schema %s", key, m.name)
			}
			f = FieldConfig{Field: key, Multi: len(props[key]) > 1}
		}
		if m.reserved(f.Field) {
			return nil, fmt.Errorf("property %q collides with reserved field %q", key, f.Field)
		}

		values := make(ir.IRArray, 0, len(props[key]))
		for _, v := range props[key] {
			cv, err := ir.Coerce(v, f.Type)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", key, err)
			}
			values = append(values, cv)
		}

		switch {
		case f.Multi:
			rec[f.Field] = values
		case len(values) > 1:
			return nil, fmt.Errorf("property %q is single-valued, got %d values", key, len(values))
		default:
			rec[f.Field] = values[0]
		}
	}

	for _, key := range m.requiredKeys() {
		if _, ok := rec[m.props[key].Field]; !ok {
			return nil, fmt.Errorf("missing required property %q", key)
		}
	}
	return rec, nil
}

func (m *Mapping) requiredKeys() []string {
	var keys []string
	for key, f := range m.props {
		if f.Required {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

// DeleteFilter selects e's record by id field. Derived-identity schemas
// match on every scalar field instead, and only when the element's
// identity is the one this schema would derive for it.
func (m *Mapping) DeleteFilter(e graph.Element) *predicate.Holder {
	if !m.Owns(e) {
		return nil
	}
	if m.idField != "" {
		return predicate.Eq(m.idField, ir.IRString(e.ID()))
	}

	rec, err := m.Serialize(e)
	if err != nil {
		return nil
	}
	if id, err := m.identity(rec); err != nil || id != e.ID() {
		return nil
	}

	fields := make([]string, 0, len(rec))
	for field := range rec {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	parts := make([]*predicate.Holder, 0, len(fields))
	for _, field := range fields {
		if _, multi := rec[field].(ir.IRArray); multi {
			continue
		}
		parts = append(parts, predicate.Eq(field, rec[field]))
	}
	if len(parts) == 0 {
		return nil
	}
	return predicate.And(parts...)
}
