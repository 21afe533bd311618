package graph

import "github.com/roach88/unigraph/internal/ir"

// Snapshot renders e as an IR object: id, kind, label, the properties
// when there are any, and out/in identities for edges. Single values are
// rendered as scalars, multi values as arrays.
func Snapshot(e Element) ir.IRObject {
	obj := ir.IRObject{
		"id":    ir.IRString(e.ID()),
		"kind":  ir.IRString(e.Kind().String()),
		"label": ir.IRString(e.Label()),
	}

	props := e.Properties()
	if len(props) > 0 {
		values := make(ir.IRObject, len(props))
		for _, key := range props.Keys() {
			if vs := props[key]; len(vs) == 1 {
				values[key] = vs[0]
			} else {
				values[key] = ir.IRArray(vs)
			}
		}
		obj["properties"] = values
	}

	if edge, ok := e.(*Edge); ok {
		obj["out"] = ir.IRString(edge.OutVertex().ID())
		obj["in"] = ir.IRString(edge.InVertex().ID())
	}
	return obj
}
