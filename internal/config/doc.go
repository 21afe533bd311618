// Package config loads graph schema definitions.
//
// A definition lists element schemas, each bound to a backend ("sql" for
// the SQLite row store, "search" for the bleve document store). It is
// written in CUE and checked against the embedded #Graph definition, or
// in YAML with unknown keys rejected. Declaration order is kept: it is the
// read order of each backend and breaks priority ties for writes.
//
// Example (CUE):
//
//	setup: ["CREATE TABLE IF NOT EXISTS person (id TEXT PRIMARY KEY, nm TEXT)"]
//	schemas: [{
//		name:     "person"
//		backend:  "sql"
//		kind:     "vertex"
//		location: "person"
//		idField:  "id"
//		properties: name: {field: "nm", type: "string", required: true}
//	}]
package config
