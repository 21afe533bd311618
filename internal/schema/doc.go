// Package schema maps graph elements onto backend records.
//
// An ElementSchema owns one backend location (a table or an index) for one
// element kind. It knows how to:
//   - rewrite a graph predicate into its own field names (Translate), or
//     report that the predicate can never match there (an aborted holder)
//   - choose the fields a read must fetch (Fields)
//   - turn a backend record into a vertex or edge (Parse)
//   - turn an element into a record for writing (Serialize)
//   - decide whether an element belongs to it (Accepts, Owns)
//   - build the filter that deletes an element (DeleteFilter)
//
// Mapping is the configurable implementation used for every backend.
// Schemas are immutable once built and safe for concurrent use.
package schema
