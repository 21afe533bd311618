// Package query is the schema-driven query layer: it routes graph queries
// to element schemas, fans the resulting sub-queries out to a backend and
// turns backend records back into graph elements.
//
// # Reads
//
// A search selects the schemas of the requested kind and asks each to
// translate the predicate tree into its field names. A schema whose
// translation aborts can hold no match and gets no sub-query. The
// surviving plans run as one batch when the backend is a BatchSearcher,
// otherwise concurrently up to the controller's concurrency limit.
//
// Read failures never reach the caller. A failing sub-query contributes
// nothing and is logged; SearchWithReport exposes per-schema outcomes for
// callers that need to tell an outage from an empty result.
//
// # Writes
//
// Adds go to the first schema, in write order, that accepts the element.
// Write order is ascending Priority, ties keeping declaration order.
// Property updates go to the first schema that owns the element and
// removes go to every schema that can build a delete filter for it.
//
// # Deferred vertices
//
// FetchProperties hydrates vertex stubs with one routed identity search.
// Stubs without a matching record stay unresolved.
package query
