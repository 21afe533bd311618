// Package harness runs conformance scenarios against a live graph.
//
// A scenario names a schema definition, seeds the graph with setup steps
// and then runs flow steps (searches, adjacency searches, deferred loads,
// property updates, removals, adds), each optionally checked against an
// expect clause. Every flow step is recorded in a trace that can be
// compared against a golden file.
//
// Runs are deterministic: each scenario gets fresh in-memory backends,
// new elements take identities "<id_prefix>-1", "<id_prefix>-2", ... and
// derived identities depend only on record contents.
//
// Elements created by a step with "as" can be referred to by that alias
// wherever a step names vertices or elements, and in ~id predicates.
package harness
