// Package predicate provides the graph-level filter model.
//
// A Holder is an immutable boolean tree. Leaves are Has comparisons
// (key, operator, value); inner nodes combine leaves and child holders
// with AND or OR. A Holder may also be aborted, meaning it provably
// matches nothing.
//
// Abort is how schema applicability is decided. When a schema rewrites a
// holder into its own field names (see Holder.Map), a key the schema does
// not map turns its leaf into Abort. The factory rules then decide the
// outcome:
//
//	And(x, Abort()) == Abort()   a required conjunct can never match
//	Or(x, Abort())  == x         a failed alternative is dropped
//	Or(Abort())     == Abort()   no alternative survives
//
// A schema whose rewritten holder is aborted is excluded from the search.
//
// Special keys address element metadata rather than properties:
//
//	~id         element identity
//	~label      element label
//	~out.id     edge source vertex identity
//	~in.id      edge target vertex identity
//	~out.label  edge source vertex label
//	~in.label   edge target vertex label
package predicate
