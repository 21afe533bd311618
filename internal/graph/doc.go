// Package graph defines the property graph element model returned by
// searches and accepted by mutations.
//
// Elements are vertices and edges. Both carry an identity that is assigned
// once and never changes, a label, and multi-valued properties. Edges
// reference their endpoints as DeferredVertex stubs so the endpoint
// properties can be loaded later in one batch.
//
// Two elements with the same Kind and ID are the same logical element.
package graph
