// Package engine composes query controllers into one graph.
//
// A Graph owns one controller per backend, in declaration order. Reads go
// to every controller and their results are concatenated in that order.
// Writes go to the controllers in order until one of them routes the
// element; an element is unroutable only when no controller accepts it.
//
// Reads never fail: a backend that errors contributes nothing and the
// failure is visible in the per-controller reports of the WithReport
// variants. Writes return typed graph errors (see graph.ElementError).
package engine
