// Package querydoc translates predicates into bleve query trees for the
// search-document backend.
//
// Fields are expected to be indexed with the keyword analyzer, so a
// string comparison is an exact term match. Numbers are indexed as
// numeric fields and booleans as boolean fields; equality on either is
// lowered to the matching native query.
package querydoc
