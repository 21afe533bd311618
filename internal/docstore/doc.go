// Package docstore is the search-document backend: element records live
// as documents in bleve indexes, one index per schema location.
//
// Indexes are created on first use, in memory or under a directory. Every
// index uses the keyword analyzer so string fields match exactly, the way
// the predicate operators expect.
//
// Document ids are element identities: the id field value, or for
// derived-identity schemas the identity the schema parses from the record.
// A create therefore collides exactly when the identity is already taken.
package docstore
