// Package ir provides the value model shared by every layer of unigraph.
//
// Graph property values, predicate literals and backend records are all
// expressed as IRValue. The interface is sealed: only IRNull, IRString,
// IRInt, IRFloat, IRBool, IRArray and IRObject implement it, which lets the
// predicate translators switch exhaustively on value types.
//
// This package imports nothing internal. Every other internal package may
// import ir; ir never imports them back.
//
// Key design constraints:
//   - Integers are always int64, floats always float64
//   - Native conversion (FromNative / ToNative) is the only bridge to
//     backend drivers, which speak Go primitives
//   - Canonical JSON (MarshalCanonical) is the only serialization used for
//     content-addressed identities
package ir
