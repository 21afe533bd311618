package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainElement = "unigraph/element/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ElementID derives a stable identity for a record stored at a location that
// carries no id column. The same location and field values always produce
// the same id, so repeated reads of an unchanged row agree.
func ElementID(location string, fields IRObject) (string, error) {
	obj := IRObject{
		"location": IRString(location),
		"fields":   fields,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ElementID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainElement, canonical), nil
}

// MustElementID is like ElementID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustElementID(location string, fields IRObject) string {
	id, err := ElementID(location, fields)
	if err != nil {
		panic(err)
	}
	return id
}
