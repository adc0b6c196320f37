package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// leaves room for changing the encoding later.
const (
	DomainCatalog = "keychord/catalog/v1"
	DomainCycle   = "keychord/cycle/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The separator
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CatalogHash identifies an ordered chord catalog. Order matters: it
// decides tie-breaks between equally specific chords.
func CatalogHash(specs []ChordSpec) (string, error) {
	arr := make(IRArray, len(specs))
	for i, s := range specs {
		arr[i] = s.IR()
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("CatalogHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCatalog, canonical), nil
}

// CycleID identifies a cycle within a run.
func CycleID(runID string, c Cycle) (string, error) {
	obj := IRObject{
		"run_id": IRString(runID),
		"cycle":  c.IR(),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CycleID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCycle, canonical), nil
}

// MustCatalogHash is like CatalogHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCatalogHash(specs []ChordSpec) string {
	h, err := CatalogHash(specs)
	if err != nil {
		panic(err)
	}
	return h
}
