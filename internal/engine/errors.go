package engine

import (
	"errors"
	"fmt"
)

// ErrIgnoreWindowTooShort is returned by New when the ignore window is
// below MinIgnoreWindowTicks.
var ErrIgnoreWindowTooShort = errors.New("ignore window too short")

// ErrVirtualRange is returned by New when the virtual coordinates do not
// fit in a KeyID or collide with a physical chord key.
var ErrVirtualRange = errors.New("virtual coordinates out of range")

// CatalogError represents an invalid chord definition detected while
// building a Catalog.
//
// Catalog errors include:
//   - Empty key set
//   - Duplicate participant key
//   - Too many participant keys
//   - Zero pending duration
//   - Unknown release behaviour
type CatalogError struct {
	// Code identifies the error category.
	Code CatalogErrorCode

	// Index is the position of the offending definition.
	Index int

	// Message is a human-readable description.
	Message string
}

// CatalogErrorCode categorizes catalog errors.
type CatalogErrorCode string

const (
	// ErrCodeNoKeys indicates a definition without participants.
	ErrCodeNoKeys CatalogErrorCode = "NO_KEYS"

	// ErrCodeDuplicateKey indicates a participant listed twice.
	ErrCodeDuplicateKey CatalogErrorCode = "DUPLICATE_KEY"

	// ErrCodeTooManyKeys indicates more participants than MaxChordKeys.
	ErrCodeTooManyKeys CatalogErrorCode = "TOO_MANY_KEYS"

	// ErrCodeZeroPending indicates a pending duration of zero ticks.
	ErrCodeZeroPending CatalogErrorCode = "ZERO_PENDING"

	// ErrCodeBadRelease indicates an unknown release behaviour.
	ErrCodeBadRelease CatalogErrorCode = "BAD_RELEASE"
)

// Error implements the error interface.
func (e *CatalogError) Error() string {
	return fmt.Sprintf("%s: chord %d: %s", e.Code, e.Index, e.Message)
}

// IsCatalogError reports whether err is (or wraps) a CatalogError.
func IsCatalogError(err error) bool {
	var ce *CatalogError
	return errors.As(err, &ce)
}
