package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/keychord/internal/engine"
	"github.com/roach88/keychord/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrChordNameInvalid   = "E101" // name must be an identifier
	ErrChordNoKeys        = "E102" // at least one key required
	ErrChordTooManyKeys   = "E103" // more keys than an active chord can track
	ErrChordDuplicateKey  = "E104" // key listed twice in one chord
	ErrChordZeroPending   = "E105" // pending window must be at least one tick
	ErrChordBadRelease    = "E106" // release must be "first" or "last"
	ErrChordEmptyAction   = "E107" // action is required
	ErrChordDuplicateName = "E108" // two chords share a name
	ErrChordVirtualKey    = "E109" // key collides with virtual coordinates
)

// ValidationError is a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var chordNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Validate checks a compiled catalog against the rules the engine enforces
// at construction, plus naming rules for tooling. All errors are returned.
func Validate(specs []ir.ChordSpec) []ValidationError {
	var errs []ValidationError
	names := make(map[string]int, len(specs))

	for i, spec := range specs {
		field := func(name string) string {
			return fmt.Sprintf("chord.%s.%s", spec.Name, name)
		}

		if !chordNamePattern.MatchString(spec.Name) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("chord[%d].name", i),
				Message: fmt.Sprintf("invalid chord name %q", spec.Name),
				Code:    ErrChordNameInvalid,
			})
		}
		if prev, ok := names[spec.Name]; ok {
			errs = append(errs, ValidationError{
				Field:   field("name"),
				Message: fmt.Sprintf("duplicate chord name, first defined at index %d", prev),
				Code:    ErrChordDuplicateName,
			})
		} else {
			names[spec.Name] = i
		}

		switch {
		case len(spec.Keys) == 0:
			errs = append(errs, ValidationError{
				Field:   field("keys"),
				Message: "at least one key is required",
				Code:    ErrChordNoKeys,
			})
		case len(spec.Keys) > engine.MaxChordKeys:
			errs = append(errs, ValidationError{
				Field:   field("keys"),
				Message: fmt.Sprintf("%d keys, at most %d allowed", len(spec.Keys), engine.MaxChordKeys),
				Code:    ErrChordTooManyKeys,
			})
		}

		seen := make(map[uint16]bool, len(spec.Keys))
		for j, k := range spec.Keys {
			if seen[k] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("chord.%s.keys[%d]", spec.Name, j),
					Message: fmt.Sprintf("key %d listed twice", k),
					Code:    ErrChordDuplicateKey,
				})
			}
			seen[k] = true

			if engine.KeyID(k) >= engine.DefaultVirtualBase {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("chord.%s.keys[%d]", spec.Name, j),
					Message: fmt.Sprintf("key %d is in the virtual coordinate range", k),
					Code:    ErrChordVirtualKey,
				})
			}
		}

		if spec.Pending == 0 {
			errs = append(errs, ValidationError{
				Field:   field("pending"),
				Message: "pending must be at least 1 tick",
				Code:    ErrChordZeroPending,
			})
		}

		if spec.Release != ir.ReleaseFirst && spec.Release != ir.ReleaseLast {
			errs = append(errs, ValidationError{
				Field:   field("release"),
				Message: fmt.Sprintf("invalid release %q, must be %q or %q", spec.Release, ir.ReleaseFirst, ir.ReleaseLast),
				Code:    ErrChordBadRelease,
			})
		}

		if strings.TrimSpace(spec.Action) == "" {
			errs = append(errs, ValidationError{
				Field:   field("action"),
				Message: "action is required and must be non-empty",
				Code:    ErrChordEmptyAction,
			})
		}
	}

	return errs
}
