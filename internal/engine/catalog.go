package engine

import "fmt"

// MaxChordKeys bounds the number of participants in a chord.
const MaxChordKeys = 10

// ReleaseBehaviour decides when an activated chord counts as released.
type ReleaseBehaviour uint8

const (
	// OnLastRelease releases the chord once every participant is up.
	OnLastRelease ReleaseBehaviour = iota
	// OnFirstRelease releases the chord as soon as any participant is up.
	OnFirstRelease
)

// String implements fmt.Stringer.
func (r ReleaseBehaviour) String() string {
	switch r {
	case OnLastRelease:
		return "last"
	case OnFirstRelease:
		return "first"
	default:
		return fmt.Sprintf("ReleaseBehaviour(%d)", uint8(r))
	}
}

// Definition describes one chord. Definitions are supplied by the caller
// and copied into the Catalog; later changes to the caller's slices have
// no effect.
type Definition[A any] struct {
	// Action is the opaque payload handed back on delivery.
	Action A

	// Keys is the set of physical keys that must be pressed together.
	// Order does not matter; keys must be distinct.
	Keys []KeyID

	// PendingDuration is the number of ticks after the first participant
	// press within which every participant must be pressed.
	PendingDuration uint16

	// DisabledLayers lists the layers on which this chord never activates.
	DisabledLayers []uint16

	// Release selects when the activated chord counts as released.
	Release ReleaseBehaviour
}

// contains reports whether key is a participant.
func (d *Definition[A]) contains(key KeyID) bool {
	for _, k := range d.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// disabledOn reports whether the chord is disabled on layer.
func (d *Definition[A]) disabledOn(layer uint16) bool {
	for _, l := range d.DisabledLayers {
		if l == layer {
			return true
		}
	}
	return false
}

// Catalog is the read-only table of chord definitions plus a reverse index
// from key to the chords it participates in.
//
// Definitions live in an arena owned by the catalog and are referenced by
// index everywhere else, so active chords never hold pointers into caller
// memory.
type Catalog[A any] struct {
	defs  []Definition[A]
	byKey map[KeyID][]int
}

// NewCatalog validates and indexes the given definitions.
// The definition order is preserved and used as the tie-break between
// equally specific chords.
func NewCatalog[A any](defs []Definition[A]) (*Catalog[A], error) {
	c := &Catalog[A]{
		defs:  make([]Definition[A], 0, len(defs)),
		byKey: make(map[KeyID][]int),
	}

	for i, d := range defs {
		if err := validateDefinition(i, d); err != nil {
			return nil, err
		}

		// Deep copy so the caller keeps ownership of its slices
		cp := Definition[A]{
			Action:          d.Action,
			Keys:            append([]KeyID(nil), d.Keys...),
			PendingDuration: d.PendingDuration,
			DisabledLayers:  append([]uint16(nil), d.DisabledLayers...),
			Release:         d.Release,
		}
		c.defs = append(c.defs, cp)

		for _, k := range cp.Keys {
			c.byKey[k] = append(c.byKey[k], i)
		}
	}

	return c, nil
}

func validateDefinition[A any](i int, d Definition[A]) error {
	if len(d.Keys) == 0 {
		return &CatalogError{Code: ErrCodeNoKeys, Index: i, Message: "chord has no keys"}
	}
	if len(d.Keys) > MaxChordKeys {
		return &CatalogError{
			Code:    ErrCodeTooManyKeys,
			Index:   i,
			Message: fmt.Sprintf("chord has %d keys, limit is %d", len(d.Keys), MaxChordKeys),
		}
	}
	for a := 0; a < len(d.Keys); a++ {
		for b := a + 1; b < len(d.Keys); b++ {
			if d.Keys[a] == d.Keys[b] {
				return &CatalogError{
					Code:    ErrCodeDuplicateKey,
					Index:   i,
					Message: fmt.Sprintf("key %d listed twice", d.Keys[a]),
				}
			}
		}
	}
	if d.PendingDuration == 0 {
		return &CatalogError{Code: ErrCodeZeroPending, Index: i, Message: "pending duration must be at least one tick"}
	}
	if d.Release != OnFirstRelease && d.Release != OnLastRelease {
		return &CatalogError{Code: ErrCodeBadRelease, Index: i, Message: d.Release.String()}
	}
	return nil
}

// CandidatesFor returns, in catalog order, the indices of every chord that
// lists key as a participant. The returned slice must not be modified.
func (c *Catalog[A]) CandidatesFor(key KeyID) []int {
	return c.byKey[key]
}

// Definition returns the definition at index i.
func (c *Catalog[A]) Definition(i int) *Definition[A] {
	return &c.defs[i]
}

// Len returns the number of chords in the catalog.
func (c *Catalog[A]) Len() int {
	return len(c.defs)
}
