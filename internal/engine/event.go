package engine

import "fmt"

// KeyID identifies a key inside a row.
type KeyID uint16

// PhysicalRow is the row of keys produced by matrix scanning.
// Only keys on this row can participate in chords.
const PhysicalRow uint8 = 0

// Key is a coordinate in the layout engine's key space.
type Key struct {
	Row uint8
	ID  KeyID
}

// Physical reports whether the key comes from the scanned matrix.
func (k Key) Physical() bool {
	return k.Row == PhysicalRow
}

// String renders the key as "row/id".
func (k Key) String() string {
	return fmt.Sprintf("%d/%d", k.Row, k.ID)
}

// EventKind distinguishes presses from releases.
type EventKind uint8

const (
	// KindPress is a key going down.
	KindPress EventKind = iota + 1
	// KindRelease is a key going up.
	KindRelease
)

// String implements fmt.Stringer.
func (k EventKind) String() string {
	switch k {
	case KindPress:
		return "press"
	case KindRelease:
		return "release"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is a single key transition.
type Event struct {
	Kind EventKind
	Key  Key
}

// Press builds a press event for a physical key.
func Press(id KeyID) Event {
	return Event{Kind: KindPress, Key: Key{Row: PhysicalRow, ID: id}}
}

// Release builds a release event for a physical key.
func Release(id KeyID) Event {
	return Event{Kind: KindRelease, Key: Key{Row: PhysicalRow, ID: id}}
}

// IsPress reports whether the event is a press.
func (e Event) IsPress() bool { return e.Kind == KindPress }

// IsRelease reports whether the event is a release.
func (e Event) IsRelease() bool { return e.Kind == KindRelease }

// String renders the event as "press 0/12".
func (e Event) String() string {
	return e.Kind.String() + " " + e.Key.String()
}

// Queued is an event together with the number of ticks it has spent in the
// chord queue.
type Queued struct {
	Event Event
	Since uint16
}

// tick ages the entry by one tick, saturating at the maximum.
func (q *Queued) tick() {
	if q.Since < ^uint16(0) {
		q.Since++
	}
}
