package engine

import "fmt"

// MaxActiveChords bounds the number of chords that can be matched but not
// yet fully resolved at the same time.
const MaxActiveChords = 10

// Status is the lifecycle state of an active chord.
//
// Transitions:
//
//	Unread         -> Releasable      delivered to the layout engine
//	Unread         -> UnreadReleased  fully released before delivery
//	UnreadReleased -> Released        delivered as an immediate tap
//	Releasable     -> Released        fully released after delivery
//
// Released is terminal: the chord is removed on the next tick and its
// virtual release is emitted.
type Status uint8

const (
	// Unread: matched, not yet delivered.
	Unread Status = iota
	// UnreadReleased: all participants released before delivery.
	UnreadReleased
	// Releasable: delivered; may be released at will.
	Releasable
	// Released: remove on the next tick.
	Released
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Unread:
		return "unread"
	case UnreadReleased:
		return "unread-released"
	case Releasable:
		return "releasable"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// onFullRelease returns the state after every required participant is up.
func (s Status) onFullRelease() Status {
	switch s {
	case Unread, UnreadReleased:
		return UnreadReleased
	default:
		return Released
	}
}

// onDelivery returns the state after the chord is handed to the layout
// engine, and whether the delivery should be a tap (press and release).
// ok is false for states that cannot be delivered.
func (s Status) onDelivery() (next Status, alsoRelease, ok bool) {
	switch s {
	case Unread:
		return Releasable, false, true
	case UnreadReleased:
		return Released, true, true
	default:
		return s, false, false
	}
}

// keySet is a fixed-capacity set of key ids.
type keySet struct {
	keys [MaxChordKeys]KeyID
	n    uint8
}

func newKeySet(keys []KeyID) keySet {
	var s keySet
	for _, k := range keys {
		s.keys[s.n] = k
		s.n++
	}
	return s
}

func (s *keySet) len() int { return int(s.n) }

// add inserts k. The set must not be full and must not contain k.
func (s *keySet) add(k KeyID) {
	invariant(int(s.n) < MaxChordKeys, "key set overflow")
	s.keys[s.n] = k
	s.n++
}

func (s *keySet) contains(k KeyID) bool {
	for i := uint8(0); i < s.n; i++ {
		if s.keys[i] == k {
			return true
		}
	}
	return false
}

// remove deletes k and reports whether it was present.
func (s *keySet) remove(k KeyID) bool {
	for i := uint8(0); i < s.n; i++ {
		if s.keys[i] == k {
			s.keys[i] = s.keys[s.n-1]
			s.n--
			return true
		}
	}
	return false
}

func (s *keySet) slice() []KeyID {
	out := make([]KeyID, s.n)
	copy(out, s.keys[:s.n])
	return out
}

// maxOrphans bounds the participants tracked after their chord ended.
const maxOrphans = MaxActiveChords * MaxChordKeys

// orphanSet holds participants still physically down after their chord was
// removed, which happens when an OnFirstRelease chord ends on its first
// release. Their presses never reached the layout engine, so their
// releases must not either.
type orphanSet struct {
	keys [maxOrphans]KeyID
	n    int
}

// add inserts k. Returns false when the set is full; the key's release is
// then forwarded like any other.
func (s *orphanSet) add(k KeyID) bool {
	for i := 0; i < s.n; i++ {
		if s.keys[i] == k {
			return true
		}
	}
	if s.n == maxOrphans {
		return false
	}
	s.keys[s.n] = k
	s.n++
	return true
}

// remove deletes k and reports whether it was present.
func (s *orphanSet) remove(k KeyID) bool {
	for i := 0; i < s.n; i++ {
		if s.keys[i] == k {
			s.n--
			s.keys[i] = s.keys[s.n]
			return true
		}
	}
	return false
}

func (s *orphanSet) len() int { return s.n }

// activeChord is the runtime record of a matched chord.
type activeChord struct {
	// coord is the virtual coordinate the layout engine uses to track the
	// chord like an ordinary key.
	coord KeyID

	// chord is the catalog index; the action is read from there.
	chord int

	// remaining are the keys left to release. Always empty for
	// OnFirstRelease chords.
	remaining keySet

	// held are the participants still physically down. A release only
	// belongs to the chord if its key is held, so a participant that is
	// released, pressed again as an ordinary key and released once more
	// is not swallowed.
	held keySet

	release ReleaseBehaviour
	status  Status
	age     uint16
}

func (a *activeChord) tick() {
	if a.age < ^uint16(0) {
		a.age++
	}
}

// noteRelease records that key went up. Returns false when the key is not
// held by this chord.
func (a *activeChord) noteRelease(key KeyID) bool {
	if !a.held.remove(key) {
		return false
	}
	a.remaining.remove(key)
	if a.release == OnFirstRelease || a.remaining.len() == 0 {
		a.status = a.status.onFullRelease()
	}
	return true
}

// ChordState is a read-only snapshot of an active chord, for tooling.
type ChordState struct {
	Coord     Key
	Chord     int
	Status    Status
	Age       uint16
	Remaining []KeyID
	Held      []KeyID
}

// activeTable holds active chords in activation order.
type activeTable struct {
	items [MaxActiveChords]activeChord
	n     int
}

func (t *activeTable) len() int { return t.n }

func (t *activeTable) full() bool { return t.n == MaxActiveChords }

func (t *activeTable) at(i int) *activeChord { return &t.items[i] }

func (t *activeTable) add(a activeChord) {
	invariant(!t.full(), "active chord table overflow")
	for i := 0; i < t.n; i++ {
		invariant(t.items[i].coord != a.coord, "virtual coordinate reused while active")
	}
	t.items[t.n] = a
	t.n++
}

func (t *activeTable) ageAll() {
	for i := 0; i < t.n; i++ {
		t.items[i].tick()
	}
}

// noteRelease applies a physical release to the chord holding key.
// Returns false when no active chord holds it.
func (t *activeTable) noteRelease(key KeyID) bool {
	for i := 0; i < t.n; i++ {
		if t.items[i].noteRelease(key) {
			return true
		}
	}
	return false
}

// removeReleased drops every Released chord, calling fn for each in table
// order.
func (t *activeTable) removeReleased(fn func(activeChord)) {
	w := 0
	for r := 0; r < t.n; r++ {
		if t.items[r].status == Released {
			fn(t.items[r])
			continue
		}
		t.items[w] = t.items[r]
		w++
	}
	for i := w; i < t.n; i++ {
		t.items[i] = activeChord{}
	}
	t.n = w
}

// coordPool hands out virtual coordinates base..base+MaxActiveChords-1.
// A coordinate is never handed out twice while still in use.
type coordPool struct {
	base KeyID
	used uint16
}

// alloc returns the lowest free coordinate.
func (p *coordPool) alloc() (KeyID, bool) {
	for i := 0; i < MaxActiveChords; i++ {
		bit := uint16(1) << i
		if p.used&bit == 0 {
			p.used |= bit
			return p.base + KeyID(i), true
		}
	}
	return 0, false
}

// free returns a coordinate to the pool.
func (p *coordPool) free(c KeyID) {
	i := int(c - p.base)
	invariant(i >= 0 && i < MaxActiveChords, "coordinate outside pool")
	invariant(p.used&(uint16(1)<<i) != 0, "freeing unused coordinate")
	p.used &^= uint16(1) << i
}

// inUse returns the number of allocated coordinates.
func (p *coordPool) inUse() int {
	n := 0
	for u := p.used; u != 0; u &= u - 1 {
		n++
	}
	return n
}
