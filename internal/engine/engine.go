package engine

import (
	"fmt"
	"io"
	"log/slog"
)

// MinIgnoreWindowTicks is the shortest accepted ignore window. Anything
// shorter would re-attempt matching on input that just failed to form a
// chord.
const MinIgnoreWindowTicks = 6

// DefaultVirtualBase is the first virtual coordinate handed to active
// chords. It is far above any physical matrix column.
const DefaultVirtualBase KeyID = 0xF000

// OutputCapacity bounds the number of events a single Tick can return:
// the whole queue plus one virtual release per active chord.
const OutputCapacity = QueueCapacity + MaxActiveChords

// Delivery is a chord activation handed to the layout engine.
type Delivery[A any] struct {
	// Coord is the virtual key the layout engine should press for the chord.
	Coord Key

	// Action is the chord's payload, returned unmodified.
	Action A

	// Chord is the catalog index of the delivered chord.
	Chord int

	// Age is the number of ticks since activation, so the layout engine
	// can back-date tap-hold timing.
	Age uint16

	// AlsoRelease asks the layout engine to press and release in the same
	// cycle: every participant was already up before delivery.
	AlsoRelease bool
}

// options collects construction-time settings shared by every action type.
type options struct {
	logger      *slog.Logger
	hooks       Hooks
	virtualBase KeyID
	virtualRow  uint8
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger used for debug output.
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHooks installs lifecycle callbacks.
func WithHooks(h Hooks) Option {
	return func(o *options) {
		o.hooks = h
	}
}

// WithVirtualBase sets the first virtual coordinate. Active chords use
// base..base+MaxActiveChords-1.
//
// Default: DefaultVirtualBase.
func WithVirtualBase(base KeyID) Option {
	return func(o *options) {
		o.virtualBase = base
	}
}

// WithVirtualRow sets the row reported for virtual coordinates.
//
// Default: PhysicalRow.
func WithVirtualRow(row uint8) Option {
	return func(o *options) {
		o.virtualRow = row
	}
}

// Engine resolves chords from a stream of key events.
//
// The outer layout engine drives it once per scan cycle:
//
//	for _, ev := range scanned {
//	    if old, ok := eng.Push(ev); ok {
//	        layout.Enqueue(old)
//	    }
//	}
//	for _, q := range eng.Tick(layer) {
//	    layout.Enqueue(q)
//	}
//	if d, ok := eng.PollAction(); ok {
//	    layout.Execute(d)
//	}
//
// NOT thread-safe: an Engine must be owned by a single goroutine.
//
// INVARIANTS:
//   - queue holds at most QueueCapacity events
//   - active holds at most MaxActiveChords chords
//   - no two active chords share a virtual coordinate
type Engine[A any] struct {
	catalog *Catalog[A]
	queue   eventQueue
	active  activeTable
	coords  coordPool
	orphans orphanSet

	virtualRow uint8

	// Ignore window: while ignoreTicks > 0 the queue drains verbatim.
	ignoreTicks  uint16
	ignoreWindow uint16

	// Idle fast path. When the matcher decides to wait, idleTicks records
	// how many ticks the decision cannot change. It is honoured only while
	// the queue is unchanged (dirty == false) and the layer stays the same.
	idleTicks uint16
	dirty     bool
	prevLayer uint16

	outBuf [OutputCapacity]Queued
	out    []Queued

	logger *slog.Logger
	hooks  Hooks
}

// New creates an Engine over the given catalog.
//
// ignoreWindowTicks is the number of ticks during which input bypasses
// matching after a press fails to form a chord. Values below
// MinIgnoreWindowTicks are rejected with ErrIgnoreWindowTooShort.
func New[A any](catalog *Catalog[A], ignoreWindowTicks uint16, opts ...Option) (*Engine[A], error) {
	if catalog == nil {
		return nil, fmt.Errorf("new engine: nil catalog")
	}
	if ignoreWindowTicks < MinIgnoreWindowTicks {
		return nil, fmt.Errorf("new engine: %w: %d < %d",
			ErrIgnoreWindowTooShort, ignoreWindowTicks, MinIgnoreWindowTicks)
	}

	o := options{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		virtualBase: DefaultVirtualBase,
		virtualRow:  PhysicalRow,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := checkVirtualRange(catalog, o.virtualBase, o.virtualRow); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}

	e := &Engine[A]{
		catalog:      catalog,
		coords:       coordPool{base: o.virtualBase},
		virtualRow:   o.virtualRow,
		ignoreWindow: ignoreWindowTicks,
		dirty:        true,
		logger:       o.logger,
		hooks:        o.hooks,
	}
	e.out = e.outBuf[:0]

	return e, nil
}

// checkVirtualRange rejects a coordinate range base..base+MaxActiveChords-1
// that wraps around, or that overlaps a chord key while virtual
// coordinates share the physical row.
func checkVirtualRange[A any](catalog *Catalog[A], base KeyID, row uint8) error {
	last := uint32(base) + MaxActiveChords - 1
	if last > uint32(^KeyID(0)) {
		return fmt.Errorf("%w: base %#x leaves no room for %d coordinates",
			ErrVirtualRange, base, MaxActiveChords)
	}
	if row != PhysicalRow {
		return nil
	}
	for i := 0; i < catalog.Len(); i++ {
		for _, k := range catalog.Definition(i).Keys {
			if uint32(k) >= uint32(base) && uint32(k) <= last {
				return fmt.Errorf("%w: chord %d key %#x is a virtual coordinate",
					ErrVirtualRange, i, k)
			}
		}
	}
	return nil
}

// Push enqueues a raw key event.
//
// When the queue is full the oldest entry is evicted and returned with
// ok == true; the caller must forward it to the layout engine.
func (e *Engine[A]) Push(ev Event) (evicted Queued, ok bool) {
	e.dirty = true
	evicted, ok = e.queue.push(Queued{Event: ev})
	if ok {
		if evicted.Event.IsRelease() && evicted.Event.Key.Physical() {
			// The caller forwards it, so the key is no longer owed a
			// swallowed release.
			e.orphans.remove(evicted.Event.Key.ID)
		}
		e.logger.Debug("chord queue overflow",
			"evicted", evicted.Event.String(),
			"age", evicted.Since,
		)
		if e.hooks.OnEvict != nil {
			e.hooks.OnEvict(evicted)
		}
	}
	return evicted, ok
}

// Tick advances the engine by one scan cycle.
//
// The returned events are not part of any chord and must be merged into
// the layout engine's ordinary queue in order. The slice is owned by the
// engine and is only valid until the next call to Tick.
func (e *Engine[A]) Tick(activeLayer uint16) []Queued {
	e.out = e.outBuf[:0]

	e.queue.ageAll()
	e.active.ageAll()

	if e.ignoreTicks > 0 {
		e.drainIgnored()
		e.ignoreTicks--
	} else {
		e.resolve(activeLayer)
	}

	e.clearReleased()

	return e.out
}

// PollAction returns at most one pending chord activation.
//
// Chords are delivered in activation order. An Unread chord becomes
// Releasable; an UnreadReleased chord becomes Released and is delivered
// with AlsoRelease set, meaning the layout engine should execute it as an
// instantaneous tap.
func (e *Engine[A]) PollAction() (Delivery[A], bool) {
	for i := 0; i < e.active.len(); i++ {
		a := e.active.at(i)
		next, alsoRelease, ok := a.status.onDelivery()
		if !ok {
			continue
		}
		a.status = next

		d := Delivery[A]{
			Coord:       e.virtualKey(a.coord),
			Action:      e.catalog.Definition(a.chord).Action,
			Chord:       a.chord,
			Age:         a.age,
			AlsoRelease: alsoRelease,
		}

		e.logger.Debug("chord delivered",
			"chord", a.chord,
			"coord", d.Coord.String(),
			"age", a.age,
			"also_release", alsoRelease,
		)
		if e.hooks.OnDeliver != nil {
			e.hooks.OnDeliver(ChordEvent{Chord: a.chord, Coord: d.Coord, Age: a.age}, alsoRelease)
		}

		return d, true
	}
	return Delivery[A]{}, false
}

// QueueLen returns the number of unresolved events.
func (e *Engine[A]) QueueLen() int {
	return e.queue.len()
}

// IgnoreTicks returns the remaining ignore window.
func (e *Engine[A]) IgnoreTicks() uint16 {
	return e.ignoreTicks
}

// Catalog returns the catalog the engine was built with.
func (e *Engine[A]) Catalog() *Catalog[A] {
	return e.catalog
}

// ActiveChords returns a snapshot of the active chord table in activation
// order. It allocates and is meant for tooling, not the scan loop.
func (e *Engine[A]) ActiveChords() []ChordState {
	out := make([]ChordState, 0, e.active.len())
	for i := 0; i < e.active.len(); i++ {
		a := e.active.at(i)
		out = append(out, ChordState{
			Coord:     e.virtualKey(a.coord),
			Chord:     a.chord,
			Status:    a.status,
			Age:       a.age,
			Remaining: a.remaining.slice(),
			Held:      a.held.slice(),
		})
	}
	return out
}

func (e *Engine[A]) virtualKey(coord KeyID) Key {
	return Key{Row: e.virtualRow, ID: coord}
}

// emit appends an event to this tick's output.
func (e *Engine[A]) emit(q Queued) {
	invariant(len(e.out) < cap(e.out), "tick output overflow")
	e.out = append(e.out, q)
}

// drainIgnored empties the queue verbatim while the ignore window is armed.
// Releases of keys held by an active chord are still consumed so the chord
// can finish; their presses never reached the layout engine either.
func (e *Engine[A]) drainIgnored() {
	e.queue.drain(func(q Queued) {
		if q.Event.IsRelease() && q.Event.Key.Physical() && e.swallowRelease(q.Event.Key.ID) {
			return
		}
		e.emit(q)
	})
	e.dirty = true
}

// swallowRelease consumes a physical release that belongs to a chord,
// active or already removed. Returns false when the release must be
// forwarded.
func (e *Engine[A]) swallowRelease(key KeyID) bool {
	return e.active.noteRelease(key) || e.orphans.remove(key)
}

// clearReleased removes Released chords and emits their virtual releases.
func (e *Engine[A]) clearReleased() {
	e.active.removeReleased(func(a activeChord) {
		e.coords.free(a.coord)
		for i := 0; i < a.held.len(); i++ {
			if !e.orphans.add(a.held.keys[i]) {
				e.logger.Debug("orphaned key not tracked", "key", a.held.keys[i])
			}
		}
		key := e.virtualKey(a.coord)
		e.emit(Queued{Event: Event{Kind: KindRelease, Key: key}})

		e.logger.Debug("chord released", "chord", a.chord, "coord", key.String(), "age", a.age)
		if e.hooks.OnRelease != nil {
			e.hooks.OnRelease(ChordEvent{Chord: a.chord, Coord: key, Age: a.age})
		}
	})
}
