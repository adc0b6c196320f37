// Package engine implements the keychord chord-resolution engine.
//
// The engine sits between matrix scanning and the layout engine of a
// keyboard firmware. It watches press/release events and decides, within a
// bounded tick window, whether a group of simultaneously pressed keys forms
// a chord that should be emitted as one synthetic action instead of as
// individual keystrokes.
//
// ARCHITECTURE:
//
// Single-Owner Tick Loop:
// The engine only advances inside Tick and PollAction, which the outer
// layout engine calls once per scan cycle. There are no goroutines, no
// blocking calls and no allocations on the hot path. Every container has a
// fixed capacity sized to the number of simultaneous human contacts (10),
// which keeps worst-case latency bounded and deterministic.
//
// Tick Processing Flow:
//  1. Events are pushed into a bounded queue (oldest evicted on overflow)
//  2. Tick ages queued events and active chords
//  3. While the ignore window is armed, the queue drains verbatim
//  4. Otherwise virtual-row events are forwarded, leading releases are
//     matched against active chords, and the leading run of presses is
//     matched against the catalog
//  5. Fully released chords are removed and their virtual release emitted
//
// PollAction hands at most one newly activated chord per cycle to the
// layout engine, in activation order.
//
// Determinism:
// Catalog order is preserved after construction and is the tie-break
// between equally specific chords. Matching never depends on wall time,
// only on tick counts.
package engine
