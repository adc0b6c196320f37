package engine

// ChordEvent describes an active chord at a lifecycle transition.
type ChordEvent struct {
	// Chord is the catalog index of the chord.
	Chord int
	// Coord is the virtual coordinate assigned to the chord.
	Coord Key
	// Age is the number of ticks since activation.
	Age uint16
}

// Hooks are optional callbacks fired synchronously from Push, Tick and
// PollAction. Nil fields are skipped. Callbacks must not call back into the
// engine.
type Hooks struct {
	// OnActivate fires when a chord matches.
	OnActivate func(ChordEvent)

	// OnDeliver fires when PollAction hands a chord to the layout engine.
	OnDeliver func(ev ChordEvent, alsoRelease bool)

	// OnRelease fires when a released chord is removed and its virtual
	// release emitted.
	OnRelease func(ChordEvent)

	// OnTimeout fires when a press leaves the queue as an ordinary
	// keystroke and the ignore window is armed.
	OnTimeout func(Queued)

	// OnEvict fires when Push overflows the queue.
	OnEvict func(Queued)
}
