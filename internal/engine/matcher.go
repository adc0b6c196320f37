package engine

// match is the classification of one candidate chord against the run of
// leading presses.
type match uint8

const (
	// matchNever: the chord cannot complete from the current run.
	matchNever match = iota
	// matchViable: not complete yet, but more presses could complete it.
	matchViable
	// matchSatisfied: every participant was pressed within the window.
	matchSatisfied
)

// resolve runs the matching steps of a tick: forward virtual-row events,
// consume leading releases, then try to match the leading presses.
func (e *Engine[A]) resolve(layer uint16) {
	if !e.dirty && layer == e.prevLayer && e.idleTicks > 0 {
		// Nothing pushed, same layer and no window can elapse yet: the
		// previous decision to wait still holds.
		e.idleTicks--
		return
	}
	e.prevLayer = layer
	e.dirty = false
	e.idleTicks = 0

	e.forwardVirtual()
	e.consumeReleases()
	e.matchPresses(layer)
}

// forwardVirtual moves every event on a non-physical row to the output.
// Synthetic keys injected by other subsystems never take part in chords.
func (e *Engine[A]) forwardVirtual() {
	e.queue.retain(func(q Queued) bool {
		if q.Event.Key.Physical() {
			return true
		}
		e.emit(q)
		return false
	})
}

// consumeReleases handles the releases at the head of the queue.
//
// A release of a key held by an active chord advances that chord towards
// release and is dropped: its press never reached the layout engine. The
// same holds for participants left down after their chord ended. Any other
// release is forwarded unchanged.
func (e *Engine[A]) consumeReleases() {
	for e.queue.len() > 0 && e.queue.at(0).Event.IsRelease() {
		q := e.queue.popFront()
		if e.swallowRelease(q.Event.Key.ID) {
			continue
		}
		e.emit(q)
	}
}

// matchPresses tries to resolve the contiguous run of presses at the head
// of the queue.
//
// Candidates are the chords containing the oldest pressed key that are not
// disabled on layer. While any candidate is still viable the matcher waits,
// so that a longer chord gets its chance before a shorter one fires. Once
// none is viable, the satisfied candidate with the most keys activates
// (catalog order breaks ties). With nothing satisfied, the oldest press
// leaves as an ordinary keystroke and the ignore window is armed.
func (e *Engine[A]) matchPresses(layer uint16) {
	run := 0
	for run < e.queue.len() && e.queue.at(run).Event.IsPress() {
		run++
	}
	if run == 0 {
		return
	}

	// A queued release behind the run means the run can never grow: the
	// release is only consumed after the presses ahead of it leave.
	terminated := run < e.queue.len()

	first := e.queue.at(0)
	best := -1
	bestKeys := 0
	maxPending := -1

	for _, ci := range e.catalog.CandidatesFor(first.Event.Key.ID) {
		def := e.catalog.Definition(ci)
		if def.disabledOn(layer) {
			continue
		}

		switch e.classify(def, run, terminated) {
		case matchSatisfied:
			if e.active.full() {
				continue
			}
			if best < 0 || len(def.Keys) > bestKeys {
				best = ci
				bestKeys = len(def.Keys)
			}
		case matchViable:
			if int(def.PendingDuration) > maxPending {
				maxPending = int(def.PendingDuration)
			}
		}
	}

	if maxPending >= 0 {
		// Viable means first.Since <= PendingDuration, so this never
		// underflows. The decision can only change once the longest
		// window has elapsed.
		e.idleTicks = uint16(maxPending - int(first.Since))
		return
	}

	if best >= 0 {
		e.activate(best, run)
		return
	}

	e.timeout()
}

// classify matches one definition against the first run presses.
func (e *Engine[A]) classify(def *Definition[A], run int, terminated bool) match {
	firstAge := e.queue.at(0).Since
	newest := firstAge
	subset := true
	var seen keySet

	for i := 0; i < run; i++ {
		q := e.queue.at(i)
		k := q.Event.Key.ID
		if !def.contains(k) {
			subset = false
			continue
		}
		if seen.contains(k) {
			continue
		}
		seen.add(k)
		if q.Since < newest {
			newest = q.Since
		}
	}

	if seen.len() == len(def.Keys) {
		if firstAge-newest <= def.PendingDuration {
			return matchSatisfied
		}
		// Complete but too slow; it can only get older.
		return matchNever
	}

	if subset && !terminated && firstAge <= def.PendingDuration {
		return matchViable
	}
	return matchNever
}

// activate turns catalog entry ci into an active chord, consuming the
// participants' presses from the run.
func (e *Engine[A]) activate(ci int, run int) {
	def := e.catalog.Definition(ci)

	coord, ok := e.coords.alloc()
	invariant(ok, "no free virtual coordinate with room in the active table")
	if !ok {
		e.timeout()
		return
	}

	var taken keySet
	for i := 0; i < run && taken.len() < len(def.Keys); {
		k := e.queue.at(i).Event.Key.ID
		if def.contains(k) && !taken.contains(k) {
			taken.add(k)
			e.queue.removeAt(i)
			run--
			continue
		}
		i++
	}

	ac := activeChord{
		coord:   coord,
		chord:   ci,
		held:    newKeySet(def.Keys),
		release: def.Release,
		status:  Unread,
	}
	if def.Release == OnLastRelease {
		ac.remaining = newKeySet(def.Keys)
	}
	e.active.add(ac)

	// Presses left behind the chord get a fresh attempt next tick.
	e.dirty = true

	key := e.virtualKey(coord)
	e.logger.Debug("chord activated",
		"chord", ci,
		"coord", key.String(),
		"keys", len(def.Keys),
		"release", def.Release.String(),
	)
	if e.hooks.OnActivate != nil {
		e.hooks.OnActivate(ChordEvent{Chord: ci, Coord: key})
	}
}

// timeout drains the oldest press as an ordinary keystroke and arms the
// ignore window.
func (e *Engine[A]) timeout() {
	q := e.queue.popFront()
	e.emit(q)
	e.ignoreTicks = e.ignoreWindow
	e.dirty = true

	e.logger.Debug("press left chord queue",
		"event", q.Event.String(),
		"age", q.Since,
		"ignore_ticks", e.ignoreTicks,
	)
	if e.hooks.OnTimeout != nil {
		e.hooks.OnTimeout(q)
	}
}
