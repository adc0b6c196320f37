package engine

// QueueCapacity is the number of events the chord queue can hold.
// It matches the number of human digits on both hands: more simultaneous
// unresolved contacts than that cannot happen on a real keyboard.
const QueueCapacity = 10

// eventQueue is a fixed-capacity ring buffer of events that have not yet
// been resolved into a chord or an ordinary keystroke.
//
// The queue never blocks and never errors. When it is full, push evicts
// the oldest entry and hands it back to the caller, which is responsible
// for forwarding it to the layout engine.
//
// NOT thread-safe: owned by a single Engine.
type eventQueue struct {
	buf  [QueueCapacity]Queued
	head int
	n    int
}

// push appends an item at the tail.
// Returns the evicted head and true when the queue was full.
func (q *eventQueue) push(item Queued) (Queued, bool) {
	var evicted Queued
	full := q.n == QueueCapacity
	if full {
		evicted = q.popFront()
	}
	q.buf[(q.head+q.n)%QueueCapacity] = item
	q.n++
	return evicted, full
}

// len returns the number of queued entries.
func (q *eventQueue) len() int {
	return q.n
}

// at returns a pointer to the i-th entry counted from the head.
// The caller must ensure 0 <= i < len().
func (q *eventQueue) at(i int) *Queued {
	return &q.buf[(q.head+i)%QueueCapacity]
}

// popFront removes and returns the head. The queue must not be empty.
func (q *eventQueue) popFront() Queued {
	invariant(q.n > 0, "popFront on empty queue")
	item := q.buf[q.head]
	q.buf[q.head] = Queued{}
	q.head = (q.head + 1) % QueueCapacity
	q.n--
	return item
}

// ageAll increments the age of every entry by one tick.
func (q *eventQueue) ageAll() {
	for i := 0; i < q.n; i++ {
		q.at(i).tick()
	}
}

// retain keeps the entries for which keep returns true, preserving their
// relative order.
func (q *eventQueue) retain(keep func(Queued) bool) {
	w := 0
	for r := 0; r < q.n; r++ {
		item := *q.at(r)
		if keep(item) {
			*q.at(w) = item
			w++
		}
	}
	for i := w; i < q.n; i++ {
		*q.at(i) = Queued{}
	}
	q.n = w
}

// removeAt removes the i-th entry counted from the head.
func (q *eventQueue) removeAt(i int) Queued {
	invariant(i >= 0 && i < q.n, "removeAt out of range")
	item := *q.at(i)
	for j := i; j < q.n-1; j++ {
		*q.at(j) = *q.at(j + 1)
	}
	*q.at(q.n - 1) = Queued{}
	q.n--
	return item
}

// drain removes every entry, calling fn on each in FIFO order.
func (q *eventQueue) drain(fn func(Queued)) {
	for q.n > 0 {
		fn(q.popFront())
	}
}
