package testutil

import "sync"

// CycleClock numbers scan cycles for scripted runs.
//
// The chord engine has no wall clock: a tick is one scan cycle. CycleClock
// hands out the cycle sequence numbers recorded in traces and can be reset
// so the same scenario produces identical numbering on every run.
//
// All methods are safe for concurrent use.
type CycleClock struct {
	mu  sync.Mutex
	seq int64
}

// NewCycleClock creates a clock before the first cycle.
//
// The first call to Next() returns 1.
func NewCycleClock() *CycleClock {
	return &CycleClock{}
}

// Next starts a new cycle and returns its number.
func (c *CycleClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the number of the current cycle, 0 before the first.
func (c *CycleClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock. After Reset(), the next call to Next() returns 1.
func (c *CycleClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
