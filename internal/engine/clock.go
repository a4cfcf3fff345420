package engine

import "sync/atomic"

// Clock is a monotonic logical clock.
//
// The manager stamps every instance access with Next() and evicts the
// instance with the smallest stamp first. Ticks are never compared with wall
// time, so eviction order is reproducible in tests.
//
// Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific tick.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next tick and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current tick without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
