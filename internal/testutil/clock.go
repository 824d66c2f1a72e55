package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant returned by a new Clock: 2024-03-01 12:00:00 UTC.
var Epoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// Clock is a deterministic wall clock for tests that need distinct,
// reproducible process start times.
//
// Each call to Next advances the clock by a fixed step, so tests that open a
// store once per simulated invocation get monotonically increasing start
// times without sleeping.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock creates a clock starting at Epoch that advances one minute per
// call to Next.
func NewClock() *Clock {
	return NewClockAt(Epoch, time.Minute)
}

// NewClockAt creates a clock starting at start that advances by step.
func NewClockAt(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start, step: step}
}

// Next returns the current instant and advances the clock.
//
// The first call returns the start time.
func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Current returns the instant the next call to Next will return.
func (c *Clock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset moves the clock back to start.
func (c *Clock) Reset(start time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = start
}
