// Package testutil provides deterministic helpers shared by tests
// across packages.
package testutil

import (
	"sync"
	"time"
)

// StepClock is a thread-safe clock for tests: it starts at a fixed
// instant and advances by a fixed step on every read, so timestamps in
// trace output are reproducible across runs.
//
// Unlike a frozen clock, the per-read step keeps successive reads
// distinct, which matters for TTL expiry and elapsed-time tests.
type StepClock struct {
	mu      sync.Mutex
	start   time.Time
	step    time.Duration
	current time.Time
}

// NewStepClock creates a clock starting at start, advancing by step on
// each call to Now.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{start: start, step: step, current: start}
}

// Now returns the current instant and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Advance jumps the clock forward by d without counting as a read.
func (c *StepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Reset rewinds the clock to its start instant for test reuse.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.start
}
