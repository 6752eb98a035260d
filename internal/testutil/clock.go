// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant a DeterministicClock reports.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock provides a thread-safe, strictly increasing wall clock
// for tests.
//
// Every call to Now advances the clock by one step, so records created one
// after another get distinct, ordered timestamps regardless of how fast the
// test runs. DeterministicClock can be reset for test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	step  time.Duration
	ticks int64
}

// NewDeterministicClock creates a clock stepping by one second.
//
// The first call to Now() returns Epoch plus one second.
func NewDeterministicClock() *DeterministicClock {
	return NewSteppingClock(time.Second)
}

// NewSteppingClock creates a clock stepping by step.
func NewSteppingClock(step time.Duration) *DeterministicClock {
	return &DeterministicClock{step: step}
}

// Now advances the clock one step and returns the new time.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return Epoch.Add(time.Duration(c.ticks) * c.step)
}

// Current returns the current time without advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Epoch.Add(time.Duration(c.ticks) * c.step)
}

// Ticks returns how many times Now has been called since the last reset.
func (c *DeterministicClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock to Epoch.
//
// Used for test reuse. After Reset(), the next call to Now() returns
// Epoch plus one step.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
