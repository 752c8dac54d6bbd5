package waiter

import (
	"sync"
	"time"
)

// FakeClock is a manual clock that also implements backoff.Timer.
// Starting a timer advances the clock by the requested duration and fires
// immediately, so waits complete without sleeping.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
	ch  chan time.Time

	// Sleeps records every duration the waiter asked to sleep.
	Sleeps []time.Duration
}

// NewFakeClock returns a FakeClock starting at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t, ch: make(chan time.Time, 1)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Start(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.Sleeps = append(c.Sleeps, d)
	now := c.now
	c.mu.Unlock()
	select {
	case c.ch <- now:
	default:
	}
}

func (c *FakeClock) Stop() {}

func (c *FakeClock) C() <-chan time.Time { return c.ch }

// Options returns wait options bound to this clock.
func (c *FakeClock) Options(timeout, interval time.Duration) Options {
	return Options{Timeout: timeout, Interval: interval, MaxInterval: interval * 4, Multiplier: 2, Clock: c, Timer: c}
}
