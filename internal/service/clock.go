package service

import (
	"sync"
	"time"
)

// Clock supplies mutation timestamps.
type Clock interface {
	Now() time.Time
}

// MonotonicClock never returns the same instant twice and never goes
// backwards, even if the wall clock does. Readings are UTC with microsecond
// precision to match what PostgreSQL stores.
type MonotonicClock struct {
	mu   sync.Mutex
	last time.Time
	wall func() time.Time
}

// NewMonotonicClock returns a clock driven by time.Now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{wall: time.Now}
}

func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.wall().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
