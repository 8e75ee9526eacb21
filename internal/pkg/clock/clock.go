package clock

import (
	"sync"
	"time"
)

// Clock hands out timestamps for persisted records.
type Clock interface {
	Now() time.Time
}

// Monotonic returns UTC timestamps truncated to microseconds that strictly
// increase across calls within the process. Microseconds is the finest
// precision every supported store keeps.
type Monotonic struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewMonotonic() *Monotonic {
	return &Monotonic{now: time.Now}
}

// NewMonotonicFrom uses source as the wall clock. Used by tests to freeze time.
func NewMonotonicFrom(source func() time.Time) *Monotonic {
	return &Monotonic{now: source}
}

func (c *Monotonic) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
