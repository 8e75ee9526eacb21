package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonotonic_StrictlyIncreasingWithFrozenSource(t *testing.T) {
	frozen := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)
	c := NewMonotonicFrom(func() time.Time { return frozen })

	first := c.Now()
	second := c.Now()
	third := c.Now()

	assert.Equal(t, frozen.Truncate(time.Microsecond), first)
	assert.True(t, second.After(first))
	assert.True(t, third.After(second))
	assert.Equal(t, time.Microsecond, third.Sub(second))
}

func TestMonotonic_ConcurrentCallsAreUnique(t *testing.T) {
	c := NewMonotonic()
	const n = 200

	var mu sync.Mutex
	seen := make(map[time.Time]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts := c.Now()
			mu.Lock()
			seen[ts] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}
