package service

import (
	"sync"
	"time"
)

// Clock supplies record timestamps. Values must never decrease.
type Clock interface {
	Now() uint64
}

// SystemClock returns Unix nanoseconds, clamped so that a wall clock
// stepping backwards never yields a smaller value than a previous call.
type SystemClock struct {
	mutex sync.Mutex
	last  uint64
}

// NewSystemClock creates a wall-clock time source
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current time in nanoseconds since the Unix epoch
func (c *SystemClock) Now() uint64 {
	now := uint64(time.Now().UnixNano())

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if now < c.last {
		return c.last
	}
	c.last = now
	return now
}
