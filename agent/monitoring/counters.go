package monitoring

import "sync/atomic"

// Counters accumulates key presses and mouse clicks for the lifetime of the
// process. Values only grow. All methods are safe for concurrent use and
// never block, so they may be called from an OS hook callback.
type Counters struct {
	keyPresses  atomic.Uint64
	mouseClicks atomic.Uint64
}

// CounterSnapshot is a point-in-time read of both counters.
type CounterSnapshot struct {
	KeyPresses  uint64
	MouseClicks uint64
}

func NewCounters() *Counters {
	return &Counters{}
}

// IncrementKeyPress adds one key press and returns the new total.
func (c *Counters) IncrementKeyPress() uint64 {
	return c.keyPresses.Add(1)
}

// IncrementMouseClick adds one mouse click and returns the new total.
func (c *Counters) IncrementMouseClick() uint64 {
	return c.mouseClicks.Add(1)
}

func (c *Counters) KeyPresses() uint64 {
	return c.keyPresses.Load()
}

func (c *Counters) MouseClicks() uint64 {
	return c.mouseClicks.Load()
}

// Snapshot reads both counters. The two loads are not taken atomically
// together.
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		KeyPresses:  c.keyPresses.Load(),
		MouseClicks: c.mouseClicks.Load(),
	}
}
