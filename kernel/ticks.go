package kernel

import "sync/atomic"

// Ticks is the logical millisecond clock.
//
// Advance is the entire tick interrupt handler: it may be called from any
// goroutine (or a real ISR) and never blocks or allocates.
type Ticks struct {
	now atomic.Uint64
}

// Advance adds one tick period to the clock.
func (t *Ticks) Advance(periodMs uint32) {
	t.now.Add(uint64(periodMs))
}

// Now returns the current logical time in milliseconds.
func (t *Ticks) Now() uint64 {
	return t.now.Load()
}

// Since returns the milliseconds elapsed since tick.
func (t *Ticks) Since(tick uint64) uint64 {
	now := t.now.Load()
	if now < tick {
		return 0
	}
	return now - tick
}
