package kernel

import "sync/atomic"

// Signal is a binary notification cell.
//
// Give and TryTake never block and never allocate, so they may be used from
// interrupt context. Take blocks the calling goroutine until the cell is
// given. The cell holds at most one pending notification; giving an already
// given cell is a no-op.
type Signal struct {
	ch      chan struct{}
	waiters atomic.Int32
}

// NewSignal returns an empty cell.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Give sets the cell. It reports whether a goroutine blocked in Take can now
// proceed, which is the interrupt-return "higher priority task woken" flag.
func (s *Signal) Give() (woken bool) {
	select {
	case s.ch <- struct{}{}:
		return s.waiters.Load() > 0
	default:
		return false
	}
}

// TryTake clears the cell if it is set and reports whether it was.
func (s *Signal) TryTake() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Take blocks until the cell is set, then clears it. There is no timeout.
func (s *Signal) Take() {
	s.waiters.Add(1)
	<-s.ch
	s.waiters.Add(-1)
}

// Pending reports whether the cell is currently set.
func (s *Signal) Pending() bool {
	return len(s.ch) > 0
}

// Waiting reports how many goroutines are blocked in Take.
func (s *Signal) Waiting() int {
	return int(s.waiters.Load())
}
