//go:build !tinygo

package hal

import (
	"sync"
	"time"
)

// hostTicker emulates a periodic hardware timer with a goroutine.
//
// time.Ticker drops ticks when the receiver falls behind; a hardware timer
// does not, so missed periods are replayed from the accumulated wall time.
type hostTicker struct{}

func (hostTicker) Start(periodMs uint32, fn TickFunc) (stop func()) {
	if periodMs == 0 {
		periodMs = 1
	}
	period := time.Duration(periodMs) * time.Millisecond
	t := time.NewTicker(period)
	done := make(chan struct{})
	go func() {
		defer t.Stop()
		last := time.Now()
		var acc time.Duration
		for {
			select {
			case <-done:
				return
			case now := <-t.C:
				acc += now.Sub(last)
				last = now
				for acc >= period {
					acc -= period
					fn(periodMs)
				}
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
