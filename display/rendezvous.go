// Package display implements the handshake between the panel's vertical sync
// and the render path, plus the double-buffered full-frame renderer built on
// it.
//
// The panel owns two frame buffers. The render path draws into the one that
// is not being scanned out, then calls Rendezvous.Wait: it announces that a
// frame is ready and sleeps until the next vsync has taken it. Only then is
// the buffer handed to the panel and the roles swapped, so at most one frame
// is ever in flight and the buffer being scanned out is never written.
package display

import (
	"sync/atomic"

	"wallclock/hal"
	"wallclock/kernel"
)

// Rendezvous pairs the render-ready and scan-complete notifications.
type Rendezvous struct {
	ready *kernel.Signal
	done  *kernel.Signal

	presented atomic.Uint64
	idle      atomic.Uint64
}

// Stats counts vsync outcomes.
type Stats struct {
	// Presented is the number of vsync events that released a waiting frame.
	Presented uint64
	// Idle is the number of vsync events that found no frame ready.
	Idle uint64
}

// NewRendezvous returns a Rendezvous with both notifications clear.
func NewRendezvous() *Rendezvous {
	return &Rendezvous{
		ready: kernel.NewSignal(),
		done:  kernel.NewSignal(),
	}
}

// Wait is the render side of the handshake. It marks a frame ready, then
// blocks until a vsync event hands back scan-complete. There is no timeout:
// a panel that stops producing vsync stalls the render path for good.
func (r *Rendezvous) Wait() {
	r.ready.Give()
	r.done.Take()
}

// OnVsync is the interrupt side of the handshake. It never blocks or
// allocates. If a frame is ready it consumes the ready notification and gives
// scan-complete; otherwise the event is ignored. The result reports whether a
// blocked render path was woken.
func (r *Rendezvous) OnVsync() bool {
	if !r.ready.TryTake() {
		r.idle.Add(1)
		return false
	}
	r.presented.Add(1)
	return r.done.Give()
}

// VsyncHandler adapts OnVsync to the panel callback signature.
func (r *Rendezvous) VsyncHandler() hal.VsyncFunc {
	return func(hal.Panel, *hal.VsyncEvent, any) bool {
		return r.OnVsync()
	}
}

// Stats returns the vsync counters.
func (r *Rendezvous) Stats() Stats {
	return Stats{
		Presented: r.presented.Load(),
		Idle:      r.idle.Load(),
	}
}

// pending reports whether a frame is marked ready and not yet taken.
func (r *Rendezvous) pending() bool { return r.ready.Pending() }
