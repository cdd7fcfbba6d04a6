package kernel

import "wallclock/internal/dlist"

// TimerFunc is a scheduled callback. It runs in the scheduling-pass context.
type TimerFunc func(t *Timer)

// Timer is one scheduled callback entry.
type Timer struct {
	node    dlist.Node[Timer]
	fn      TimerFunc
	name    string
	period  uint64
	due     uint64
	oneShot bool
	fired   uint64
}

// Name returns the label given at registration.
func (t *Timer) Name() string { return t.name }

// Period returns the firing period in ticks (the delay for one-shot timers).
func (t *Timer) Period() uint64 { return t.period }

// Due returns the tick at which the timer next fires. Inside the callback it
// is the due tick of the current invocation.
func (t *Timer) Due() uint64 { return t.due }

// Fired returns how many times the callback has run.
func (t *Timer) Fired() uint64 { return t.fired }

// Active reports whether the timer is still registered.
func (t *Timer) Active() bool { return t.node.Linked() }

// Scheduler drives software timers from a Ticks clock.
//
// All methods except those on the Ticks clock must be called from the single
// scheduling-pass context; callbacks never run concurrently with each other.
type Scheduler struct {
	ticks   *Ticks
	timers  dlist.List[Timer]
	ready   []*Timer
	running bool
}

// NewScheduler returns a scheduler reading the given clock.
func NewScheduler(ticks *Ticks) *Scheduler {
	return &Scheduler{ticks: ticks, ready: make([]*Timer, 0, 16)}
}

// Ticks returns the clock the scheduler reads.
func (s *Scheduler) Ticks() *Ticks { return s.ticks }

// Every registers fn to run every period ticks, first at now+period.
func (s *Scheduler) Every(name string, period uint64, fn TimerFunc) *Timer {
	if period == 0 {
		period = 1
	}
	t := &Timer{fn: fn, name: name, period: period, due: s.ticks.Now() + period}
	t.node.Init(t)
	s.insert(t)
	return t
}

// After registers fn to run once, delay ticks from now.
func (s *Scheduler) After(name string, delay uint64, fn TimerFunc) *Timer {
	t := &Timer{fn: fn, name: name, period: delay, due: s.ticks.Now() + delay, oneShot: true}
	t.node.Init(t)
	s.insert(t)
	return t
}

// Cancel removes t. Cancelling an inactive timer is a no-op.
func (s *Scheduler) Cancel(t *Timer) {
	if t == nil {
		return
	}
	dlist.Remove(&t.node)
}

// Reset re-arms t to fire one period from now, registering it again if it
// was cancelled or has already fired.
func (s *Scheduler) Reset(t *Timer) {
	dlist.Remove(&t.node)
	t.due = s.ticks.Now() + t.period
	s.insert(t)
}

// Len returns the number of registered timers.
func (s *Scheduler) Len() int { return s.timers.Len() }

// NextDue returns the due tick of the earliest timer.
func (s *Scheduler) NextDue() (uint64, bool) {
	first := s.timers.Front()
	if first == nil {
		return 0, false
	}
	return first.due, true
}

// insert keeps the list ordered by due tick; equal due ticks keep
// registration order.
func (s *Scheduler) insert(t *Timer) {
	anchor := s.timers.Head()
	for n := s.timers.Last(); n != nil; n = s.timers.Before(n) {
		if n.Owner().due <= t.due {
			dlist.InsertAfter(n, &t.node)
			return
		}
		anchor = n
	}
	dlist.InsertBefore(anchor, &t.node)
}

// Run performs one scheduling pass and returns how many callbacks ran.
//
// Each timer due at the start of the pass runs exactly once. A periodic
// timer then moves to due+period, so a late pass does not shift later
// firings; a timer that fell more than one period behind catches up one
// firing per pass. Timers registered during the pass wait for a later pass.
func (s *Scheduler) Run() int {
	if s.running {
		return 0
	}
	s.running = true
	defer func() { s.running = false }()

	now := s.ticks.Now()
	s.ready = s.ready[:0]
	for n := s.timers.First(); n != nil; n = s.timers.After(n) {
		t := n.Owner()
		if t.due > now {
			break
		}
		s.ready = append(s.ready, t)
	}

	ran := 0
	for i, t := range s.ready {
		s.ready[i] = nil
		if !t.node.Linked() || t.due > now {
			// Cancelled or re-armed by an earlier callback in this pass.
			continue
		}
		due := t.due
		t.fn(t)
		t.fired++
		ran++

		if !t.node.Linked() || t.due != due {
			// Cancelled or re-armed by its own callback.
			continue
		}
		dlist.Remove(&t.node)
		if t.oneShot {
			continue
		}
		t.due += t.period
		s.insert(t)
	}
	s.ready = s.ready[:0]
	return ran
}
