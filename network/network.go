// Package network brings the clock online: it walks the connection
// candidates in priority order until one associates and yields the time,
// and keeps re-syncing afterwards.
//
// BringUp runs on its own goroutine and never touches widget state. Every
// outcome is posted to a kernel.Mailbox that a scheduler timer drains.
package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallclock/hal"
	"wallclock/kernel"
	"wallclock/netcfg"
)

// EventKind tags a bring-up report.
type EventKind uint8

const (
	EventAttempt EventKind = iota + 1
	EventConnectFailed
	EventTimeFailed
	EventSynced
	EventExhausted
)

func (k EventKind) String() string {
	switch k {
	case EventAttempt:
		return "attempt"
	case EventConnectFailed:
		return "connect-failed"
	case EventTimeFailed:
		return "time-failed"
	case EventSynced:
		return "synced"
	case EventExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// Event reports one step of bring-up.
type Event struct {
	Kind EventKind
	Key  int
	SSID string
	// Time is set for EventSynced.
	Time time.Time
	Err  error
}

// Config tunes the retry policy.
type Config struct {
	// Backoff is the pause after a pass in which no candidate worked.
	Backoff time.Duration
	// Resync is the interval between time fetches once synced.
	Resync time.Duration
	// Attempt bounds a single connect or time fetch.
	Attempt time.Duration
	// Kick, when it receives, cuts any back-off or resync wait short and
	// starts a fresh pass over the candidates.
	Kick <-chan struct{}
}

func (c *Config) setDefaults() {
	if c.Backoff <= 0 {
		c.Backoff = 30 * time.Second
	}
	if c.Resync <= 0 {
		c.Resync = time.Hour
	}
	if c.Attempt <= 0 {
		c.Attempt = 15 * time.Second
	}
}

// ErrNoCandidates is carried by EventExhausted when nothing is configured.
var ErrNoCandidates = errors.New("network: no candidates")

// BringUp runs until ctx is done. candidates is consulted at the start of
// every pass so edits made in the settings panel take effect on the next
// pass.
func BringUp(ctx context.Context, candidates func() []netcfg.Candidate, wifi hal.WiFi, ts hal.TimeSource, out *kernel.Mailbox[Event], cfg Config) error {
	cfg.setDefaults()
	b := &bringUp{wifi: wifi, ts: ts, out: out, cfg: cfg}
	for {
		c, ok := b.pass(ctx, candidates())
		if err := ctx.Err(); err != nil {
			return err
		}
		if !ok {
			if _, err := sleep(ctx, cfg.Backoff, cfg.Kick); err != nil {
				return err
			}
			continue
		}
		// Stay on the accepted candidate until a resync fails or a new
		// pass is requested.
		for {
			kicked, err := sleep(ctx, cfg.Resync, cfg.Kick)
			if err != nil {
				return err
			}
			if kicked || !b.sync(ctx, c) {
				break
			}
		}
	}
}

type bringUp struct {
	wifi hal.WiFi
	ts   hal.TimeSource
	out  *kernel.Mailbox[Event]
	cfg  Config
}

// pass tries every candidate once and returns the first that synced.
func (b *bringUp) pass(ctx context.Context, cands []netcfg.Candidate) (netcfg.Candidate, bool) {
	if len(cands) == 0 {
		b.post(ctx, Event{Kind: EventExhausted, Key: -1, Err: ErrNoCandidates})
		return netcfg.Candidate{}, false
	}
	var last error
	for _, c := range cands {
		if ctx.Err() != nil {
			return netcfg.Candidate{}, false
		}
		b.post(ctx, Event{Kind: EventAttempt, Key: c.Key, SSID: c.SSID})

		actx, cancel := context.WithTimeout(ctx, b.cfg.Attempt)
		err := b.wifi.Connect(actx, c.SSID, c.Password)
		cancel()
		if err != nil {
			last = err
			b.post(ctx, Event{Kind: EventConnectFailed, Key: c.Key, SSID: c.SSID, Err: err})
			continue
		}
		if b.sync(ctx, c) {
			return c, true
		}
	}
	b.post(ctx, Event{Kind: EventExhausted, Key: -1, Err: last})
	return netcfg.Candidate{}, false
}

// sync fetches the time over the current association.
func (b *bringUp) sync(ctx context.Context, c netcfg.Candidate) bool {
	actx, cancel := context.WithTimeout(ctx, b.cfg.Attempt)
	now, err := b.ts.Now(actx, c.Servers)
	cancel()
	if err != nil {
		b.post(ctx, Event{Kind: EventTimeFailed, Key: c.Key, SSID: c.SSID, Err: err})
		return false
	}
	b.post(ctx, Event{Kind: EventSynced, Key: c.Key, SSID: c.SSID, Time: now})
	return true
}

// post delivers ev, waiting for room while the consumer catches up.
func (b *bringUp) post(ctx context.Context, ev Event) {
	for !b.out.TrySend(ev) {
		if _, err := sleep(ctx, 10*time.Millisecond, nil); err != nil {
			return
		}
	}
}

// sleep waits for d, ctx or kick. A nil kick never fires.
func sleep(ctx context.Context, d time.Duration, kick <-chan struct{}) (kicked bool, err error) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-kick:
		return true, nil
	case <-t.C:
		return false, nil
	}
}
