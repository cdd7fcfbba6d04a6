// Package app wires the wall clock together: it mounts the store, resolves
// the network configuration, registers the scheduler timers and runs the
// main loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"wallclock/clock"
	"wallclock/display"
	"wallclock/hal"
	"wallclock/internal/buildinfo"
	"wallclock/internal/logx"
	"wallclock/kernel"
	"wallclock/netcfg"
	"wallclock/network"
	"wallclock/nvs"
	"wallclock/ui"

	"golang.org/x/sync/errgroup"
)

// Config tunes the main loop. Zero fields take the defaults below.
type Config struct {
	// TickMs is the tick interrupt period.
	TickMs uint32
	// RefreshMs is how often the screen is redrawn when something changed.
	RefreshMs uint64
	// TouchMs is the touch polling period.
	TouchMs uint64
	// NetPollMs is how often network reports are drained.
	NetPollMs uint64
	// Backlight is the panel brightness in percent.
	Backlight int
	// Offline skips network bring-up entirely.
	Offline bool
	// LogLevel is the minimum level written to the HAL logger. The zero
	// value logs everything.
	LogLevel logx.Level
	Network  network.Config
}

const (
	defaultTickMs    = 10
	defaultRefreshMs = 30
	defaultTouchMs   = 20
	defaultNetPollMs = 100
	defaultBacklight = 10

	secondMs = 1000

	// idleSleep caps how long the main loop sleeps between passes.
	idleSleep = 10 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.TickMs == 0 {
		c.TickMs = defaultTickMs
	}
	if c.RefreshMs == 0 {
		c.RefreshMs = defaultRefreshMs
	}
	if c.TouchMs == 0 {
		c.TouchMs = defaultTouchMs
	}
	if c.NetPollMs == 0 {
		c.NetPollMs = defaultNetPollMs
	}
	if c.Backlight == 0 {
		c.Backlight = defaultBacklight
	}
	return c
}

// System is the booted clock. All fields except ticks, events, kick, the
// scan state and the console queue are confined to the goroutine calling
// Run.
type System struct {
	h   hal.HAL
	cfg Config

	logs *logx.Root
	log  *logx.Logger

	ticks kernel.Ticks
	sched *kernel.Scheduler

	rv       *display.Rendezvous
	renderer *display.Renderer

	store    *nvs.Store
	resolver *netcfg.Resolver

	clock *clock.Clock

	screen *ui.Screen
	touch  *ui.TouchInput
	disp   ui.Dispatcher

	events kernel.Mailbox[network.Event]
	kick   chan struct{}

	// ctx bounds background work started from handlers.
	ctx      context.Context
	scanning atomic.Bool
	scans    kernel.Mailbox[scanResult]
	scanned  []string
	targets  []rowTarget

	consoleMu sync.Mutex
	console   []string

	dirty bool
}

// New boots the clock on h. It never fails on a bad store: the clock comes
// up on the hardwired defaults and the failure is logged.
func New(h hal.HAL, cfg Config) *System {
	cfg = cfg.withDefaults()
	s := &System{
		h:     h,
		cfg:   cfg,
		logs:  logx.New(h.Logger(), cfg.LogLevel),
		clock: clock.New(),
		kick:  make(chan struct{}, 1),
		ctx:   context.Background(),
	}
	s.log = s.logs.Tag("app")
	s.sched = kernel.NewScheduler(&s.ticks)

	bootStep(h, "log")
	s.log.Infof("wall clock %s", buildinfo.String())

	bootStep(h, "backlight")
	if err := h.Backlight().SetBrightness(cfg.Backlight); err != nil {
		s.log.Warnf("backlight: %v", err)
	}

	bootStep(h, "panel")
	p := h.Panel()
	s.rv = display.NewRendezvous()
	p.RegisterVsync(s.rv.VsyncHandler(), nil)
	s.renderer = display.NewRenderer(p, display.NewFlusher(p, s.rv))

	bootStep(h, "store")
	var store netcfg.Store
	if st, err := nvs.Open(h.Flash()); err != nil {
		s.log.Errorf("store unavailable, using defaults: %v", err)
	} else {
		s.store = st
		store = st
		stats := st.Stats()
		s.log.Infof("store: %d live entries, %d bytes free", stats.Live, stats.Free)
		if stats.Corrupt > 0 {
			s.log.Warnf("store: %d corrupt entries skipped", stats.Corrupt)
		}
	}

	bootStep(h, "resolve")
	s.resolver = netcfg.NewResolver(store, s.logs.Tag("netcfg"))
	if _, err := s.resolver.Load(); err != nil {
		s.log.Errorf("load network config: %v", err)
	}

	bootStep(h, "screen")
	s.screen = ui.NewScreen(p.Width(), p.Height())
	s.touch = ui.NewTouchInput(h.Touch(), s.screen.Hit)
	s.logs.Tee(s.queueConsole)
	s.applyPrefs(s.resolver.Prefs())
	s.refreshNetworks()
	s.setStatus()
	s.registerHandlers()

	bootStep(h, "timers")
	s.sched.Every("seconds", secondMs, s.onSecond)
	s.sched.Every("refresh", cfg.RefreshMs, s.onRefresh)
	s.sched.Every("touch", cfg.TouchMs, s.onTouch)
	s.sched.Every("netpoll", cfg.NetPollMs, s.onNetPoll)

	bootStep(h, "ready")
	s.dirty = true
	return s
}

// Run starts the tick source and the network goroutine, then runs
// scheduling passes until ctx is cancelled or a timer callback panics.
func (s *System) Run(ctx context.Context) error {
	stop := s.h.Ticker().Start(s.cfg.TickMs, s.ticks.Advance)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	s.ctx = ctx
	if !s.cfg.Offline {
		ncfg := s.cfg.Network
		ncfg.Kick = s.kick
		g.Go(func() error {
			err := network.BringUp(ctx, s.candidates, s.h.WiFi(), s.h.TimeSource(), &s.events, ncfg)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		s.log.Infof("offline: network bring-up disabled")
	}
	g.Go(func() error { return s.loop(ctx) })
	return g.Wait()
}

func (s *System) loop(ctx context.Context) error {
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		if err := s.Pass(); err != nil {
			return err
		}
		t.Reset(s.untilNext())
	}
}

// Pass runs one scheduling pass. A panicking callback is turned into the
// crash screen and returned as an error.
func (s *System) Pass() (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = s.crash(v)
		}
	}()
	s.sched.Run()
	return nil
}

func (s *System) untilNext() time.Duration {
	due, ok := s.sched.NextDue()
	if !ok {
		return idleSleep
	}
	var wait time.Duration
	if now := s.ticks.Now(); due > now {
		wait = time.Duration(due-now) * time.Millisecond
	}
	return min(wait, idleSleep)
}

// Ticks exposes the logical clock for diagnostics and tests.
func (s *System) Ticks() *kernel.Ticks { return &s.ticks }

// Screen returns the widget state. Only the Run goroutine may touch it.
func (s *System) Screen() *ui.Screen { return s.screen }

// Clock returns the time-of-day counter.
func (s *System) Clock() *clock.Clock { return s.clock }

// Resolver returns the network configuration.
func (s *System) Resolver() *netcfg.Resolver { return s.resolver }

// Frames returns the number of frames presented.
func (s *System) Frames() uint64 { return s.renderer.Frames() }

func (s *System) onSecond(*kernel.Timer) {
	s.clock.Tick()
	s.showTime()
}

func (s *System) onRefresh(*kernel.Timer) {
	s.drainConsole()
	if !s.dirty {
		return
	}
	s.dirty = false
	if err := s.renderer.Render(s.screen.Draw); err != nil {
		s.log.Errorf("render: %v", err)
	}
}

func (s *System) onTouch(*kernel.Timer) {
	s.touch.Poll(func(ev ui.Event) {
		if s.disp.Dispatch(ev) {
			s.dirty = true
		}
	})
}

func (s *System) onNetPoll(*kernel.Timer) {
	for {
		r, ok := s.scans.TryRecv()
		if !ok {
			break
		}
		s.handleScan(r)
	}
	for {
		ev, ok := s.events.TryRecv()
		if !ok {
			return
		}
		s.handleNetwork(ev)
	}
}

type scanResult struct {
	ssids []string
	err   error
}

// startScan lists the access points in range on its own goroutine. At most
// one scan runs at a time; the result arrives through the scans mailbox.
func (s *System) startScan() {
	if !s.scanning.CompareAndSwap(false, true) {
		return
	}
	ctx, wifi := s.ctx, s.h.WiFi()
	go func() {
		defer s.scanning.Store(false)
		ssids, err := wifi.Scan(ctx)
		s.scans.TrySend(scanResult{ssids: ssids, err: err})
	}()
}

func (s *System) handleScan(r scanResult) {
	switch {
	case errors.Is(r.err, hal.ErrNotImplemented):
		s.log.Debugf("wifi scan: %v", r.err)
		return
	case r.err != nil:
		s.log.Warnf("wifi scan: %v", r.err)
		return
	}
	s.log.Infof("wifi scan: %d networks in range", len(r.ssids))
	s.scanned = r.ssids
	s.refreshNetworks()
}

func (s *System) handleNetwork(ev network.Event) {
	nlog := s.logs.Tag("network")
	switch ev.Kind {
	case network.EventAttempt:
		nlog.Infof("connecting to %q (%s)", ev.SSID, netcfg.FormatKey(ev.Key))
		s.screen.SetStatus(fmt.Sprintf("WiFi: connecting to %s", ev.SSID))
	case network.EventConnectFailed, network.EventTimeFailed:
		nlog.Warnf("%s %q: %v", ev.Kind, ev.SSID, ev.Err)
	case network.EventExhausted:
		nlog.Warnf("no candidate connected: %v", ev.Err)
		s.screen.SetStatus("WiFi: offline")
	case network.EventSynced:
		if !s.resolver.Accept(ev.Key) {
			nlog.Warnf("synced with unknown candidate %d", ev.Key)
		}
		s.clock.Set(ev.Time)
		nlog.Infof("time synced: %s", s.clock.Time().Format(time.RFC3339))
		s.setStatus()
		s.refreshNetworks()
		s.showTime()
	}
	s.dirty = true
}

func (s *System) registerHandlers() {
	s.disp.Handle(ui.WidgetSettingsButton, ui.EventClicked, func(ui.Event) {
		s.refreshNetworks()
		s.screen.OpenSettings()
		s.startScan()
	})
	s.disp.Handle(ui.WidgetSettingsClose, ui.EventClicked, func(ui.Event) {
		s.screen.CloseSettings()
	})
	s.disp.Handle(ui.WidgetPopupClose, ui.EventClicked, func(ui.Event) {
		s.screen.ClosePopup()
	})

	toggle := func(id ui.WidgetID, flip func(p *netcfg.Prefs)) {
		s.disp.Handle(id, ui.EventClicked, func(ui.Event) {
			p := s.resolver.Prefs()
			flip(&p)
			if err := s.resolver.SetPrefs(p); err != nil {
				s.log.Errorf("%v", err)
			}
			s.applyPrefs(s.resolver.Prefs())
		})
	}
	toggle(ui.WidgetToggle24h, func(p *netcfg.Prefs) { p.Hour24 = !p.Hour24 })
	toggle(ui.WidgetToggleSeconds, func(p *netcfg.Prefs) { p.Seconds = !p.Seconds })
	toggle(ui.WidgetToggleDay, func(p *netcfg.Prefs) { p.ShowDay = !p.ShowDay })
	toggle(ui.WidgetToggleDate, func(p *netcfg.Prefs) { p.ShowDate = !p.ShowDate })

	for i := 0; i < ui.MaxNetworkRows; i++ {
		s.disp.Handle(ui.NetworkRowWidget(i), ui.EventClicked, s.onNetworkRow)
	}

	for i := 0; i < ui.KeyCount; i++ {
		s.disp.Handle(ui.KeyWidget(i), ui.EventClicked, func(ev ui.Event) {
			s.screen.TypeKey(ev.Widget)
		})
	}
	s.disp.Handle(ui.WidgetEntryShift, ui.EventClicked, func(ui.Event) { s.screen.ToggleShift() })
	s.disp.Handle(ui.WidgetEntryDelete, ui.EventClicked, func(ui.Event) { s.screen.Backspace() })
	s.disp.Handle(ui.WidgetEntryCancel, ui.EventClicked, func(ui.Event) { s.screen.CloseEntry() })
	s.disp.Handle(ui.WidgetEntryConnect, ui.EventClicked, s.onEntryConnect)
}

// rowTarget is what a settings row opens the password entry for.
type rowTarget struct {
	ssid     string
	password string
}

func (s *System) onNetworkRow(ev ui.Event) {
	i, ok := ev.Widget.NetworkRow()
	if !ok || i >= len(s.targets) {
		return
	}
	t := s.targets[i]
	s.screen.OpenEntry(t.ssid, t.password)
}

func (s *System) onEntryConnect(ui.Event) {
	ssid, password := s.screen.EntrySSID(), s.screen.EntryText()
	s.screen.CloseEntry()
	c, err := s.resolver.SavePassword(ssid, password)
	if err != nil {
		s.log.Errorf("select network: %v", err)
		s.screen.ShowPopup("Error", err.Error())
		return
	}
	select {
	case s.kick <- struct{}{}:
	default:
	}
	s.refreshNetworks()
	s.setStatus()
	s.screen.ShowPopup("Connecting!", fmt.Sprintf("Attempting to connect to %s", c.SSID))
}

// candidates moves a pinned but unconfirmed pick to the front, so a network
// chosen in the settings panel is tried before the rest. It runs on the
// network goroutine.
func (s *System) candidates() []netcfg.Candidate {
	cands := s.resolver.Candidates()
	a := s.resolver.Active()
	if a.Accepted {
		return cands
	}
	for i, c := range cands {
		if c.Key == a.Key {
			copy(cands[1:i+1], cands[:i])
			cands[0] = c
			break
		}
	}
	return cands
}

func (s *System) applyPrefs(p netcfg.Prefs) {
	zone, err := clock.LoadZone(p.Timezone)
	if err != nil {
		s.log.Warnf("timezone: %v, using UTC", err)
		zone = time.UTC
	}
	if zone.String() != s.clock.Zone().String() {
		s.clock.SetZone(zone)
	}
	s.screen.SetPrefs(p)
	s.showTime()
}

func (s *System) showTime() {
	st := styleOf(s.resolver.Prefs())
	s.screen.SetTime(s.clock.Format(st), s.clock.DateLine(st))
	s.dirty = true
}

func (s *System) setStatus() {
	a := s.resolver.Active()
	switch {
	case !a.Configured():
		s.screen.SetStatus("WiFi: not configured")
	case a.Accepted:
		s.screen.SetStatus(fmt.Sprintf("WiFi: %s", a.SSID))
	default:
		s.screen.SetStatus(fmt.Sprintf("WiFi: %s (pending)", a.SSID))
	}
	s.dirty = true
}

// refreshNetworks lists the stored candidates, then scanned networks that
// are not stored yet.
func (s *System) refreshNetworks() {
	a := s.resolver.Active()
	cands := s.resolver.Candidates()
	rows := make([]ui.NetworkRow, 0, len(cands)+len(s.scanned))
	s.targets = s.targets[:0]
	known := make(map[string]bool, len(cands))
	for _, c := range cands {
		label := c.SSID
		if c.Key == netcfg.DefaultKey {
			label += " (default)"
		}
		rows = append(rows, ui.NetworkRow{Label: label, Active: c.Key == a.Key})
		s.targets = append(s.targets, rowTarget{ssid: c.SSID, password: c.Password})
		known[c.SSID] = true
	}
	for _, ssid := range s.scanned {
		if ssid == "" || known[ssid] {
			continue
		}
		known[ssid] = true
		rows = append(rows, ui.NetworkRow{Label: ssid + " (new)"})
		s.targets = append(s.targets, rowTarget{ssid: ssid})
	}
	if len(s.targets) > ui.MaxNetworkRows {
		s.targets = s.targets[:ui.MaxNetworkRows]
	}
	s.screen.SetNetworks(rows)
	s.dirty = true
}

// queueConsole runs on whichever goroutine logged; the lines are handed to
// the screen by the refresh timer.
func (s *System) queueConsole(line string) {
	s.consoleMu.Lock()
	if len(s.console) < consoleBacklog {
		s.console = append(s.console, line)
	}
	s.consoleMu.Unlock()
}

const consoleBacklog = 32

func (s *System) drainConsole() {
	s.consoleMu.Lock()
	lines := s.console
	s.console = nil
	s.consoleMu.Unlock()
	for _, l := range lines {
		s.screen.Logf("%s", l)
	}
	if len(lines) > 0 {
		s.dirty = true
	}
}

func styleOf(p netcfg.Prefs) clock.Style {
	return clock.Style{
		Hour24:   p.Hour24,
		Seconds:  p.Seconds,
		ShowDay:  p.ShowDay,
		ShowDate: p.ShowDate,
	}
}
