package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"wallclock/hal"
	"wallclock/kernel"
	"wallclock/network"
	"wallclock/nvs"
	"wallclock/ui"

	"tinygo.org/x/drivers/touch"
	"tinygo.org/x/tinyfs"
)

type recordLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordLogger) WriteLineString(s string) {
	l.mu.Lock()
	l.lines = append(l.lines, s)
	l.mu.Unlock()
}

func (l *recordLogger) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *recordLogger) contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.lines {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// testPanel scans out on demand; pump drives it from a goroutine.
type testPanel struct {
	mu   sync.Mutex
	w, h int
	fbs  [2][]byte
	fn   hal.VsyncFunc
	ev   hal.VsyncEvent
}

func newTestPanel(w, h int) *testPanel {
	return &testPanel{w: w, h: h, fbs: [2][]byte{make([]byte, w*h*2), make([]byte, w*h*2)}}
}

func (p *testPanel) Width() int                  { return p.w }
func (p *testPanel) Height() int                 { return p.h }
func (p *testPanel) Format() hal.PixelFormat     { return hal.PixelFormatRGB565 }
func (p *testPanel) StrideBytes() int            { return p.w * 2 }
func (p *testPanel) FrameBuffers() (a, b []byte) { return p.fbs[0], p.fbs[1] }

func (p *testPanel) RegisterVsync(fn hal.VsyncFunc, user any) {
	p.mu.Lock()
	p.fn = fn
	p.mu.Unlock()
}

func (p *testPanel) DrawBitmap(x1, y1, x2, y2 int, buf []byte) error { return nil }

func (p *testPanel) pump(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		p.mu.Lock()
		fn := p.fn
		p.ev.Frame++
		p.mu.Unlock()
		if fn != nil {
			fn(p, &p.ev, nil)
		}
		time.Sleep(100 * time.Microsecond)
	}
}

type manualTicker struct{}

func (manualTicker) Start(uint32, hal.TickFunc) func() { return func() {} }

type nopBacklight struct{}

func (nopBacklight) SetBrightness(int) error { return nil }

type nopPointer struct{}

func (nopPointer) ReadTouchPoint() touch.Point { return touch.Point{} }

// refuseWiFi never associates. A nil ssids list means the radio cannot
// scan.
type refuseWiFi struct {
	ssids []string
}

func (refuseWiFi) Connect(context.Context, string, string) error { return hal.ErrOffline }

func (w refuseWiFi) Scan(context.Context) ([]string, error) {
	if w.ssids == nil {
		return nil, hal.ErrNotImplemented
	}
	return w.ssids, nil
}

type refuseTime struct{}

func (refuseTime) Now(context.Context, []string) (time.Time, error) {
	return time.Time{}, hal.ErrOffline
}

type testHAL struct {
	log   *recordLogger
	panel *testPanel
	flash hal.Flash
	wifi  refuseWiFi
}

func (h *testHAL) Logger() hal.Logger         { return h.log }
func (h *testHAL) Panel() hal.Panel           { return h.panel }
func (h *testHAL) Touch() touch.Pointer       { return nopPointer{} }
func (h *testHAL) Flash() hal.Flash           { return h.flash }
func (h *testHAL) Ticker() hal.TickSource     { return manualTicker{} }
func (h *testHAL) Backlight() hal.Backlight   { return nopBacklight{} }
func (h *testHAL) WiFi() hal.WiFi             { return h.wifi }
func (h *testHAL) TimeSource() hal.TimeSource { return refuseTime{} }

// brokenFlash fails every access.
type brokenFlash struct{}

var errBroken = errors.New("broken flash")

func (brokenFlash) ReadAt([]byte, int64) (int, error)  { return 0, errBroken }
func (brokenFlash) WriteAt([]byte, int64) (int, error) { return 0, errBroken }
func (brokenFlash) Size() int64                        { return 4096 }
func (brokenFlash) WriteBlockSize() int64              { return 1 }
func (brokenFlash) EraseBlockSize() int64              { return 512 }
func (brokenFlash) EraseBlocks(int64, int64) error     { return errBroken }

func seededFlash(t *testing.T, kv map[string]string) hal.Flash {
	t.Helper()
	dev := tinyfs.NewMemoryDevice(1, 512, 16)
	st, err := nvs.Open(dev)
	if err != nil {
		t.Fatalf("nvs.Open() = %v", err)
	}
	for k, v := range kv {
		ns, key, _ := strings.Cut(k, "/")
		if err := st.SetString(ns, key, v); err != nil {
			t.Fatalf("Set(%s) = %v", k, err)
		}
	}
	return dev
}

func boot(t *testing.T, flash hal.Flash) (*System, *testHAL) {
	t.Helper()
	return bootWith(t, &testHAL{flash: flash})
}

func bootWith(t *testing.T, h *testHAL) (*System, *testHAL) {
	t.Helper()
	h.log = &recordLogger{}
	h.panel = newTestPanel(480, 320)
	done := make(chan struct{})
	go h.panel.pump(done)
	t.Cleanup(func() { close(done) })
	return New(h, Config{Offline: true}), h
}

// step advances the logical clock by ms and runs one pass.
func step(t *testing.T, s *System, ms uint32) {
	t.Helper()
	s.Ticks().Advance(ms)
	if err := s.Pass(); err != nil {
		t.Fatalf("Pass() = %v", err)
	}
}

func TestBootPicksFirstCandidate(t *testing.T) {
	s, _ := boot(t, seededFlash(t, map[string]string{
		"WiFi/0000": "Office\xffsecret\xffntp.example.com",
		"WiFi/0007": "Home\xffpw",
	}))

	a := s.Resolver().Active()
	if a.SSID != "Office" || a.Accepted {
		t.Fatalf("Active() = %+v, want pending Office", a)
	}
	if got := s.Screen().Status(); got != "WiFi: Office (pending)" {
		t.Fatalf("Status() = %q", got)
	}
	rows := s.Screen().Networks()
	if len(rows) != 2 || !rows[0].Active || rows[1].Label != "Home" {
		t.Fatalf("Networks() = %+v", rows)
	}
}

func TestBootWithBrokenStoreUsesDefaults(t *testing.T) {
	s, h := boot(t, brokenFlash{})

	a := s.Resolver().Active()
	if a.Configured() || len(a.Servers) != 1 || a.Servers[0] != "pool.ntp.org" {
		t.Fatalf("Active() = %+v, want unconfigured fallback", a)
	}
	if !h.log.contains("store unavailable") {
		t.Fatalf("store failure not logged")
	}
	if got := s.Screen().Status(); got != "WiFi: not configured" {
		t.Fatalf("Status() = %q", got)
	}
}

func TestSecondsTimerAdvancesClock(t *testing.T) {
	s, _ := boot(t, seededFlash(t, nil))
	if err := s.Clock().SetHMS(23, 59, 59); err != nil {
		t.Fatal(err)
	}

	step(t, s, 1000)
	if got := s.Screen().Time(); got != "00:00" {
		t.Fatalf("Time() = %q, want 00:00", got)
	}
	if h, m, sec := s.Clock().HMS(); h != 0 || m != 0 || sec != 0 {
		t.Fatalf("HMS() = %d:%d:%d", h, m, sec)
	}
	if s.Frames() == 0 {
		t.Fatalf("no frame presented")
	}
}

func TestSyncEventSetsClockAndAccepts(t *testing.T) {
	s, _ := boot(t, seededFlash(t, map[string]string{
		"WiFi/0000": "Office\xffsecret",
		"WiFi/0003": "Home\xffpw",
	}))

	at := time.Date(2026, time.October, 14, 7, 8, 9, 0, time.UTC)
	if !s.events.TrySend(network.Event{Kind: network.EventSynced, Key: 3, SSID: "Home", Time: at}) {
		t.Fatal("mailbox full")
	}
	step(t, s, defaultNetPollMs)

	a := s.Resolver().Active()
	if a.SSID != "Home" || !a.Accepted {
		t.Fatalf("Active() = %+v, want accepted Home", a)
	}
	if h, m, sec := s.Clock().HMS(); h != 7 || m != 8 || sec != 9 {
		t.Fatalf("HMS() = %d:%d:%d, want 7:8:9", h, m, sec)
	}
	if got := s.Screen().Status(); got != "WiFi: Home" {
		t.Fatalf("Status() = %q", got)
	}
}

func TestToggleSecondsPersists(t *testing.T) {
	flash := seededFlash(t, nil)
	s, _ := boot(t, flash)

	s.disp.Dispatch(ui.Event{Widget: ui.WidgetToggleSeconds, Kind: ui.EventClicked})
	if !s.Resolver().Prefs().Seconds {
		t.Fatalf("Seconds not toggled")
	}
	if got := s.Screen().Time(); got != "00:00:00" {
		t.Fatalf("Time() = %q, want 00:00:00", got)
	}

	st, err := nvs.Open(flash)
	if err != nil {
		t.Fatal(err)
	}
	if v, err := st.GetString("clock", "secs"); err != nil || v != "1" {
		t.Fatalf("clock/secs = %q, %v", v, err)
	}
}

func TestNetworkRowKicksBringUp(t *testing.T) {
	s, _ := boot(t, seededFlash(t, map[string]string{
		"WiFi/0000": "Office\xffsecret",
		"WiFi/0003": "Home\xffpw",
	}))

	click(s, ui.WidgetSettingsButton)
	click(s, ui.NetworkRowWidget(1))
	if !s.Screen().EntryOpen() || s.Screen().EntrySSID() != "Home" {
		t.Fatalf("entry not opened for Home")
	}
	click(s, ui.WidgetEntryConnect)

	if !s.Screen().PopupOpen() {
		t.Fatalf("popup not shown")
	}
	if a := s.Resolver().Active(); a.SSID != "Home" || a.Accepted {
		t.Fatalf("Active() = %+v, want pending Home", a)
	}
	select {
	case <-s.kick:
	default:
		t.Fatalf("bring-up not kicked")
	}
	if c := s.candidates(); len(c) != 2 || c[0].SSID != "Home" || c[1].SSID != "Office" {
		t.Fatalf("candidates() = %+v, want Home first", c)
	}
}

func click(s *System, id ui.WidgetID) {
	s.disp.Dispatch(ui.Event{Widget: id, Kind: ui.EventClicked})
}

func typeText(t *testing.T, s *System, text string) {
	t.Helper()
	for _, r := range text {
		id := ui.KeyWidgetFor(r)
		if id == ui.WidgetNone {
			t.Fatalf("no key for %q", r)
		}
		click(s, id)
	}
}

// waitScan runs passes until the scan result has been handled.
func waitScan(t *testing.T, s *System) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.scanning.Load() || s.scans.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("scan did not finish")
		}
		step(t, s, defaultNetPollMs)
		time.Sleep(time.Millisecond)
	}
	step(t, s, defaultNetPollMs)
}

func storedValue(t *testing.T, flash hal.Flash, key string) string {
	t.Helper()
	st, err := nvs.Open(flash)
	if err != nil {
		t.Fatal(err)
	}
	v, err := st.GetString("WiFi", key)
	if err != nil {
		t.Fatalf("GetString(WiFi/%s) = %v", key, err)
	}
	return v
}

func TestEntryChangesStoredPassword(t *testing.T) {
	flash := seededFlash(t, map[string]string{
		"WiFi/0000": "Office\xffsecret",
		"WiFi/0003": "Home\xffpw",
	})
	s, _ := boot(t, flash)

	click(s, ui.WidgetSettingsButton)
	click(s, ui.NetworkRowWidget(1))
	if got := s.Screen().EntryText(); got != "pw" {
		t.Fatalf("EntryText() = %q, want stored pw", got)
	}
	click(s, ui.WidgetEntryDelete)
	click(s, ui.WidgetEntryDelete)
	typeText(t, s, "new")
	click(s, ui.WidgetEntryConnect)

	if s.Screen().EntryOpen() {
		t.Fatalf("entry still open after connect")
	}
	if got := storedValue(t, flash, "0003"); got != "Home\xffnew" {
		t.Fatalf("WiFi/0003 = %q, want Home\\xffnew", got)
	}
	if c := s.candidates(); c[0].SSID != "Home" || c[0].Password != "new" {
		t.Fatalf("candidates()[0] = %+v, want Home/new", c[0])
	}
	select {
	case <-s.kick:
	default:
		t.Fatalf("bring-up not kicked")
	}
}

func TestScannedNetworkGetsNextKey(t *testing.T) {
	flash := seededFlash(t, map[string]string{
		"WiFi/0000": "Office\xffsecret",
		"WiFi/0003": "Home\xffpw",
	})
	s, _ := bootWith(t, &testHAL{flash: flash, wifi: refuseWiFi{ssids: []string{"Home", "Cafe"}}})

	click(s, ui.WidgetSettingsButton)
	waitScan(t, s)
	rows := s.Screen().Networks()
	if len(rows) != 3 || rows[2].Label != "Cafe (new)" {
		t.Fatalf("Networks() = %+v, want Cafe appended once", rows)
	}

	click(s, ui.NetworkRowWidget(2))
	if s.Screen().EntrySSID() != "Cafe" || s.Screen().EntryText() != "" {
		t.Fatalf("entry = %q %q, want empty Cafe", s.Screen().EntrySSID(), s.Screen().EntryText())
	}
	typeText(t, s, "latte")
	click(s, ui.WidgetEntryConnect)

	if got := storedValue(t, flash, "0004"); got != "Cafe\xfflatte" {
		t.Fatalf("WiFi/0004 = %q, want Cafe\\xfflatte", got)
	}
	if a := s.Resolver().Active(); a.Key != 4 || a.SSID != "Cafe" || a.Accepted {
		t.Fatalf("Active() = %+v, want pending Cafe at key 4", a)
	}
	if rows := s.Screen().Networks(); len(rows) != 3 || rows[2].Label != "Cafe" {
		t.Fatalf("Networks() = %+v, want Cafe stored", rows)
	}
}

func TestScanUnsupportedKeepsStoredRows(t *testing.T) {
	s, h := boot(t, seededFlash(t, map[string]string{"WiFi/0003": "Home\xffpw"}))

	click(s, ui.WidgetSettingsButton)
	waitScan(t, s)
	if rows := s.Screen().Networks(); len(rows) != 1 || rows[0].Label != "Home" {
		t.Fatalf("Networks() = %+v", rows)
	}
	if h.log.contains("W app: wifi scan") || !h.log.contains("D app: wifi scan") {
		t.Fatalf("unsupported scan not logged at debug")
	}
}

func TestEntryCancelSavesNothing(t *testing.T) {
	flash := seededFlash(t, map[string]string{"WiFi/0003": "Home\xffpw"})
	s, _ := boot(t, flash)

	click(s, ui.WidgetSettingsButton)
	click(s, ui.NetworkRowWidget(0))
	typeText(t, s, "zzz")
	click(s, ui.WidgetEntryCancel)

	if s.Screen().EntryOpen() || s.Screen().PopupOpen() {
		t.Fatalf("entry or popup open after cancel")
	}
	if got := storedValue(t, flash, "0003"); got != "Home\xffpw" {
		t.Fatalf("WiFi/0003 = %q, want unchanged", got)
	}
	select {
	case <-s.kick:
		t.Fatalf("cancel kicked bring-up")
	default:
	}
}

func TestZoneChangeKeepsInstant(t *testing.T) {
	s, _ := boot(t, seededFlash(t, map[string]string{"clock/tz": "+02:00"}))

	at := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	s.events.TrySend(network.Event{Kind: network.EventSynced, SSID: "Home", Time: at})
	step(t, s, defaultNetPollMs)
	if h, _, _ := s.Clock().HMS(); h != 14 {
		t.Fatalf("hour in +02:00 = %d, want 14", h)
	}

	p := s.Resolver().Prefs()
	p.Timezone = "+05:00"
	if err := s.Resolver().SetPrefs(p); err != nil {
		t.Fatal(err)
	}
	s.applyPrefs(s.Resolver().Prefs())
	if h, _, _ := s.Clock().HMS(); h != 17 {
		t.Fatalf("hour in +05:00 = %d, want 17", h)
	}
	if got := s.Clock().Time(); !got.Equal(at) {
		t.Fatalf("Time() = %v, want %v", got, at)
	}
}

func TestPanicInTimerEndsPass(t *testing.T) {
	s, h := boot(t, seededFlash(t, nil))
	s.sched.After("boom", 0, func(*kernel.Timer) { panic("boom") })

	err := s.Pass()
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("Pass() = %v, want panic error", err)
	}
	if !h.log.contains("panic: boom") {
		t.Fatalf("panic not logged")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := boot(t, seededFlash(t, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() = %v, want deadline exceeded", err)
	}
}

func TestTakeRunes(t *testing.T) {
	for _, tt := range []struct {
		in         string
		n          int16
		head, rest string
	}{
		{"abcdef", 4, "abcd", "ef"},
		{"abc", 4, "abc", ""},
		{"héllo", 2, "hé", "llo"},
		{"x", 0, "", "x"},
	} {
		head, rest := takeRunes(tt.in, tt.n)
		if head != tt.head || rest != tt.rest {
			t.Fatalf("takeRunes(%q, %d) = %q, %q, want %q, %q", tt.in, tt.n, head, rest, tt.head, tt.rest)
		}
	}
}
